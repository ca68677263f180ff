package index

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Archive writes the index directory to w as a gzipped tarball, so a
// built index can be transported to another machine and restored with
// Restore. Fails with ErrIndexUnavailable if no index has been built.
func (ix *Index) Archive(w io.Writer) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if _, err := os.Stat(filepath.Join(ix.dir, manifestFile)); err != nil {
		return fmt.Errorf("no persisted index at %s: %w", ix.dir, domain.ErrIndexUnavailable)
	}

	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	for _, name := range []string{manifestFile, chunksFile, vectorsFile} {
		if err := addFile(tw, ix.dir, name); err != nil {
			return fmt.Errorf("archive %s: %w", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip: %w", err)
	}
	return nil
}

// Restore extracts an archive produced by Archive into dir, replacing
// whatever was there. Open the directory afterwards to serve from it.
func Restore(dir string, r io.Reader) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("open gzip: %w", err)
	}
	defer gz.Close()

	scratch := dir + ".restore"
	if err := os.RemoveAll(scratch); err != nil {
		return fmt.Errorf("clear scratch dir: %w", err)
	}
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}
		name := filepath.Clean(hdr.Name)
		if strings.Contains(name, "..") || filepath.IsAbs(name) {
			return fmt.Errorf("unsafe archive entry %q", hdr.Name)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		f, err := os.OpenFile(filepath.Join(scratch, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := io.Copy(f, tr); err != nil { //nolint:gosec // trusted operator archive
			f.Close()
			return fmt.Errorf("extract %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", name, err)
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear index dir: %w", err)
	}
	if err := os.Rename(scratch, dir); err != nil {
		return fmt.Errorf("promote restored index: %w", err)
	}
	return nil
}

func addFile(tw *tar.Writer, dir, name string) error {
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("header: %w", err)
	}
	hdr.Name = name

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}

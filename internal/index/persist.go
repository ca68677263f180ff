package index

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// On-disk layout of the index directory (opaque to callers):
//
//	manifest.json — model, dimensions, chunk count, build time
//	chunks.json   — chunk texts and metadata, insertion order
//	vectors.bin   — packed little-endian float32, count*dim values
const (
	manifestFile = "manifest.json"
	chunksFile   = "chunks.json"
	vectorsFile  = "vectors.bin"
)

type snapshot struct {
	entries []entry
	dim     int
	model   string
	builtAt time.Time
}

// manifest is the persisted index metadata.
type manifest struct {
	Model      string    `json:"model"`
	Dimensions int       `json:"dimensions"`
	Chunks     int       `json:"chunks"`
	BuiltAt    time.Time `json:"built_at"`
}

// chunkRecord is the persisted form of a chunk.
type chunkRecord struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Page   int    `json:"page"`
	Seq    int    `json:"seq"`
}

// writeSnapshot persists a snapshot into dir atomically: the files are
// written to a scratch directory next to dir, then swapped in with
// renames. Readers either see the old snapshot or the new one.
func writeSnapshot(dir string, snap *snapshot) error {
	scratch := dir + ".rebuild"
	if err := os.RemoveAll(scratch); err != nil {
		return fmt.Errorf("clear scratch dir: %w", err)
	}
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}

	man := manifest{
		Model:      snap.model,
		Dimensions: snap.dim,
		Chunks:     len(snap.entries),
		BuiltAt:    snap.builtAt,
	}
	manData, err := json.Marshal(man)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(scratch, manifestFile), manData, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	records := make([]chunkRecord, len(snap.entries))
	vecData := make([]byte, 0, len(snap.entries)*snap.dim*4)
	for i, e := range snap.entries {
		records[i] = chunkRecord{
			Text:   e.chunk.Text,
			Source: e.chunk.Source,
			Page:   e.chunk.Page,
			Seq:    e.chunk.Seq,
		}
		vecData = append(vecData, vectorToBytes(e.vector)...)
	}

	chunkData, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal chunks: %w", err)
	}
	if err := os.WriteFile(filepath.Join(scratch, chunksFile), chunkData, 0o644); err != nil {
		return fmt.Errorf("write chunks: %w", err)
	}
	if err := os.WriteFile(filepath.Join(scratch, vectorsFile), vecData, 0o644); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}

	// Swap: retire the old directory, promote the scratch one.
	old := dir + ".old"
	if err := os.RemoveAll(old); err != nil {
		return fmt.Errorf("clear old dir: %w", err)
	}
	if _, err := os.Stat(dir); err == nil {
		if err := os.Rename(dir, old); err != nil {
			return fmt.Errorf("retire old index: %w", err)
		}
	}
	if err := os.Rename(scratch, dir); err != nil {
		return fmt.Errorf("promote new index: %w", err)
	}
	if err := os.RemoveAll(old); err != nil {
		return fmt.Errorf("remove old index: %w", err)
	}
	return nil
}

// readSnapshot loads a snapshot from dir. Returns (nil, nil) when no
// index has been persisted there yet.
func readSnapshot(dir string) (*snapshot, error) {
	manData, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var man manifest
	if err := json.Unmarshal(manData, &man); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	chunkData, err := os.ReadFile(filepath.Join(dir, chunksFile))
	if err != nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	var records []chunkRecord
	if err := json.Unmarshal(chunkData, &records); err != nil {
		return nil, fmt.Errorf("parse chunks: %w", err)
	}
	if len(records) != man.Chunks {
		return nil, fmt.Errorf("manifest says %d chunks, found %d", man.Chunks, len(records))
	}

	vecData, err := os.ReadFile(filepath.Join(dir, vectorsFile))
	if err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	if len(vecData) != man.Chunks*man.Dimensions*4 {
		return nil, fmt.Errorf("vector file has %d bytes, want %d",
			len(vecData), man.Chunks*man.Dimensions*4)
	}

	entries := make([]entry, len(records))
	for i, rec := range records {
		entries[i] = entry{
			chunk: domain.Chunk{
				Text:   rec.Text,
				Source: rec.Source,
				Page:   rec.Page,
				Seq:    rec.Seq,
			},
			vector: bytesToVector(vecData[i*man.Dimensions*4 : (i+1)*man.Dimensions*4]),
		}
	}

	return &snapshot{
		entries: entries,
		dim:     man.Dimensions,
		model:   man.Model,
		builtAt: man.BuiltAt,
	}, nil
}

// vectorToBytes serializes []float32 to bytes (4 bytes per float, little-endian).
func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToVector deserializes bytes back to []float32.
func bytesToVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// Package session persists conversation history. Two backends: a
// directory of JSON files and a Redis key space, selected by config.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// FileStore keeps each session as <id>.json inside a directory.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileStore creates the directory if missing.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Get loads a session by id. A missing session is an empty session,
// not an error.
func (s *FileStore) Get(_ context.Context, id string) (domain.Session, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Session{ID: id}, nil
		}
		return domain.Session{}, fmt.Errorf("read session %s: %w", id, domain.ErrPersistence)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domain.Session{}, fmt.Errorf("parse session %s: %w", id, domain.ErrPersistence)
	}
	sess.ID = id
	return sess, nil
}

// Save writes the session atomically via a temp file rename.
func (s *FileStore) Save(_ context.Context, sess domain.Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sess.ID, domain.ErrPersistence)
	}

	tmp := s.path(sess.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write session %s: %w", sess.ID, domain.ErrPersistence)
	}
	if err := os.Rename(tmp, s.path(sess.ID)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store session %s: %w", sess.ID, domain.ErrPersistence)
	}
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *FileStore) Delete(_ context.Context, id string) error {
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete session %s: %w", id, domain.ErrPersistence)
	}
	return nil
}

// List returns all session ids in lexicographic order.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", domain.ErrPersistence)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

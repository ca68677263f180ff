package session

import (
	"context"
	"path"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain"
)

// memKV is an in-memory db.KVStore for tests.
type memKV struct {
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: make(map[string][]byte)} }

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *memKV) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memKV) Scan(_ context.Context, pattern string) ([]string, error) {
	var keys []string
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func TestRedisStore_RoundTrip(t *testing.T) {
	s := NewRedisStore(newMemKV(), zap.NewNop())
	ctx := context.Background()

	sess := domain.Session{ID: "r1", Turns: []domain.Turn{{Role: "user", Content: "q"}}}
	if err := s.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Turns) != 1 || got.Turns[0].Content != "q" {
		t.Errorf("unexpected session: %+v", got)
	}
}

func TestRedisStore_GetMissingIsEmpty(t *testing.T) {
	s := NewRedisStore(newMemKV(), zap.NewNop())

	got, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get missing should not error: %v", err)
	}
	if !got.Empty() {
		t.Errorf("expected empty session, got %+v", got)
	}
}

func TestRedisStore_ListSortedAndStripped(t *testing.T) {
	s := NewRedisStore(newMemKV(), zap.NewNop())
	ctx := context.Background()

	for _, id := range []string{"zz", "aa", "mm"} {
		if err := s.Save(ctx, domain.Session{ID: id}); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	ids, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"aa", "mm", "zz"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
}

func TestRedisStore_Delete(t *testing.T) {
	kv := newMemKV()
	s := NewRedisStore(kv, zap.NewNop())
	ctx := context.Background()

	if err := s.Save(ctx, domain.Session{ID: "d1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete(ctx, "d1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(kv.data) != 0 {
		t.Errorf("expected empty store, got %v", kv.data)
	}
}

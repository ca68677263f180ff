package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain"
)

const redisKeyPrefix = "ragdex:session:"

// RedisStore keeps each session as a JSON value under a prefixed key.
type RedisStore struct {
	kv     db.KVStore
	logger *zap.Logger
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(kv db.KVStore, logger *zap.Logger) *RedisStore {
	return &RedisStore{kv: kv, logger: logger}
}

// Get loads a session by id. A missing session is an empty session,
// not an error.
func (s *RedisStore) Get(ctx context.Context, id string) (domain.Session, error) {
	data, err := s.kv.Get(ctx, redisKeyPrefix+id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
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

// Save writes the session as JSON.
func (s *RedisStore) Save(ctx context.Context, sess domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sess.ID, domain.ErrPersistence)
	}
	if err := s.kv.Set(ctx, redisKeyPrefix+sess.ID, data); err != nil {
		return fmt.Errorf("store session %s: %w", sess.ID, domain.ErrPersistence)
	}
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.kv.Del(ctx, redisKeyPrefix+id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, domain.ErrPersistence)
	}
	return nil
}

// List returns all session ids in lexicographic order.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Scan(ctx, redisKeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", domain.ErrPersistence)
	}

	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, redisKeyPrefix))
	}
	sort.Strings(ids)
	return ids, nil
}

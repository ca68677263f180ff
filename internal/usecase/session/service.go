// Package session manages conversation history on top of a pluggable
// repository.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Roles recorded per exchange.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Service handles conversation persistence.
type Service struct {
	repo   Repository
	now    func() time.Time
	logger *zap.Logger
}

// New creates a session service.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, now: time.Now, logger: logger}
}

// Record appends one question/answer exchange to a session and
// persists it. An empty id starts a new session with a fresh UUID.
// The returned session carries the id the caller should reuse.
func (s *Service) Record(ctx context.Context, id, question, answer string) (domain.Session, error) {
	if id == "" {
		id = uuid.NewString()
	}

	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}

	sess.Turns = append(sess.Turns,
		domain.Turn{Role: RoleUser, Content: question},
		domain.Turn{Role: RoleAssistant, Content: answer},
	)
	sess.Timestamp = s.now().UTC()

	if err := s.repo.Save(ctx, sess); err != nil {
		return domain.Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Get returns a session by id. Unknown ids yield an empty session.
func (s *Service) Get(ctx context.Context, id string) (domain.Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// List returns all stored session ids in lexicographic order.
func (s *Service) List(ctx context.Context) ([]string, error) {
	ids, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Delete removes a session. Unknown ids are a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Debug("session deleted", zap.String("session_id", id))
	return nil
}

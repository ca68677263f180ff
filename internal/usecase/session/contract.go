package session

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Repository is the session persistence contract.
type Repository interface {
	Get(ctx context.Context, id string) (domain.Session, error)
	Save(ctx context.Context, sess domain.Session) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}

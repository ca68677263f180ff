package chi

import (
	"time"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/usecase/health"
)

// Error codes returned in error responses.
const (
	codeBadRequest       = "bad_request"
	codeProviderFailure  = "provider_failure"
	codeIndexUnavailable = "index_unavailable"
	codeModelMismatch    = "model_mismatch"
	codePersistence      = "persistence_error"
	codeInternal         = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

type askResponse struct {
	Answer    string            `json:"answer"`
	Evidence  []domain.Evidence `json:"evidence"`
	Sources   []string          `json:"sources"`
	SessionID string            `json:"session_id,omitempty"`
	Warning   *string           `json:"warning,omitempty"`
}

type rebuildResponse struct {
	Documents  int     `json:"documents"`
	Chunks     int     `json:"chunks"`
	Tokens     int     `json:"tokens"`
	DurationMS int64   `json:"duration_ms"`
	Warning    *string `json:"warning,omitempty"`
}

type sessionListResponse struct {
	Sessions []string `json:"sessions"`
}

type sessionResponse struct {
	SessionID string        `json:"session_id"`
	Messages  []domain.Turn `json:"messages"`
	Timestamp *time.Time    `json:"timestamp,omitempty"`
}

func sessionToDTO(s domain.Session) sessionResponse {
	resp := sessionResponse{SessionID: s.ID, Messages: s.Turns}
	if resp.Messages == nil {
		resp.Messages = []domain.Turn{}
	}
	if !s.Timestamp.IsZero() {
		ts := s.Timestamp
		resp.Timestamp = &ts
	}
	return resp
}

type healthResponse struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks"`
	IndexReady  bool              `json:"index_ready"`
	IndexChunks int               `json:"index_chunks"`
	Version     string            `json:"version"`
}

func healthToDTO(r health.Report, version string) healthResponse {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return healthResponse{
		Status:      string(r.Status),
		Checks:      checks,
		IndexReady:  r.IndexReady,
		IndexChunks: r.IndexChunks,
		Version:     version,
	}
}

// Package chi exposes the HTTP API: question answering, index
// administration and session management.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/metrics"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
	"github.com/kailas-cloud/ragdex/internal/version"
)

// Answerer runs the question answering pipeline.
type Answerer interface {
	Generate(ctx context.Context, query string) (domain.Answer, error)
}

// Ingestor rebuilds the index and releases provider memory.
type Ingestor interface {
	Rebuild(ctx context.Context) (ingestuc.Stats, error)
	Unload(ctx context.Context) error
}

// SessionManager persists and serves conversation history.
type SessionManager interface {
	Record(ctx context.Context, id, question, answer string) (domain.Session, error)
	Get(ctx context.Context, id string) (domain.Session, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// Archiver streams the index snapshot as an archive.
type Archiver interface {
	Archive(w io.Writer) error
}

// HealthService aggregates component checks.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the usecases into HTTP handlers.
type Server struct {
	answers       Answerer
	ingest        Ingestor
	sessions      SessionManager
	archiver      Archiver
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	answers Answerer,
	ingest Ingestor,
	sessions SessionManager,
	archiver Archiver,
	health HealthService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		answers:  answers,
		ingest:   ingest,
		sessions: sessions,
		archiver: archiver,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrProviderFailure, http.StatusBadGateway, codeProviderFailure),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusNotFound, codeIndexUnavailable),
		sentinelHandler(domain.ErrModelMismatch, http.StatusConflict, codeModelMismatch),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusConflict, codeModelMismatch),
		sentinelHandler(domain.ErrPersistence, http.StatusInternalServerError, codePersistence),
	}
	return s
}

// Router builds the chi router with the standard middleware stack.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(apiKeys))

	r.Post("/ask", s.Ask)
	r.Post("/admin/rebuild", s.Rebuild)
	r.Post("/admin/unload", s.Unload)
	r.Get("/admin/index/archive", s.IndexArchive)
	r.Get("/sessions", s.ListSessions)
	r.Get("/sessions/{id}", s.GetSession)
	r.Delete("/sessions/{id}", s.DeleteSession)
	r.Get("/health", s.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Ask handles POST /ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "question is required")
		return
	}

	answer, err := s.answers.Generate(r.Context(), req.Question)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := askResponse{
		Answer:    answer.Answer,
		Evidence:  answer.Evidence,
		Sources:   answer.Sources,
		SessionID: req.SessionID,
	}

	// The answer is already produced; a history write failure downgrades
	// to a warning instead of failing the request.
	if s.sessions != nil {
		sess, err := s.sessions.Record(r.Context(), req.SessionID, req.Question, answer.Answer)
		if err != nil {
			s.logger.Warn("failed to record session turn", zap.Error(err))
			warning := "session history was not saved"
			resp.Warning = &warning
		} else {
			resp.SessionID = sess.ID
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Rebuild handles POST /admin/rebuild.
func (s *Server) Rebuild(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ingest.Rebuild(r.Context())

	resp := rebuildResponse{
		Documents:  stats.Documents,
		Chunks:     stats.Chunks,
		Tokens:     stats.Tokens,
		DurationMS: stats.Duration.Milliseconds(),
	}

	switch {
	case errors.Is(err, domain.ErrIngestionEmpty):
		warning := domain.ErrIngestionEmpty.Error()
		resp.Warning = &warning
	case err != nil:
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Unload handles POST /admin/unload.
func (s *Server) Unload(w http.ResponseWriter, r *http.Request) {
	if err := s.ingest.Unload(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IndexArchive handles GET /admin/index/archive. Streams the current
// snapshot as tar.gz.
func (s *Server) IndexArchive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="index.tar.gz"`)

	if err := s.archiver.Archive(w); err != nil {
		// Headers may already be sent mid-stream; only map errors that
		// happen before the first write.
		if errors.Is(err, domain.ErrIndexUnavailable) {
			w.Header().Del("Content-Disposition")
			s.handleDomainError(w, err)
			return
		}
		s.logger.Error("archive stream failed", zap.Error(err))
	}
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionListResponse{Sessions: ids})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToDTO(sess))
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthToDTO(report, version.Version))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrIngestionEmpty,
		domain.ErrIndexUnavailable,
		domain.ErrProviderFailure,
		domain.ErrPersistence,
		domain.ErrModelMismatch,
		domain.ErrVectorDimMismatch,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

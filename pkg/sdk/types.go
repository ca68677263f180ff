package ragdex

import "time"

// Evidence is the per-chunk transparency record attached to an answer.
type Evidence struct {
	ID             int     `json:"id"`
	Source         string  `json:"source"`
	Page           string  `json:"page"`
	RetrievalScore float64 `json:"retrieval_score"`
	OverlapScore   float64 `json:"overlap_score"`
}

// Answer is the response to an Ask call.
type Answer struct {
	Answer    string     `json:"answer"`
	Evidence  []Evidence `json:"evidence"`
	Sources   []string   `json:"sources"`
	SessionID string     `json:"session_id,omitempty"`
	Warning   string     `json:"warning,omitempty"`
}

// RebuildStats summarizes one index rebuild.
type RebuildStats struct {
	Documents  int     `json:"documents"`
	Chunks     int     `json:"chunks"`
	Tokens     int     `json:"tokens"`
	DurationMS int64   `json:"duration_ms"`
	Warning    *string `json:"warning,omitempty"`
}

// Turn is one conversation message.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is a stored conversation.
type Session struct {
	SessionID string     `json:"session_id"`
	Messages  []Turn     `json:"messages"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Health is the service health report.
type Health struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks"`
	IndexReady  bool              `json:"index_ready"`
	IndexChunks int               `json:"index_chunks"`
	Version     string            `json:"version"`
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

type sessionListResponse struct {
	Sessions []string `json:"sessions"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

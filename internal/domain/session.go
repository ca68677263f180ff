package domain

import "time"

// Turn is one conversation message.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Session is the persisted record of one conversation: an ordered turn
// sequence, a unique identifier and the time of the last save. Sessions
// are never deleted automatically.
type Session struct {
	ID        string    `json:"session_id"`
	Turns     []Turn    `json:"messages"`
	Timestamp time.Time `json:"timestamp"`
}

// Empty reports whether the session holds no turns.
func (s Session) Empty() bool { return len(s.Turns) == 0 }

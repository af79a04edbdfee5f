package chat

import (
	"errors"
	"time"

	"lexguard-backend/internal/llm"
)

// Mode selects the system prompt and history window for a turn.
type Mode string

const (
	ModeGeneral  Mode = "general"
	ModeGrounded Mode = "grounded"
)

var (
	ErrThreadNotFound = errors.New("thread not found")
	// ErrAnalysisNotFound covers both missing and not-owned analyses.
	ErrAnalysisNotFound = errors.New("analysis not found")
	ErrEmptyMessage     = errors.New("message is required")
	ErrMessageTooLong   = errors.New("message is too long")
)

// Thread groups the messages of one conversation.
type Thread struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	AnalysisID string    `json:"analysisId,omitempty"`
	Title      string    `json:"title"`
	IsSaved    bool      `json:"isSaved"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Message is an immutable chat entry.
type Message struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	Role      llm.Role  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn is one incoming user message.
type Turn struct {
	UserID     string
	ThreadID   string
	AnalysisID string
	Message    string
	Save       bool
}

// Reply is the outcome of a persisted turn.
type Reply struct {
	ThreadID string `json:"threadId"`
	Reply    string `json:"reply"`
	Mode     Mode   `json:"mode"`
	Model    string `json:"model,omitempty"`
}

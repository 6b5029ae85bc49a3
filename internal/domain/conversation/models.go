package conversation

import (
	"context"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry in a transcript's ordered message sequence.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Transcript is the durable log of one (user, conversation) pair.
// Messages are append-only and read back in insertion order.
type Transcript struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Repository defines the interface for transcript storage operations
type Repository interface {
	// AppendTurn upserts the transcript for (userID, conversationID) and
	// appends the user and assistant messages in one atomic update.
	AppendTurn(ctx context.Context, userID, conversationID string, userMsg, assistantMsg Message) error

	// GetTranscript returns the transcript, or nil when none exists.
	// A positive limit caps the number of trailing messages returned.
	GetTranscript(ctx context.Context, userID, conversationID string, limit int) (*Transcript, error)
}

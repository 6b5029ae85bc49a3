package memory

import (
	"context"
	"time"
)

// Record is a distilled long-term memory fact scoped to one
// (user, conversation) pair. Immutable once created.
type Record struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	ConversationID string    `json:"conversation_id"`
	Content        string    `json:"content"`
	Embedding      []float32 `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// Repository defines the interface for memory record storage
type Repository interface {
	CreateRecord(ctx context.Context, record *Record) error
}

// LLMClient is the completion surface the distiller needs.
type LLMClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Embedder is the embedding surface the distiller needs.
type Embedder interface {
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

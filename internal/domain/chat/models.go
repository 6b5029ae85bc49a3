package chat

import (
	"context"

	"github.com/campusconnect/chatbot-service/internal/domain/memory"
)

// AskRequest is one incoming chatbot question.
type AskRequest struct {
	Question       string `json:"question"`
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
}

// RetrievedChunk is a transient ranked retrieval result.
type RetrievedChunk struct {
	Content string  `json:"content"`
	Score   float32 `json:"score"`
}

// StreamEvent is one frame on the caller-facing event stream. Exactly one
// of the fields is set per frame.
type StreamEvent struct {
	Token string `json:"token,omitempty"`
	Done  bool   `json:"done,omitempty"`
	Error string `json:"error,omitempty"`
}

// Sink receives stream frames in emission order. Send returning an error
// means the caller is gone; the pipeline stops writing but keeps running.
type Sink interface {
	Send(event StreamEvent) error
}

// SearchOptions bound one approximate-nearest-neighbor query.
type SearchOptions struct {
	Limit         int
	NumCandidates int
	MinScore      float32 // 0 disables the cutoff
}

// DocumentSearcher queries the shared document corpus.
type DocumentSearcher interface {
	SearchDocuments(ctx context.Context, queryVector []float32, opts SearchOptions) ([]RetrievedChunk, error)
}

// MemorySearcher queries the memory index. Results are filtered to
// (userID, conversationID) by the store itself.
type MemorySearcher interface {
	SearchMemories(ctx context.Context, userID, conversationID string, queryVector []float32, opts SearchOptions) ([]RetrievedChunk, error)
}

// Embedder turns a question into its query vector.
type Embedder interface {
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

// Generator invokes the generative model in streaming mode, calling fn for
// each chunk as it arrives.
type Generator interface {
	Stream(ctx context.Context, system, user string, fn func(token string) error) error
}

// Distiller conditionally turns a finished turn into long-term memory.
type Distiller interface {
	ShouldDistill(answer string) bool
	SaveMemory(ctx context.Context, userID, conversationID, question, answer string) (*memory.Record, error)
}

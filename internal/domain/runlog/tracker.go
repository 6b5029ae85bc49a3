package runlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Span names recorded by the answer pipeline.
const (
	RunConversation     = "chatbot_conversation"
	RunDocumentSearch   = "document_search"
	RunMemorySearch     = "memory_search"
	RunModelResponse    = "model_response"
	RunSaveConversation = "save_conversation"
)

// Run is one observational record of a pipeline stage. A root run has an
// empty ParentID; children reference it. Runs never gate pipeline
// correctness.
type Run struct {
	ID             string     `json:"id"`
	ParentID       string     `json:"parent_id,omitempty"`
	Name           string     `json:"name"`
	UserID         string     `json:"user_id,omitempty"`
	ConversationID string     `json:"conversation_id,omitempty"`
	Question       string     `json:"question,omitempty"`
	Output         string     `json:"output,omitempty"`
	Error          string     `json:"error,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
}

// Store persists run records.
type Store interface {
	CreateRun(ctx context.Context, run *Run) error
	FinishRun(ctx context.Context, id, output, runErr string, endedAt time.Time) error
}

// Meta carries the correlation fields attached to a run at start time.
// Passing it explicitly through the call chain replaces any shared map of
// in-flight run ids.
type Meta struct {
	ParentID       string
	UserID         string
	ConversationID string
	Question       string
}

// Tracker records pipeline spans. Every method is best-effort: store
// failures are logged and swallowed, and a disabled tracker is a no-op.
type Tracker struct {
	store   Store
	enabled bool
	timeout time.Duration
}

// NewTracker creates a run tracker. A nil store disables tracking.
func NewTracker(store Store, enabled bool) *Tracker {
	return &Tracker{
		store:   store,
		enabled: enabled && store != nil,
		timeout: 5 * time.Second,
	}
}

// Enabled reports whether spans are being recorded.
func (t *Tracker) Enabled() bool {
	return t.enabled
}

// StartRun opens a span and returns its id, or "" when tracking is off or
// the write failed.
func (t *Tracker) StartRun(ctx context.Context, name string, meta Meta) string {
	if !t.enabled {
		return ""
	}

	run := &Run{
		ID:             uuid.NewString(),
		ParentID:       meta.ParentID,
		Name:           name,
		UserID:         meta.UserID,
		ConversationID: meta.ConversationID,
		Question:       meta.Question,
		StartedAt:      time.Now(),
	}

	// Detached from the request context so a client disconnect cannot
	// abort the write mid-flight.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
	defer cancel()

	if err := t.store.CreateRun(writeCtx, run); err != nil {
		log.Warn().Err(err).Str("run", name).Msg("Failed to record run start")
		return ""
	}

	return run.ID
}

// EndRun closes a span, recording output or error state. A "" id is a no-op.
func (t *Tracker) EndRun(ctx context.Context, id, output string, runErr error) {
	if !t.enabled || id == "" {
		return
	}

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
	defer cancel()

	if err := t.store.FinishRun(writeCtx, id, output, errMsg, time.Now()); err != nil {
		log.Warn().Err(err).Str("run_id", id).Msg("Failed to record run end")
	}
}

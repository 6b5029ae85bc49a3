package dbschema

import (
	"time"

	"github.com/campusconnect/chatbot-service/internal/domain/memory"
)

type MemoryRecord struct {
	ID             string    `db:"id"`
	UserID         string    `db:"user_id"`
	ConversationID string    `db:"conversation_id"`
	Content        string    `db:"content"`
	Embedding      []float32 `db:"embedding"`
	CreatedAt      time.Time `db:"created_at"`
}

func NewSchemaMemoryRecord(d *memory.Record) *MemoryRecord {
	if d == nil {
		return nil
	}

	return &MemoryRecord{
		ID:             d.ID,
		UserID:         d.UserID,
		ConversationID: d.ConversationID,
		Content:        d.Content,
		Embedding:      d.Embedding,
		CreatedAt:      d.CreatedAt,
	}
}

func (s *MemoryRecord) EtoD() *memory.Record {
	if s == nil {
		return nil
	}

	return &memory.Record{
		ID:             s.ID,
		UserID:         s.UserID,
		ConversationID: s.ConversationID,
		Content:        s.Content,
		Embedding:      s.Embedding,
		CreatedAt:      s.CreatedAt,
	}
}

package dbschema

import (
	"time"

	"github.com/campusconnect/chatbot-service/internal/domain/document"
)

type DocumentChunk struct {
	ID        string    `db:"id"`
	Source    string    `db:"source"`
	Content   string    `db:"content"`
	Embedding []float32 `db:"embedding"`
	CreatedAt time.Time `db:"created_at"`
}

func NewSchemaDocumentChunk(d *document.Chunk) *DocumentChunk {
	if d == nil {
		return nil
	}

	return &DocumentChunk{
		ID:        d.ID,
		Source:    d.Source,
		Content:   d.Content,
		Embedding: d.Embedding,
		CreatedAt: d.CreatedAt,
	}
}

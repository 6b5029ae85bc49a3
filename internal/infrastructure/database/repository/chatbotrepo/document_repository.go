package chatbotrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusconnect/chatbot-service/internal/domain/document"
	"github.com/campusconnect/chatbot-service/internal/infrastructure/database/dbschema"
)

func (r *Repository) CreateChunks(ctx context.Context, chunks []document.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	rows := make([]map[string]any, 0, len(chunks))
	for i := range chunks {
		chunk := &chunks[i]
		if chunk.ID == "" {
			chunk.ID = uuid.New().String()
		}
		if chunk.CreatedAt.IsZero() {
			chunk.CreatedAt = time.Now()
		}

		schema := dbschema.NewSchemaDocumentChunk(chunk)
		rows = append(rows, map[string]any{
			"id":         schema.ID,
			"source":     schema.Source,
			"content":    schema.Content,
			"embedding":  embeddingToString(schema.Embedding),
			"created_at": schema.CreatedAt,
		})
	}

	if err := r.db.WithContext(ctx).
		Table("document_chunks").
		Create(rows).Error; err != nil {
		return fmt.Errorf("create document chunks: %w", err)
	}

	return nil
}

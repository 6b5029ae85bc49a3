package chatbotrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusconnect/chatbot-service/internal/domain/memory"
	"github.com/campusconnect/chatbot-service/internal/infrastructure/database/dbschema"
)

func (r *Repository) CreateRecord(ctx context.Context, record *memory.Record) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	schema := dbschema.NewSchemaMemoryRecord(record)

	if err := r.db.WithContext(ctx).
		Table("memory_records").
		Create(map[string]any{
			"id":              schema.ID,
			"user_id":         schema.UserID,
			"conversation_id": schema.ConversationID,
			"content":         schema.Content,
			"embedding":       embeddingToString(schema.Embedding),
			"created_at":      schema.CreatedAt,
		}).Error; err != nil {
		return fmt.Errorf("create memory record: %w", err)
	}

	return nil
}

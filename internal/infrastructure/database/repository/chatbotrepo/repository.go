package chatbotrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/campusconnect/chatbot-service/internal/domain/conversation"
	"github.com/campusconnect/chatbot-service/internal/domain/dedup"
	"github.com/campusconnect/chatbot-service/internal/domain/document"
	"github.com/campusconnect/chatbot-service/internal/domain/memory"
	"github.com/campusconnect/chatbot-service/internal/domain/runlog"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// helper converts embeddings to pgvector literal.
func embeddingToString(embedding []float32) string {
	if len(embedding) == 0 {
		return "[]"
	}

	parts := make([]string, len(embedding))
	for i, val := range embedding {
		parts[i] = fmt.Sprintf("%f", val)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// helper parses a pgvector literal back to []float32.
func stringToEmbedding(s string) ([]float32, error) {
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	if s == "" {
		return []float32{}, nil
	}

	parts := strings.Split(s, ",")
	embedding := make([]float32, len(parts))

	for i, part := range parts {
		var val float32
		_, err := fmt.Sscanf(strings.TrimSpace(part), "%f", &val)
		if err != nil {
			return nil, fmt.Errorf("parse embedding value: %w", err)
		}
		embedding[i] = val
	}

	return embedding, nil
}

// ensure interfaces are implemented
var _ conversation.Repository = (*Repository)(nil)
var _ memory.Repository = (*Repository)(nil)
var _ document.Repository = (*Repository)(nil)
var _ dedup.Repository = (*Repository)(nil)
var _ runlog.Store = (*Repository)(nil)

var _ interface {
	ListRootRuns(ctx context.Context, from, to time.Time) ([]runlog.Run, error)
} = (*Repository)(nil)

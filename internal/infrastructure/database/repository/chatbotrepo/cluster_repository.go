package chatbotrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusconnect/chatbot-service/internal/domain/dedup"
	"github.com/campusconnect/chatbot-service/internal/infrastructure/database/dbschema"
)

// ListClusters returns the full catalog in creation order. The dedup
// pass depends on that order being stable between calls.
func (r *Repository) ListClusters(ctx context.Context) ([]dedup.Cluster, error) {
	var rows []dbschema.QuestionCluster
	if err := r.db.WithContext(ctx).
		Table("question_clusters").
		Select(`id, question, embedding::text AS embedding, "count", created_at, updated_at`).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query clusters: %w", err)
	}

	clusters := make([]dedup.Cluster, 0, len(rows))
	for _, row := range rows {
		embedding, err := stringToEmbedding(row.Embedding)
		if err != nil {
			return nil, fmt.Errorf("decode cluster %s: %w", row.ID, err)
		}
		clusters = append(clusters, *row.EtoD(embedding))
	}

	return clusters, nil
}

func (r *Repository) CreateCluster(ctx context.Context, question string, embedding []float32) (*dedup.Cluster, error) {
	now := time.Now()
	cluster := &dedup.Cluster{
		ID:        uuid.New().String(),
		Question:  question,
		Embedding: embedding,
		Count:     1,
		UpdatedAt: now,
	}

	if err := r.db.WithContext(ctx).
		Table("question_clusters").
		Create(map[string]any{
			"id":         cluster.ID,
			"question":   cluster.Question,
			"embedding":  embeddingToString(embedding),
			"count":      cluster.Count,
			"created_at": now,
			"updated_at": now,
		}).Error; err != nil {
		return nil, fmt.Errorf("create cluster: %w", err)
	}

	return cluster, nil
}

func (r *Repository) IncrementCluster(ctx context.Context, clusterID string) error {
	result := r.db.WithContext(ctx).
		Exec(`UPDATE question_clusters SET "count" = "count" + 1, updated_at = ? WHERE id = ?`, time.Now(), clusterID)
	if result.Error != nil {
		return fmt.Errorf("increment cluster: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("cluster not found")
	}
	return nil
}

// TopClusters returns the largest clusters, most recently updated first
// among equal counts.
func (r *Repository) TopClusters(ctx context.Context, limit int) ([]dedup.Cluster, error) {
	var rows []dbschema.QuestionCluster
	if err := r.db.WithContext(ctx).
		Table("question_clusters").
		Select(`id, question, embedding::text AS embedding, "count", created_at, updated_at`).
		Order(`"count" DESC, updated_at DESC`).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query top clusters: %w", err)
	}

	clusters := make([]dedup.Cluster, 0, len(rows))
	for _, row := range rows {
		embedding, err := stringToEmbedding(row.Embedding)
		if err != nil {
			return nil, fmt.Errorf("decode cluster %s: %w", row.ID, err)
		}
		clusters = append(clusters, *row.EtoD(embedding))
	}

	return clusters, nil
}

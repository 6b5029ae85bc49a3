package dbschema

import (
	"time"

	"github.com/campusconnect/chatbot-service/internal/domain/dedup"
)

type QuestionCluster struct {
	ID        string    `db:"id"`
	Question  string    `db:"question"`
	Embedding string    `db:"embedding"`
	Count     int       `db:"count"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s *QuestionCluster) EtoD(embedding []float32) *dedup.Cluster {
	if s == nil {
		return nil
	}

	return &dedup.Cluster{
		ID:        s.ID,
		Question:  s.Question,
		Embedding: embedding,
		Count:     s.Count,
		UpdatedAt: s.UpdatedAt,
	}
}

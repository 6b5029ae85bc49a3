package dbschema

import (
	"time"

	"github.com/campusconnect/chatbot-service/internal/domain/runlog"
)

type ChatbotRun struct {
	ID             string     `db:"id"`
	ParentID       *string    `db:"parent_id"`
	Name           string     `db:"name"`
	UserID         string     `db:"user_id"`
	ConversationID string     `db:"conversation_id"`
	Question       string     `db:"question"`
	Output         string     `db:"output"`
	Error          string     `db:"error"`
	StartedAt      time.Time  `db:"started_at"`
	EndedAt        *time.Time `db:"ended_at"`
}

func NewSchemaChatbotRun(d *runlog.Run) *ChatbotRun {
	if d == nil {
		return nil
	}

	var parentID *string
	if d.ParentID != "" {
		parentID = &d.ParentID
	}

	return &ChatbotRun{
		ID:             d.ID,
		ParentID:       parentID,
		Name:           d.Name,
		UserID:         d.UserID,
		ConversationID: d.ConversationID,
		Question:       d.Question,
		Output:         d.Output,
		Error:          d.Error,
		StartedAt:      d.StartedAt,
		EndedAt:        d.EndedAt,
	}
}

func (s *ChatbotRun) EtoD() *runlog.Run {
	if s == nil {
		return nil
	}

	var parentID string
	if s.ParentID != nil {
		parentID = *s.ParentID
	}

	return &runlog.Run{
		ID:             s.ID,
		ParentID:       parentID,
		Name:           s.Name,
		UserID:         s.UserID,
		ConversationID: s.ConversationID,
		Question:       s.Question,
		Output:         s.Output,
		Error:          s.Error,
		StartedAt:      s.StartedAt,
		EndedAt:        s.EndedAt,
	}
}

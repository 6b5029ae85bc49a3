package dbschema

import (
	"encoding/json"
	"time"

	"github.com/campusconnect/chatbot-service/internal/domain/conversation"
)

type ConversationTranscript struct {
	ID             string    `db:"id"`
	UserID         string    `db:"user_id"`
	ConversationID string    `db:"conversation_id"`
	Messages       []byte    `db:"messages"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func NewSchemaConversationTranscript(d *conversation.Transcript) (*ConversationTranscript, error) {
	if d == nil {
		return nil, nil
	}

	messages, err := json.Marshal(d.Messages)
	if err != nil {
		return nil, err
	}

	return &ConversationTranscript{
		ID:             d.ID,
		UserID:         d.UserID,
		ConversationID: d.ConversationID,
		Messages:       messages,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}, nil
}

func (s *ConversationTranscript) EtoD() (*conversation.Transcript, error) {
	if s == nil {
		return nil, nil
	}

	var messages []conversation.Message
	if len(s.Messages) > 0 {
		if err := json.Unmarshal(s.Messages, &messages); err != nil {
			return nil, err
		}
	}

	return &conversation.Transcript{
		ID:             s.ID,
		UserID:         s.UserID,
		ConversationID: s.ConversationID,
		Messages:       messages,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}, nil
}

package chatbotrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusconnect/chatbot-service/internal/domain/conversation"
	"github.com/campusconnect/chatbot-service/internal/infrastructure/database/dbschema"
)

// AppendTurn appends the user/assistant pair to the transcript in one
// statement. The jsonb concat in the conflict branch keeps concurrent
// appends to the same conversation atomic.
func (r *Repository) AppendTurn(ctx context.Context, userID, conversationID string, userMsg, assistantMsg conversation.Message) error {
	payload, err := json.Marshal([]conversation.Message{userMsg, assistantMsg})
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO conversation_transcripts (id, user_id, conversation_id, messages, created_at, updated_at)
		VALUES (?, ?, ?, ?::jsonb, ?, ?)
		ON CONFLICT (user_id, conversation_id) DO UPDATE SET
			messages = conversation_transcripts.messages || EXCLUDED.messages,
			updated_at = EXCLUDED.updated_at
	`

	if err := r.db.WithContext(ctx).
		Exec(query, uuid.New().String(), userID, conversationID, string(payload), now, now).Error; err != nil {
		return fmt.Errorf("append turn: %w", err)
	}

	return nil
}

// GetTranscript returns the conversation transcript, keeping only the
// trailing limit messages when limit > 0. Returns nil when no transcript
// exists yet.
func (r *Repository) GetTranscript(ctx context.Context, userID, conversationID string, limit int) (*conversation.Transcript, error) {
	var row dbschema.ConversationTranscript
	err := r.db.WithContext(ctx).
		Table("conversation_transcripts").
		Where("user_id = ? AND conversation_id = ?", userID, conversationID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}

	transcript, err := row.EtoD()
	if err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}

	if limit > 0 && len(transcript.Messages) > limit {
		transcript.Messages = transcript.Messages[len(transcript.Messages)-limit:]
	}

	return transcript, nil
}

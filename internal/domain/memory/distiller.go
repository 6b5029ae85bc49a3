package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

const summarizeInstruction = `You summarize one question-and-answer exchange into a single sentence.
Capture what was asked and what was answered. Return only that sentence, with no extra commentary.`

// Distiller condenses a completed turn into a compact memory fact and
// appends it to the memory store.
type Distiller struct {
	repo            Repository
	llm             LLMClient
	embedder        Embedder
	minAnswerLength int
}

// NewDistiller creates a new memory distiller
func NewDistiller(repo Repository, llm LLMClient, embedder Embedder, minAnswerLength int) *Distiller {
	if minAnswerLength <= 0 {
		minAnswerLength = 50
	}

	return &Distiller{
		repo:            repo,
		llm:             llm,
		embedder:        embedder,
		minAnswerLength: minAnswerLength,
	}
}

// ShouldDistill reports whether an answer is long enough to be worth
// keeping. Short answers are skipped so the memory store stays
// signal-dense.
func (d *Distiller) ShouldDistill(answer string) bool {
	return len(answer) > d.minAnswerLength
}

// Summarize produces the one-sentence summary of a turn.
func (d *Distiller) Summarize(ctx context.Context, question, answer string) (string, error) {
	turnText := fmt.Sprintf("Question: %s\nAnswer: %s", question, answer)

	summary, err := d.llm.Complete(ctx, summarizeInstruction, turnText)
	if err != nil {
		return "", fmt.Errorf("summarize turn: %w", err)
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", fmt.Errorf("summarize turn: empty summary")
	}

	return summary, nil
}

// SaveMemory summarizes the turn, embeds the summary, and appends a
// memory record for (userID, conversationID).
func (d *Distiller) SaveMemory(ctx context.Context, userID, conversationID, question, answer string) (*Record, error) {
	summary, err := d.Summarize(ctx, question, answer)
	if err != nil {
		return nil, err
	}

	vector, err := d.embedder.EmbedSingle(ctx, summary)
	if err != nil {
		return nil, fmt.Errorf("embed summary: %w", err)
	}

	record := &Record{
		UserID:         userID,
		ConversationID: conversationID,
		Content:        summary,
		Embedding:      vector,
	}

	if err := d.repo.CreateRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("create memory record: %w", err)
	}

	log.Debug().
		Str("user_id", userID).
		Str("conversation_id", conversationID).
		Str("summary", summary).
		Msg("Memory record distilled")

	return record, nil
}

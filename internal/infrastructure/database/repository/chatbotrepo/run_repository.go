package chatbotrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/campusconnect/chatbot-service/internal/domain/dedup"
	"github.com/campusconnect/chatbot-service/internal/domain/runlog"
	"github.com/campusconnect/chatbot-service/internal/infrastructure/database/dbschema"
)

func (r *Repository) CreateRun(ctx context.Context, run *runlog.Run) error {
	schema := dbschema.NewSchemaChatbotRun(run)

	if err := r.db.WithContext(ctx).
		Table("chatbot_runs").
		Create(map[string]any{
			"id":              schema.ID,
			"parent_id":       schema.ParentID,
			"name":            schema.Name,
			"user_id":         schema.UserID,
			"conversation_id": schema.ConversationID,
			"question":        schema.Question,
			"output":          schema.Output,
			"error":           schema.Error,
			"started_at":      schema.StartedAt,
		}).Error; err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	return nil
}

func (r *Repository) FinishRun(ctx context.Context, id, output, runErr string, endedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Table("chatbot_runs").
		Where("id = ?", id).
		Updates(map[string]any{
			"output":   output,
			"error":    runErr,
			"ended_at": endedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("finish run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("run not found")
	}
	return nil
}

// ListRootRuns returns finished top-level conversation runs started
// inside [from, to).
func (r *Repository) ListRootRuns(ctx context.Context, from, to time.Time) ([]runlog.Run, error) {
	var rows []dbschema.ChatbotRun
	if err := r.db.WithContext(ctx).
		Table("chatbot_runs").
		Where("name = ? AND parent_id IS NULL AND started_at >= ? AND started_at < ?", runlog.RunConversation, from, to).
		Order("started_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query root runs: %w", err)
	}

	runs := make([]runlog.Run, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, *row.EtoD())
	}

	return runs, nil
}

// ListUnprocessedRuns returns finished root runs the dedup pass has not
// claimed yet, oldest first.
func (r *Repository) ListUnprocessedRuns(ctx context.Context, limit int) ([]dedup.RunRef, error) {
	query := `
		SELECT r.id, r.question
		FROM chatbot_runs r
		LEFT JOIN processed_runs p ON p.run_id = r.id
		WHERE r.name = ? AND r.parent_id IS NULL AND r.ended_at IS NOT NULL AND p.run_id IS NULL
		ORDER BY r.started_at ASC
		LIMIT ?
	`

	var rows []struct {
		ID       string `db:"id"`
		Question string `db:"question"`
	}
	if err := r.db.WithContext(ctx).
		Raw(query, runlog.RunConversation, limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query unprocessed runs: %w", err)
	}

	refs := make([]dedup.RunRef, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, dedup.RunRef{ID: row.ID, Question: row.Question})
	}

	return refs, nil
}

// MarkRunProcessed claims the run for dedup. The conflict clause makes a
// replayed claim report false instead of failing.
func (r *Repository) MarkRunProcessed(ctx context.Context, runID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Exec(`INSERT INTO processed_runs (run_id, processed_at) VALUES (?, ?) ON CONFLICT (run_id) DO NOTHING`, runID, time.Now())
	if result.Error != nil {
		return false, fmt.Errorf("mark run processed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UnmarkRun releases a claimed run after a failed dedup attempt.
func (r *Repository) UnmarkRun(ctx context.Context, runID string) error {
	if err := r.db.WithContext(ctx).
		Exec(`DELETE FROM processed_runs WHERE run_id = ?`, runID).Error; err != nil {
		return fmt.Errorf("unmark run: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusconnect/chatbot-service/internal/domain/chat"
)

// VectorSearcher answers nearest-neighbour queries over the pgvector
// indexes backing document chunks and distilled memories.
type VectorSearcher struct {
	db *pgxpool.Pool
}

func NewVectorSearcher(db *pgxpool.Pool) *VectorSearcher {
	return &VectorSearcher{db: db}
}

// ensure interfaces are implemented
var _ chat.DocumentSearcher = (*VectorSearcher)(nil)
var _ chat.MemorySearcher = (*VectorSearcher)(nil)

// Helper function to convert []float32 to pgvector format string
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

func (s *VectorSearcher) SearchDocuments(ctx context.Context, queryVector []float32, opts chat.SearchOptions) ([]chat.RetrievedChunk, error) {
	query := `
		SELECT content, 1 - (embedding <=> $1::vector) AS similarity
		FROM document_chunks
	`
	args := []any{embeddingToString(queryVector)}

	if opts.MinScore > 0 {
		query += ` WHERE 1 - (embedding <=> $1::vector) >= $2`
		args = append(args, opts.MinScore)
	}
	query += fmt.Sprintf(`
		ORDER BY embedding <=> $1::vector
		LIMIT $%d
	`, len(args)+1)
	args = append(args, opts.Limit)

	return s.search(ctx, query, args, opts.NumCandidates)
}

func (s *VectorSearcher) SearchMemories(ctx context.Context, userID, conversationID string, queryVector []float32, opts chat.SearchOptions) ([]chat.RetrievedChunk, error) {
	query := `
		SELECT content, 1 - (embedding <=> $1::vector) AS similarity
		FROM memory_records
		WHERE user_id = $2 AND conversation_id = $3
	`
	args := []any{embeddingToString(queryVector), userID, conversationID}

	if opts.MinScore > 0 {
		query += ` AND 1 - (embedding <=> $1::vector) >= $4`
		args = append(args, opts.MinScore)
	}
	query += fmt.Sprintf(`
		ORDER BY embedding <=> $1::vector
		LIMIT $%d
	`, len(args)+1)
	args = append(args, opts.Limit)

	return s.search(ctx, query, args, opts.NumCandidates)
}

// search runs the query inside a transaction so the HNSW candidate pool
// can be widened for this statement only.
func (s *VectorSearcher) search(ctx context.Context, query string, args []any, numCandidates int) ([]chat.RetrievedChunk, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin search tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if numCandidates > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", numCandidates)); err != nil {
			return nil, fmt.Errorf("set ef_search: %w", err)
		}
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var chunks []chat.RetrievedChunk
	for rows.Next() {
		var chunk chat.RetrievedChunk
		if err := rows.Scan(&chunk.Content, &chunk.Score); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read search results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit search tx: %w", err)
	}
	return chunks, nil
}

package document

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/campusconnect/chatbot-service/internal/domain/chat"
)

// Chunk is one embedded slice of an ingested document.
type Chunk struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists document chunks.
type Repository interface {
	CreateChunks(ctx context.Context, chunks []Chunk) error
}

// Embedder turns chunk texts into vectors, one per input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

// Config bounds chunking and standalone search.
type Config struct {
	ChunkSize     int
	ChunkOverlap  int
	SearchK       int
	NumCandidates int
	MinScore      float32
}

func (c Config) withDefaults() Config {
	if c.ChunkSize == 0 {
		c.ChunkSize = 500
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 50
	}
	if c.SearchK == 0 {
		c.SearchK = 5
	}
	if c.NumCandidates == 0 {
		c.NumCandidates = 100
	}
	return c
}

// Service ingests reference documents into the vector store and answers
// standalone similarity queries over them.
type Service struct {
	repo     Repository
	embedder Embedder
	searcher chat.DocumentSearcher
	cfg      Config
}

// NewService creates a new document service
func NewService(repo Repository, embedder Embedder, searcher chat.DocumentSearcher, cfg Config) *Service {
	return &Service{
		repo:     repo,
		embedder: embedder,
		searcher: searcher,
		cfg:      cfg.withDefaults(),
	}
}

// Ingest chunks the document, embeds every chunk in one batch and stores
// the results. Returns the number of chunks written.
func (s *Service) Ingest(ctx context.Context, source, content string) (int, error) {
	if strings.TrimSpace(content) == "" {
		return 0, fmt.Errorf("empty document content")
	}

	texts := SplitText(content, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if len(texts) == 0 {
		return 0, fmt.Errorf("document produced no chunks")
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("embedding count mismatch: got %d vectors for %d chunks", len(vectors), len(texts))
	}

	now := time.Now()
	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = Chunk{
			Source:    source,
			Content:   text,
			Embedding: vectors[i],
			CreatedAt: now,
		}
	}

	if err := s.repo.CreateChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}

	log.Info().
		Str("source", source).
		Int("chunks", len(chunks)).
		Msg("Document ingested")
	return len(chunks), nil
}

// Search embeds the query and returns the nearest document chunks with
// their similarity scores.
func (s *Service) Search(ctx context.Context, query string) ([]chat.RetrievedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query")
	}

	vector, err := s.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	return s.searcher.SearchDocuments(ctx, vector, chat.SearchOptions{
		Limit:         s.cfg.SearchK,
		NumCandidates: s.cfg.NumCandidates,
		MinScore:      s.cfg.MinScore,
	})
}

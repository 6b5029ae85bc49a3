package dedup

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/campusconnect/chatbot-service/internal/domain/similarity"
	"github.com/campusconnect/chatbot-service/internal/metrics"
)

// Config bounds the dedup pass.
type Config struct {
	// MergeThreshold is the cosine similarity a question must exceed to
	// join an existing cluster. At or below it, the question seeds a new
	// cluster.
	MergeThreshold float32
	// TopN caps the cluster count returned by TopQuestions.
	TopN int
	// BatchSize caps how many runs one ProcessBatch pass claims.
	BatchSize int
	// LockName is the distributed lock guarding catalog mutations.
	LockName string
}

func (c Config) withDefaults() Config {
	if c.MergeThreshold == 0 {
		c.MergeThreshold = 0.85
	}
	if c.TopN == 0 {
		c.TopN = 10
	}
	if c.BatchSize == 0 {
		c.BatchSize = 500
	}
	if c.LockName == "" {
		c.LockName = "chatbot:dedup:catalog"
	}
	return c
}

// Service folds recorded questions into clusters of near-duplicates.
type Service struct {
	repo     Repository
	embedder Embedder
	locker   Locker
	cfg      Config
}

// NewService creates a new dedup service
func NewService(repo Repository, embedder Embedder, locker Locker, cfg Config) *Service {
	if locker == nil {
		locker = NoopLocker{}
	}
	return &Service{
		repo:     repo,
		embedder: embedder,
		locker:   locker,
		cfg:      cfg.withDefaults(),
	}
}

// Process merges one question into the catalog. The first cluster whose
// similarity strictly exceeds the threshold wins, in catalog order;
// otherwise the question seeds a new cluster. Returns the affected
// cluster and whether it was newly created.
func (s *Service) Process(ctx context.Context, question string) (*Cluster, bool, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, false, fmt.Errorf("empty question")
	}

	vector, err := s.embedder.EmbedSingle(ctx, question)
	if err != nil {
		return nil, false, fmt.Errorf("embed question: %w", err)
	}

	var (
		cluster *Cluster
		created bool
	)
	err = s.locker.WithLock(ctx, s.cfg.LockName, func(ctx context.Context) error {
		cluster, created, err = s.mergeOrCreate(ctx, question, vector)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		metrics.RecordDedup("create")
	} else {
		metrics.RecordDedup("merge")
	}
	return cluster, created, nil
}

func (s *Service) mergeOrCreate(ctx context.Context, question string, vector []float32) (*Cluster, bool, error) {
	clusters, err := s.repo.ListClusters(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("list clusters: %w", err)
	}

	for i := range clusters {
		score := similarity.Cosine(vector, clusters[i].Embedding)
		if score > s.cfg.MergeThreshold {
			if err := s.repo.IncrementCluster(ctx, clusters[i].ID); err != nil {
				return nil, false, fmt.Errorf("increment cluster: %w", err)
			}

			log.Debug().
				Str("cluster_id", clusters[i].ID).
				Float32("similarity", score).
				Msg("Merged question into existing cluster")
			return &clusters[i], false, nil
		}
	}

	cluster, err := s.repo.CreateCluster(ctx, question, vector)
	if err != nil {
		return nil, false, fmt.Errorf("create cluster: %w", err)
	}

	log.Debug().Str("cluster_id", cluster.ID).Msg("Created new question cluster")
	return cluster, true, nil
}

// ProcessBatch claims up to BatchSize unprocessed runs and folds each into
// the catalog. A run is marked before processing so a replayed batch skips
// it, keeping cluster counts stable across retries; a run whose processing
// fails is released again so the next batch picks it up. Returns how many
// runs this pass actually processed.
func (s *Service) ProcessBatch(ctx context.Context) (int, error) {
	runs, err := s.repo.ListUnprocessedRuns(ctx, s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list unprocessed runs: %w", err)
	}
	if len(runs) == 0 {
		return 0, nil
	}

	processed := 0
	for _, run := range runs {
		claimed, err := s.repo.MarkRunProcessed(ctx, run.ID)
		if err != nil {
			return processed, fmt.Errorf("mark run %s processed: %w", run.ID, err)
		}
		if !claimed {
			continue
		}

		if _, _, err := s.Process(ctx, run.Question); err != nil {
			log.Error().Err(err).
				Str("run_id", run.ID).
				Msg("Failed to dedup question")

			// Release the claim so a later batch retries the run.
			if unmarkErr := s.repo.UnmarkRun(ctx, run.ID); unmarkErr != nil {
				log.Error().Err(unmarkErr).
					Str("run_id", run.ID).
					Msg("Failed to release run for retry")
			}
			continue
		}
		processed++
	}

	log.Info().
		Int("runs", len(runs)).
		Int("processed", processed).
		Msg("Dedup batch finished")
	return processed, nil
}

// TopQuestions returns the largest clusters, ordered by count descending
// with the most recently updated first among ties.
func (s *Service) TopQuestions(ctx context.Context, limit int) ([]Cluster, error) {
	if limit <= 0 || limit > s.cfg.TopN {
		limit = s.cfg.TopN
	}
	return s.repo.TopClusters(ctx, limit)
}

package dedup

import (
	"context"
	"time"
)

// Cluster groups near-duplicate questions behind one canonical phrasing.
type Cluster struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Embedding []float32 `json:"-"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunRef identifies one recorded conversation run awaiting dedup.
type RunRef struct {
	ID       string
	Question string
}

// Repository persists question clusters and the processed-run markers.
type Repository interface {
	ListClusters(ctx context.Context) ([]Cluster, error)
	CreateCluster(ctx context.Context, question string, embedding []float32) (*Cluster, error)
	IncrementCluster(ctx context.Context, clusterID string) error
	TopClusters(ctx context.Context, limit int) ([]Cluster, error)

	ListUnprocessedRuns(ctx context.Context, limit int) ([]RunRef, error)
	// MarkRunProcessed records the run as handled. It reports false when a
	// previous batch already claimed the run.
	MarkRunProcessed(ctx context.Context, runID string) (bool, error)
	// UnmarkRun drops the processed marker so the run can be claimed again.
	UnmarkRun(ctx context.Context, runID string) error
}

// Embedder produces the question vector compared against cluster centroids.
type Embedder interface {
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

// Locker serializes catalog mutations across service instances.
type Locker interface {
	WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// NoopLocker runs fn directly. Used when no distributed lock is configured.
type NoopLocker struct{}

func (NoopLocker) WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

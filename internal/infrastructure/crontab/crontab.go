package crontab

import (
	"context"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog/log"

	"github.com/campusconnect/chatbot-service/internal/domain/dedup"
)

// CronJobTimeout bounds each scheduled batch execution.
const CronJobTimeout = 10 * time.Minute

type Crontab struct {
	ctab     *crontab.Crontab
	dedup    *dedup.Service
	cronSpec string
}

func NewCrontab(dedupService *dedup.Service, cronSpec string) *Crontab {
	return &Crontab{
		ctab:     crontab.New(),
		dedup:    dedupService,
		cronSpec: cronSpec,
	}
}

// Run executes one dedup batch immediately, then keeps running it on the
// configured schedule until ctx is cancelled.
func (c *Crontab) Run(ctx context.Context) error {
	c.runDedupBatch(ctx)

	if c.cronSpec != "" {
		if err := c.ctab.AddJob(c.cronSpec, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
			defer cancel()
			c.runDedupBatch(jobCtx)
		}); err != nil {
			return err
		}
		log.Info().Str("schedule", c.cronSpec).Msg("Dedup batch scheduled")
	}

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

func (c *Crontab) runDedupBatch(ctx context.Context) {
	processed, err := c.dedup.ProcessBatch(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduled dedup batch failed")
		return
	}
	if processed > 0 {
		log.Info().Int("processed", processed).Msg("Scheduled dedup batch completed")
	}
}

package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"gatepass/internal/domain/ports/repository"
	"gatepass/internal/infra/metrics"
)

// CleanupWorker periodically removes passes whose expiry lies further in the
// past than the retention window, keeping the registry from growing unbounded.
type CleanupWorker struct {
	interval  time.Duration
	retention time.Duration
	passes    repository.PassRepository
	log       *zerolog.Logger
}

func NewCleanupWorker(interval, retention time.Duration, passes repository.PassRepository, logger *zerolog.Logger) *CleanupWorker {
	cwLog := logger.With().Str("component", "CleanupWorker").Logger()
	return &CleanupWorker{
		interval:  interval,
		retention: retention,
		passes:    passes,
		log:       &cwLog,
	}
}

func (w *CleanupWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("retention", w.retention).Msg("Starting cleanup worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping cleanup worker")
			return ctx.Err()
		case <-ticker.C:
			cutoff := time.Now().Add(-w.retention)
			n, err := w.passes.PurgeExpiredBefore(ctx, repository.NoTX, cutoff)
			if err != nil {
				w.log.Error().Err(err).Msg("cleanup worker error")
				continue
			}
			if n > 0 {
				metrics.IncPassesPurged(n)
				w.log.Info().Int64("count", n).Time("cutoff", cutoff).Msg("expired passes purged")
			}
		}
	}
}

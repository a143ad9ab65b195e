package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// ProductSyncer refreshes the product snapshot once.
type ProductSyncer interface {
	SyncProducts(ctx context.Context) error
}

// SyncWorker periodically re-fetches the product document so edits made
// outside this process show up in the catalog.
type SyncWorker struct {
	syncer   ProductSyncer
	interval time.Duration
}

// NewSyncWorker constructs a SyncWorker.
func NewSyncWorker(syncer ProductSyncer, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		syncer:   syncer,
		interval: interval,
	}
}

// Start begins the periodic sync loop and listens for context cancellation.
// The first sync is left to the caller so startup can fail fast on it.
func (w *SyncWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting sync worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Sync worker stopped")
			return
		}
	}
}

func (w *SyncWorker) run(ctx context.Context) {
	log.Debug().Msg("Syncing product document...")

	if err := w.syncer.SyncProducts(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to sync product document")
	}
}

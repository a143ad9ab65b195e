package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/carniceria_api/internal/store"
)

// SyncService refreshes the Store from the remote document.
type SyncService struct {
	store *store.Store
}

// NewSyncService constructs a SyncService.
func NewSyncService(s *store.Store) *SyncService {
	return &SyncService{store: s}
}

// SyncProducts fetches the product document once and logs how the snapshot
// changed.
func (s *SyncService) SyncProducts(ctx context.Context) error {
	before := len(s.store.State().Products)
	start := time.Now()

	if err := s.store.FetchProducts(ctx); err != nil {
		return err
	}

	after := len(s.store.State().Products)
	log.Info().
		Int("before", before).
		Int("after", after).
		Dur("duration", time.Since(start)).
		Msg("Product document synced")
	return nil
}

package service

import (
	"context"

	"github.com/rs/zerolog/log"
)

// PageviewCounter reads the aggregate pageview count.
type PageviewCounter interface {
	Pageviews(ctx context.Context) (int64, error)
}

// PageviewStats is what the admin widget shows.
type PageviewStats struct {
	Available bool  `json:"available"`
	Pageviews int64 `json:"pageviews"`
}

// AnalyticsService reads storefront traffic. Failures make the figure
// unavailable instead of failing the request.
type AnalyticsService struct {
	counter PageviewCounter
}

// NewAnalyticsService constructs an AnalyticsService. A nil counter means
// analytics is not configured.
func NewAnalyticsService(counter PageviewCounter) *AnalyticsService {
	return &AnalyticsService{counter: counter}
}

// Pageviews returns the aggregate pageviews.
func (s *AnalyticsService) Pageviews(ctx context.Context) PageviewStats {
	if s.counter == nil {
		return PageviewStats{}
	}
	n, err := s.counter.Pageviews(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch pageviews")
		return PageviewStats{}
	}
	return PageviewStats{Available: true, Pageviews: n}
}

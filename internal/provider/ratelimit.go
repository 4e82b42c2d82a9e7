package provider

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Default rate limits per provider (requests per second). MusicBrainz
// enforces a hard 1 req/s for anonymous clients; the others are each
// source's documented courtesy limit.
var defaultRateLimits = map[ProviderName]rate.Limit{
	NameMusicBrainz: 1,
	NameWikidata:    5,
	NameLastFM:      5,
}

// RateLimiterMap holds one rate.Limiter per provider, created once at
// startup. Burst is 1 so two grants for the same provider are never closer
// together than the configured interval.
type RateLimiterMap struct {
	mu       sync.RWMutex
	limiters map[ProviderName]*rate.Limiter
}

// NewRateLimiterMap creates all provider rate limiters with default limits.
func NewRateLimiterMap() *RateLimiterMap {
	return NewRateLimiterMapWithLimits(defaultRateLimits)
}

// NewRateLimiterMapWithLimits creates provider rate limiters with the given
// limits. Tests use this to construct limiters with no practical wait.
func NewRateLimiterMapWithLimits(limits map[ProviderName]rate.Limit) *RateLimiterMap {
	m := &RateLimiterMap{
		limiters: make(map[ProviderName]*rate.Limiter, len(limits)),
	}
	for name, limit := range limits {
		m.limiters[name] = rate.NewLimiter(limit, 1)
	}
	return m
}

// Wait blocks until the rate limiter for the given provider allows a request,
// or the context is canceled. Unknown providers are not limited.
func (m *RateLimiterMap) Wait(ctx context.Context, name ProviderName) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}

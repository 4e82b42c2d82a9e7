package provider

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// Timers can fire marginally early on some platforms; allow a small slack
// when asserting minimum spacing.
const spacingSlack = 5 * time.Millisecond

func TestWaitEnforcesSpacing(t *testing.T) {
	for _, rps := range []rate.Limit{1, 2, 10} {
		t.Run(time.Duration(float64(time.Second)/float64(rps)).String(), func(t *testing.T) {
			t.Parallel()

			m := NewRateLimiterMapWithLimits(map[ProviderName]rate.Limit{
				NameMusicBrainz: rps,
			})
			interval := time.Duration(float64(time.Second) / float64(rps))

			const calls = 5
			stamps := make([]time.Time, 0, calls)
			for i := 0; i < calls; i++ {
				if err := m.Wait(context.Background(), NameMusicBrainz); err != nil {
					t.Fatalf("Wait: %v", err)
				}
				stamps = append(stamps, time.Now())
			}

			for i := 1; i < len(stamps); i++ {
				gap := stamps[i].Sub(stamps[i-1])
				if gap < interval-spacingSlack {
					t.Errorf("calls %d and %d only %v apart, want >= %v", i-1, i, gap, interval)
				}
			}
		})
	}
}

func TestWaitUnknownProviderUnlimited(t *testing.T) {
	m := NewRateLimiterMapWithLimits(nil)

	start := time.Now()
	for i := 0; i < 10; i++ {
		if err := m.Wait(context.Background(), ProviderName("unknown")); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("unknown provider should not be limited, waited %v", elapsed)
	}
}

func TestWaitHonorsContextCancel(t *testing.T) {
	m := NewRateLimiterMapWithLimits(map[ProviderName]rate.Limit{
		NameMusicBrainz: 1,
	})

	// Drain the initial token.
	if err := m.Wait(context.Background(), NameMusicBrainz); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := m.Wait(ctx, NameMusicBrainz); err == nil {
		t.Error("expected context error while waiting for next token")
	}
}

func TestIndependentLimitersPerProvider(t *testing.T) {
	m := NewRateLimiterMap()

	// One provider's consumed token must not delay another provider.
	if err := m.Wait(context.Background(), NameMusicBrainz); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	start := time.Now()
	if err := m.Wait(context.Background(), NameWikidata); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("wikidata wait should be immediate, took %v", elapsed)
	}
}

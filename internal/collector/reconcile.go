package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sydlexius/melisma/internal/artist"
	"github.com/sydlexius/melisma/internal/provider"
)

// ReconcileResult is the three-way classification of a raw relation set.
// Every candidate relation (after self-relation filtering) lands in
// exactly one bucket.
type ReconcileResult struct {
	Created  int
	Skipped  int
	Existing int

	// SkippedNames holds the target names that were skipped because no
	// local artist matched, for discovery follow-up.
	SkippedNames []string
}

// Reconcile classifies each raw relation of source against the local
// graph and persists the new ones. A relation whose target is unknown
// locally is skipped; one connecting a pair already linked in either
// direction is existing; the rest are created with a strength from the
// scoring table. Self-relations are dropped without counting. In dry-run
// mode nothing is written but the counts reflect what a real run would do.
func (s *Service) Reconcile(ctx context.Context, source *artist.Artist, relations []provider.RawRelation, dryRun bool) (*ReconcileResult, error) {
	result := &ReconcileResult{}
	wouldCreate := make(map[string]bool)

	for _, rel := range relations {
		target, err := s.artists.GetByMBID(ctx, rel.TargetMBID)
		if err != nil {
			return nil, &ErrStorage{Op: "relation target lookup", Err: err}
		}
		if target == nil {
			result.Skipped++
			if rel.TargetName != "" {
				result.SkippedNames = append(result.SkippedNames, rel.TargetName)
			}
			continue
		}
		if target.ID == source.ID {
			continue
		}

		exists, err := s.artists.RelationExists(ctx, source.ID, target.ID)
		if err != nil {
			return nil, &ErrStorage{Op: "relation existence check", Err: err}
		}
		if exists || (dryRun && wouldCreate[pairKey(source.ID, target.ID)]) {
			result.Existing++
			continue
		}

		strength := StrengthFor(rel.Type)
		if dryRun {
			wouldCreate[pairKey(source.ID, target.ID)] = true
		} else {
			err := s.artists.CreateRelation(ctx, &artist.Relation{
				FromArtistID: source.ID,
				ToArtistID:   target.ID,
				RelationType: rel.Type,
				Strength:     &strength,
				Source:       string(provider.NameMusicBrainz),
			})
			if err != nil {
				return nil, &ErrStorage{Op: "relation create", Err: err}
			}
		}
		result.Created++
	}
	return result, nil
}

// RebuildResult summarizes a full relation rebuild across the local
// artist set.
type RebuildResult struct {
	Scanned  int
	Fetched  int
	Created  int
	Skipped  int
	Existing int
	Errors   []string
}

// RebuildRelations walks every local artist and reconciles its registry
// relations against the graph. Artists without a registry id are counted
// as scanned but never trigger a fetch. Provider failures for one artist
// are recorded and the rebuild continues; storage failures abort.
func (s *Service) RebuildRelations(ctx context.Context, dryRun bool, pace time.Duration) (*RebuildResult, error) {
	artists, err := s.artists.ListAll(ctx)
	if err != nil {
		return nil, &ErrStorage{Op: "artist listing", Err: err}
	}

	result := &RebuildResult{}
	for i := range artists {
		a := &artists[i]
		result.Scanned++
		if a.MBID == "" {
			continue
		}

		relations, err := s.registry.FetchRelations(ctx, a.MBID)
		if err != nil {
			var storageErr *ErrStorage
			if errors.As(err, &storageErr) {
				return nil, err
			}
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", a.Name, err))
			continue
		}
		result.Fetched++

		rec, err := s.Reconcile(ctx, a, relations, dryRun)
		if err != nil {
			return nil, err
		}
		result.Created += rec.Created
		result.Skipped += rec.Skipped
		result.Existing += rec.Existing

		s.logger.Debug("rebuilt relations",
			slog.String("name", a.Name),
			slog.Int("created", rec.Created),
			slog.Int("skipped", rec.Skipped),
			slog.Int("existing", rec.Existing))

		if pace > 0 && i < len(artists)-1 {
			if err := sleepCtx(ctx, pace); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

func pairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}

// sleepCtx pauses for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

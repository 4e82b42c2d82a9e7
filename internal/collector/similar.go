package collector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sydlexius/melisma/internal/artist"
	"github.com/sydlexius/melisma/internal/provider"
)

// similarRelationType labels edges created from the similarity source.
const similarRelationType = "similar"

// CollectSimilar links an artist to the acts the similarity source ranks
// near it. The root is resolved and upserted first, then each similar stub
// is matched against the local store, by registry id when the stub carries
// one, by name otherwise. Unmatched stubs are skipped and reported for
// discovery. The stub's match confidence becomes the relation strength.
func (s *Service) CollectSimilar(ctx context.Context, nameOrMBID string) (*CollectResult, error) {
	if s.similarity == nil {
		return nil, fmt.Errorf("no similarity source configured")
	}

	record, err := s.resolve(ctx, nameOrMBID)
	if err != nil {
		return nil, err
	}
	local, err := s.upsert(ctx, record)
	if err != nil {
		return nil, err
	}

	similar, err := s.similarity.SimilarArtists(ctx, local.Name)
	if err != nil {
		return nil, fmt.Errorf("fetching similar artists for %s: %w", local.Name, err)
	}

	result := ReconcileResult{}
	for _, stub := range similar {
		target, err := s.matchLocal(ctx, stub)
		if err != nil {
			return nil, err
		}
		if target == nil {
			result.Skipped++
			if stub.Name != "" {
				result.SkippedNames = append(result.SkippedNames, stub.Name)
			}
			continue
		}
		if target.ID == local.ID {
			continue
		}

		exists, err := s.artists.RelationExists(ctx, local.ID, target.ID)
		if err != nil {
			return nil, &ErrStorage{Op: "relation existence check", Err: err}
		}
		if exists {
			result.Existing++
			continue
		}

		strength := clamp01(stub.Match)
		err = s.artists.CreateRelation(ctx, &artist.Relation{
			FromArtistID: local.ID,
			ToArtistID:   target.ID,
			RelationType: similarRelationType,
			Strength:     &strength,
			Source:       string(provider.NameLastFM),
		})
		if err != nil {
			return nil, &ErrStorage{Op: "relation create", Err: err}
		}
		result.Created++
	}

	s.logger.Info("collected similar artists",
		slog.String("name", local.Name),
		slog.Int("created", result.Created),
		slog.Int("skipped", result.Skipped),
		slog.Int("existing", result.Existing))

	return &CollectResult{Artist: local, Reconcile: result}, nil
}

func (s *Service) matchLocal(ctx context.Context, stub provider.SimilarArtist) (*artist.Artist, error) {
	if stub.MBID != "" {
		target, err := s.artists.GetByMBID(ctx, stub.MBID)
		if err != nil {
			return nil, &ErrStorage{Op: "similar target lookup", Err: err}
		}
		if target != nil {
			return target, nil
		}
	}
	if stub.Name == "" {
		return nil, nil
	}
	target, err := s.artists.GetByName(ctx, stub.Name)
	if err != nil {
		return nil, &ErrStorage{Op: "similar target lookup", Err: err}
	}
	return target, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

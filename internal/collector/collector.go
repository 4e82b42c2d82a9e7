// Package collector drives ingestion: it resolves artist names against the
// registry, enriches and upserts them locally, and reconciles their
// relationships into the graph.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/sydlexius/melisma/internal/artist"
	"github.com/sydlexius/melisma/internal/provider"
)

// mbidPattern matches the registry's canonical id format.
var mbidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Registry is the primary catalog: id lookup, name search and relation
// fetch.
type Registry interface {
	LookupArtist(ctx context.Context, mbid string) (*provider.ArtistRecord, error)
	SearchArtists(ctx context.Context, name string) ([]provider.ArtistRecord, error)
	FetchRelations(ctx context.Context, mbid string) ([]provider.RawRelation, error)
}

// Enricher supplies supplementary artist data keyed by registry id.
type Enricher interface {
	FetchByMBID(ctx context.Context, mbid string) (*provider.Enrichment, error)
}

// Similarity returns ranked similar-artist stubs for a name.
type Similarity interface {
	SimilarArtists(ctx context.Context, name string) ([]provider.SimilarArtist, error)
}

// ErrNoMatch indicates neither id lookup nor name search produced a
// candidate.
type ErrNoMatch struct {
	Input string
}

func (e *ErrNoMatch) Error() string {
	return fmt.Sprintf("no registry match for %q", e.Input)
}

// ErrStorage wraps a local store failure. The orchestrator treats these as
// fatal because progress cannot be tracked safely once the store is gone.
type ErrStorage struct {
	Op  string
	Err error
}

func (e *ErrStorage) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *ErrStorage) Unwrap() error { return e.Err }

// Service coordinates resolution, enrichment, upsert and reconciliation
// for single artists.
type Service struct {
	artists    *artist.Service
	registry   Registry
	enricher   Enricher
	similarity Similarity
	logger     *slog.Logger
}

// NewService creates a collector service. The enricher and similarity
// source may be nil; the corresponding steps are then skipped.
func NewService(artists *artist.Service, registry Registry, enricher Enricher, similarity Similarity, logger *slog.Logger) *Service {
	return &Service{
		artists:    artists,
		registry:   registry,
		enricher:   enricher,
		similarity: similarity,
		logger:     logger.With(slog.String("component", "collector")),
	}
}

// CollectResult reports what one CollectArtist call did.
type CollectResult struct {
	Artist    *artist.Artist
	Reconcile ReconcileResult
}

// CollectArtist resolves a name or registry id to one canonical artist,
// upserts it, then fetches and reconciles its relations. Returns
// ErrNoMatch when the registry has no candidate.
func (s *Service) CollectArtist(ctx context.Context, nameOrMBID string) (*CollectResult, error) {
	record, err := s.resolve(ctx, nameOrMBID)
	if err != nil {
		return nil, err
	}

	local, err := s.upsert(ctx, record)
	if err != nil {
		return nil, err
	}

	relations, err := s.registry.FetchRelations(ctx, record.MBID)
	if err != nil {
		return nil, fmt.Errorf("fetching relations for %s: %w", record.Name, err)
	}

	result, err := s.Reconcile(ctx, local, relations, false)
	if err != nil {
		return nil, err
	}

	s.logger.Info("collected artist",
		slog.String("name", local.Name),
		slog.Int("created", result.Created),
		slog.Int("skipped", result.Skipped),
		slog.Int("existing", result.Existing))

	return &CollectResult{Artist: local, Reconcile: *result}, nil
}

// resolve finds the canonical registry record for a name or id. Ids go
// through direct lookup first; on a miss, or for plain names, the first
// search result wins.
func (s *Service) resolve(ctx context.Context, nameOrMBID string) (*provider.ArtistRecord, error) {
	if mbidPattern.MatchString(nameOrMBID) {
		record, err := s.registry.LookupArtist(ctx, nameOrMBID)
		if err != nil {
			return nil, fmt.Errorf("looking up %s: %w", nameOrMBID, err)
		}
		if record != nil {
			return record, nil
		}
	}

	results, err := s.registry.SearchArtists(ctx, nameOrMBID)
	if err != nil {
		return nil, fmt.Errorf("searching for %q: %w", nameOrMBID, err)
	}
	if len(results) == 0 {
		return nil, &ErrNoMatch{Input: nameOrMBID}
	}
	return &results[0], nil
}

// upsert applies the registry record (plus enrichment, when available) to
// the local store. An existing artist with the same registry id is updated
// in place; its id and creation timestamp are immutable.
func (s *Service) upsert(ctx context.Context, record *provider.ArtistRecord) (*artist.Artist, error) {
	enrichment := s.enrich(ctx, record.MBID)

	existing, err := s.artists.GetByMBID(ctx, record.MBID)
	if err != nil {
		return nil, &ErrStorage{Op: "artist lookup", Err: err}
	}

	target := existing
	if target == nil {
		target = &artist.Artist{}
	}
	target.MBID = record.MBID
	target.Name = record.Name
	target.SortName = record.SortName
	target.Country = record.Country
	target.BeginDate = record.BeginDate
	target.EndDate = record.EndDate
	target.Aliases = record.Aliases

	if enrichment != nil {
		target.WikidataID = enrichment.WikidataID
		if enrichment.ImageURL != "" {
			target.ImageURL = enrichment.ImageURL
			target.ImageSource = artist.ImageSourceWikidata
		}
	}

	if existing == nil {
		if err := s.artists.Create(ctx, target); err != nil {
			return nil, &ErrStorage{Op: "artist create", Err: err}
		}
	} else {
		if err := s.artists.Update(ctx, target); err != nil {
			return nil, &ErrStorage{Op: "artist update", Err: err}
		}
	}

	if enrichment != nil && len(enrichment.Genres) > 0 {
		if err := s.artists.UpsertGenres(ctx, target.ID, enrichment.Genres, string(provider.NameWikidata)); err != nil {
			return nil, &ErrStorage{Op: "genre upsert", Err: err}
		}
	}

	return target, nil
}

// enrich fetches supplementary data for a registry id. Absence and
// provider failures both mean "no enrichment"; the failure is logged and
// collection continues.
func (s *Service) enrich(ctx context.Context, mbid string) *provider.Enrichment {
	if s.enricher == nil || mbid == "" {
		return nil
	}
	enrichment, err := s.enricher.FetchByMBID(ctx, mbid)
	if err != nil {
		s.logger.Warn("enrichment unavailable",
			slog.String("mbid", mbid),
			slog.String("error", err.Error()))
		return nil
	}
	return enrichment
}

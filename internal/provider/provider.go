// Package provider defines the contract shared by all external catalog
// adapters: common record types, typed errors, per-source rate limiting
// and API key storage.
package provider

import (
	"fmt"
	"time"
)

// ProviderName uniquely identifies an external data source.
type ProviderName string

// Known provider names.
const (
	NameMusicBrainz ProviderName = "musicbrainz"
	NameWikidata    ProviderName = "wikidata"
	NameLastFM      ProviderName = "lastfm"
)

// DisplayName returns a human-readable name for the provider.
func (n ProviderName) DisplayName() string {
	switch n {
	case NameMusicBrainz:
		return "MusicBrainz"
	case NameWikidata:
		return "Wikidata"
	case NameLastFM:
		return "Last.fm"
	default:
		return string(n)
	}
}

// ArtistRecord is the canonical registry representation of an artist as
// returned by the primary catalog.
type ArtistRecord struct {
	MBID      string   `json:"mbid"`
	Name      string   `json:"name"`
	SortName  string   `json:"sort_name,omitempty"`
	Country   string   `json:"country,omitempty"`
	BeginDate string   `json:"begin_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
	Aliases   []string `json:"aliases,omitempty"`
	Score     int      `json:"score,omitempty"`
}

// RawRelation is a typed, directioned relationship entry from the registry.
// Entries lacking a target artist stub are filtered out during parsing and
// never reach this type.
type RawRelation struct {
	Type           string   `json:"type"`
	Direction      string   `json:"direction"`
	TargetMBID     string   `json:"target_mbid"`
	TargetName     string   `json:"target_name"`
	TargetSortName string   `json:"target_sort_name,omitempty"`
	Attributes     []string `json:"attributes,omitempty"`
}

// Enrichment is the supplementary record the knowledge base returns for an
// artist, keyed by MBID.
type Enrichment struct {
	WikidataID string   `json:"wikidata_id"`
	ImageURL   string   `json:"image_url,omitempty"`
	Genres     []string `json:"genres,omitempty"`
}

// SimilarArtist is a ranked similarity stub from the recommendation source.
type SimilarArtist struct {
	Name  string  `json:"name"`
	MBID  string  `json:"mbid,omitempty"`
	Match float64 `json:"match"`
}

// ErrProviderUnavailable indicates a transient failure (rate-limited,
// timeout, server error).
type ErrProviderUnavailable struct {
	Provider   ProviderName
	Cause      error
	RetryAfter time.Duration
}

func (e *ErrProviderUnavailable) Error() string {
	return fmt.Sprintf("provider %s unavailable: %v", e.Provider, e.Cause)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Cause }

// ErrNotFound indicates the provider has no data for the requested ID.
type ErrNotFound struct {
	Provider ProviderName
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("provider %s: artist %s not found", e.Provider, e.ID)
}

// ErrAuthRequired indicates the provider needs an API key but none is
// configured.
type ErrAuthRequired struct {
	Provider ProviderName
}

func (e *ErrAuthRequired) Error() string {
	return fmt.Sprintf("provider %s: API key not configured", e.Provider)
}

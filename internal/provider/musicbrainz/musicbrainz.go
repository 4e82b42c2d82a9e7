// Package musicbrainz adapts the MusicBrainz web service, the primary
// registry for artist resolution and relationship data.
package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/sydlexius/melisma/internal/provider"
	"github.com/sydlexius/melisma/internal/version"
)

const defaultBaseURL = "https://musicbrainz.org/ws/2"

// Adapter wraps the MusicBrainz artist endpoints.
type Adapter struct {
	client  *http.Client
	limiter *provider.RateLimiterMap
	logger  *slog.Logger
	baseURL string
}

// New creates a MusicBrainz adapter with the default base URL.
func New(limiter *provider.RateLimiterMap, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(limiter, logger, defaultBaseURL)
}

// NewWithBaseURL creates a MusicBrainz adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *provider.RateLimiterMap, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: limiter,
		logger:  logger.With(slog.String("provider", "musicbrainz")),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the provider name.
func (a *Adapter) Name() provider.ProviderName { return provider.NameMusicBrainz }

// LookupArtist fetches an artist by MBID. A 404 from the registry returns
// (nil, nil), not an error.
func (a *Adapter) LookupArtist(ctx context.Context, mbid string) (*provider.ArtistRecord, error) {
	params := url.Values{
		"inc": {"aliases"},
		"fmt": {"json"},
	}
	reqURL := a.baseURL + "/artist/" + url.PathEscape(mbid) + "?" + params.Encode()

	body, err := a.doRequest(ctx, reqURL)
	var notFound *provider.ErrNotFound
	if errors.As(err, &notFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var artist MBArtist
	if err := json.Unmarshal(body, &artist); err != nil {
		return nil, fmt.Errorf("parsing artist response: %w", err)
	}

	return mapArtist(&artist), nil
}

// SearchArtists searches the registry by name, best match first.
func (a *Adapter) SearchArtists(ctx context.Context, name string) ([]provider.ArtistRecord, error) {
	params := url.Values{
		"query": {name},
		"fmt":   {"json"},
		"limit": {"10"},
	}
	reqURL := a.baseURL + "/artist?" + params.Encode()

	body, err := a.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	results := make([]provider.ArtistRecord, 0, len(resp.Artists))
	for i := range resp.Artists {
		results = append(results, *mapArtist(&resp.Artists[i]))
	}
	return results, nil
}

// FetchRelations fetches the artist-to-artist relations for an MBID.
// Relation entries without an embedded artist stub (URL relations, partial
// payloads) are dropped. A 404 returns an empty slice.
func (a *Adapter) FetchRelations(ctx context.Context, mbid string) ([]provider.RawRelation, error) {
	params := url.Values{
		"inc": {"artist-rels"},
		"fmt": {"json"},
	}
	reqURL := a.baseURL + "/artist/" + url.PathEscape(mbid) + "?" + params.Encode()

	body, err := a.doRequest(ctx, reqURL)
	var notFound *provider.ErrNotFound
	if errors.As(err, &notFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var artist MBArtist
	if err := json.Unmarshal(body, &artist); err != nil {
		return nil, fmt.Errorf("parsing relations response: %w", err)
	}

	relations := make([]provider.RawRelation, 0, len(artist.Relations))
	for _, rel := range artist.Relations {
		if rel.Artist == nil || rel.Artist.ID == "" {
			continue
		}
		relations = append(relations, provider.RawRelation{
			Type:           rel.Type,
			Direction:      rel.Direction,
			TargetMBID:     rel.Artist.ID,
			TargetName:     rel.Artist.Name,
			TargetSortName: rel.Artist.SortName,
			Attributes:     rel.Attributes,
		})
	}
	return relations, nil
}

// doRequest executes a rate-limited HTTP GET, retrying transient upstream
// failures (503/429) with backoff before giving up.
func (a *Adapter) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	var body []byte

	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := a.limiter.Wait(ctx, provider.NameMusicBrainz); err != nil {
			return &provider.ErrProviderUnavailable{
				Provider: provider.NameMusicBrainz,
				Cause:    fmt.Errorf("rate limiter: %w", err),
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent())
		req.Header.Set("Accept", "application/json")

		a.logger.Debug("requesting", slog.String("url", reqURL))

		resp, err := a.client.Do(req)
		if err != nil {
			return &provider.ErrProviderUnavailable{
				Provider: provider.NameMusicBrainz,
				Cause:    err,
			}
		}
		defer resp.Body.Close() //nolint:errcheck

		switch {
		case resp.StatusCode == http.StatusNotFound:
			_, _ = io.Copy(io.Discard, resp.Body)
			return &provider.ErrNotFound{
				Provider: provider.NameMusicBrainz,
				ID:       reqURL,
			}

		case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests:
			_, _ = io.Copy(io.Discard, resp.Body)
			return retry.RetryableError(&provider.ErrProviderUnavailable{
				Provider:   provider.NameMusicBrainz,
				Cause:      fmt.Errorf("HTTP %d", resp.StatusCode),
				RetryAfter: 2 * time.Second,
			})

		case resp.StatusCode != http.StatusOK:
			_, _ = io.Copy(io.Discard, resp.Body)
			return &provider.ErrProviderUnavailable{
				Provider: provider.NameMusicBrainz,
				Cause:    fmt.Errorf("unexpected HTTP %d", resp.StatusCode),
			}
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
		return err
	})

	if err != nil {
		return nil, err
	}
	return body, nil
}

// mapArtist converts a MusicBrainz artist to the common record type.
func mapArtist(mb *MBArtist) *provider.ArtistRecord {
	rec := &provider.ArtistRecord{
		MBID:      mb.ID,
		Name:      mb.Name,
		SortName:  mb.SortName,
		Country:   mb.Country,
		BeginDate: mb.LifeSpan.Begin,
		EndDate:   mb.LifeSpan.End,
		Score:     mb.Score,
	}

	for _, alias := range mb.Aliases {
		if alias.Name != "" && alias.Name != mb.Name {
			rec.Aliases = append(rec.Aliases, alias.Name)
		}
	}

	return rec
}

func userAgent() string {
	return fmt.Sprintf("Melisma/%s (https://github.com/sydlexius/melisma)", version.Version)
}

// Package lastfm adapts the Last.fm API, the similarity-recommendation
// source used for the alternate ingestion mode.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sydlexius/melisma/internal/provider"
)

const defaultBaseURL = "https://ws.audioscrobbler.com/2.0"

// Adapter wraps the Last.fm API. All calls require an API key from the
// settings service.
type Adapter struct {
	client   *http.Client
	limiter  *provider.RateLimiterMap
	settings *provider.SettingsService
	logger   *slog.Logger
	baseURL  string
}

// New creates a Last.fm adapter with the default base URL.
func New(limiter *provider.RateLimiterMap, settings *provider.SettingsService, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(limiter, settings, logger, defaultBaseURL)
}

// NewWithBaseURL creates a Last.fm adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *provider.RateLimiterMap, settings *provider.SettingsService, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  limiter,
		settings: settings,
		logger:   logger.With(slog.String("provider", "lastfm")),
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the provider name.
func (a *Adapter) Name() provider.ProviderName { return provider.NameLastFM }

// SimilarArtists fetches ranked similar artists for a name. Entries whose
// match confidence cannot be parsed are dropped.
func (a *Adapter) SimilarArtists(ctx context.Context, name string) ([]provider.SimilarArtist, error) {
	apiKey, err := a.getAPIKey(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.limiter.Wait(ctx, provider.NameLastFM); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameLastFM,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	params := url.Values{
		"method":  {"artist.getsimilar"},
		"artist":  {name},
		"api_key": {apiKey},
		"format":  {"json"},
		"limit":   {"30"},
	}
	reqURL := a.baseURL + "/?" + params.Encode()

	body, err := a.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var resp SimilarResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing similar-artists response: %w", err)
	}

	results := make([]provider.SimilarArtist, 0, len(resp.SimilarArtists.Artist))
	for _, sa := range resp.SimilarArtists.Artist {
		if sa.Name == "" {
			continue
		}
		match, err := strconv.ParseFloat(sa.Match, 64)
		if err != nil {
			a.logger.Debug("dropping entry with bad match value",
				slog.String("artist", sa.Name),
				slog.String("match", sa.Match))
			continue
		}
		results = append(results, provider.SimilarArtist{
			Name:  sa.Name,
			MBID:  sa.MBID,
			Match: match,
		})
	}
	return results, nil
}

func (a *Adapter) getAPIKey(ctx context.Context) (string, error) {
	apiKey, err := a.settings.GetAPIKey(ctx, provider.NameLastFM)
	if err != nil {
		return "", fmt.Errorf("loading API key: %w", err)
	}
	if apiKey == "" {
		return "", &provider.ErrAuthRequired{Provider: provider.NameLastFM}
	}
	return apiKey, nil
}

func (a *Adapter) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	a.logger.Debug("requesting")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameLastFM,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrNotFound{
			Provider: provider.NameLastFM,
			ID:       reqURL,
		}
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameLastFM,
			Cause:    fmt.Errorf("unexpected HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
}

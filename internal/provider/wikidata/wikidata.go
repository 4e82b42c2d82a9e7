// Package wikidata adapts the Wikidata SPARQL endpoint, the knowledge base
// used to enrich resolved artists with an image URL and genre labels.
package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sydlexius/melisma/internal/provider"
	"github.com/sydlexius/melisma/internal/version"
)

const defaultEndpoint = "https://query.wikidata.org/sparql"

// Adapter wraps the Wikidata SPARQL endpoint.
type Adapter struct {
	client   *http.Client
	limiter  *provider.RateLimiterMap
	logger   *slog.Logger
	endpoint string
}

// New creates a Wikidata adapter with the default endpoint.
func New(limiter *provider.RateLimiterMap, logger *slog.Logger) *Adapter {
	return NewWithEndpoint(limiter, logger, defaultEndpoint)
}

// NewWithEndpoint creates a Wikidata adapter with a custom endpoint (for testing).
func NewWithEndpoint(limiter *provider.RateLimiterMap, logger *slog.Logger, endpoint string) *Adapter {
	return &Adapter{
		client:   &http.Client{Timeout: 15 * time.Second},
		limiter:  limiter,
		logger:   logger.With(slog.String("provider", "wikidata")),
		endpoint: endpoint,
	}
}

// Name returns the provider name.
func (a *Adapter) Name() provider.ProviderName { return provider.NameWikidata }

// FetchByMBID fetches the enrichment record for an artist by MusicBrainz ID.
// An artist with no Wikidata entry returns (nil, nil).
func (a *Adapter) FetchByMBID(ctx context.Context, mbid string) (*provider.Enrichment, error) {
	if err := a.limiter.Wait(ctx, provider.NameWikidata); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameWikidata,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	bindings, err := a.executeSPARQL(ctx, buildEnrichmentQuery(mbid))
	if err != nil {
		return nil, err
	}
	if len(bindings) == 0 {
		return nil, nil
	}

	return mapEnrichment(bindings), nil
}

func (a *Adapter) executeSPARQL(ctx context.Context, query string) ([]SPARQLBinding, error) {
	params := url.Values{
		"query":  {query},
		"format": {"json"},
	}
	reqURL := a.endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("Melisma/%s (https://github.com/sydlexius/melisma)", version.Version))
	req.Header.Set("Accept", "application/sparql-results+json")

	a.logger.Debug("executing SPARQL query")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameWikidata,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameWikidata,
			Cause:    fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var sparqlResp SPARQLResponse
	if err := json.Unmarshal(body, &sparqlResp); err != nil {
		return nil, fmt.Errorf("parsing SPARQL response: %w", err)
	}

	return sparqlResp.Results.Bindings, nil
}

// buildEnrichmentQuery selects the entity carrying the given MusicBrainz
// artist ID (P434) with its image (P18) and genre labels (P136).
func buildEnrichmentQuery(mbid string) string {
	return fmt.Sprintf(`
SELECT ?artist ?image ?genreLabel WHERE {
  ?artist wdt:P434 "%s" .
  OPTIONAL { ?artist wdt:P18 ?image . }
  OPTIONAL { ?artist wdt:P136 ?genre . }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en" . }
}`, mbid)
}

func mapEnrichment(bindings []SPARQLBinding) *provider.Enrichment {
	first := bindings[0]
	enr := &provider.Enrichment{
		WikidataID: extractQID(first.Artist.Value),
		ImageURL:   first.Image.Value,
	}

	seen := make(map[string]bool)
	for _, b := range bindings {
		genre := b.Genre.Value
		if genre != "" && !seen[genre] {
			seen[genre] = true
			enr.Genres = append(enr.Genres, genre)
		}
	}

	return enr
}

// extractQID extracts the Q-item ID from a full Wikidata URI.
// e.g. "http://www.wikidata.org/entity/Q44190" -> "Q44190"
func extractQID(uri string) string {
	if idx := strings.LastIndex(uri, "/"); idx >= 0 {
		return uri[idx+1:]
	}
	return uri
}

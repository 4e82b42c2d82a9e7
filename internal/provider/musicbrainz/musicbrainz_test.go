package musicbrainz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/time/rate"

	"github.com/sydlexius/melisma/internal/provider"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("loading fixture %s: %v", name, err)
	}
	return data
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/artist" && r.URL.Query().Get("query") != "":
			if r.URL.Query().Get("query") == "nonexistent-artist-xyz" {
				_, _ = w.Write([]byte(`{"created":"","count":0,"offset":0,"artists":[]}`))
				return
			}
			_, _ = w.Write(loadFixture(t, "search_radiohead.json"))

		case strings.HasPrefix(r.URL.Path, "/artist/"):
			mbid := strings.TrimPrefix(r.URL.Path, "/artist/")
			switch mbid {
			case "not-found-id":
				w.WriteHeader(http.StatusNotFound)
			case "server-error-id":
				w.WriteHeader(http.StatusInternalServerError)
			default:
				if strings.Contains(r.URL.Query().Get("inc"), "artist-rels") {
					_, _ = w.Write(loadFixture(t, "relations_radiohead.json"))
					return
				}
				_, _ = w.Write(loadFixture(t, "artist_radiohead.json"))
			}

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestAdapter(t *testing.T, baseURL string) *Adapter {
	t.Helper()
	limiter := provider.NewRateLimiterMapWithLimits(map[provider.ProviderName]rate.Limit{
		provider.NameMusicBrainz: 1000,
	})
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewWithBaseURL(limiter, logger, baseURL)
}

func TestLookupArtist(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	a := newTestAdapter(t, srv.URL)

	rec, err := a.LookupArtist(context.Background(), "a74b1b7f-71a5-4011-9441-d0b5e4122711")
	if err != nil {
		t.Fatalf("LookupArtist: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.Name != "Radiohead" || rec.Country != "GB" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.BeginDate != "1991" {
		t.Errorf("expected begin date 1991, got %q", rec.BeginDate)
	}
	// The alias equal to the artist name is excluded.
	if len(rec.Aliases) != 1 || rec.Aliases[0] != "On a Friday" {
		t.Errorf("unexpected aliases: %v", rec.Aliases)
	}
}

func TestLookupArtistNotFound(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	a := newTestAdapter(t, srv.URL)

	rec, err := a.LookupArtist(context.Background(), "not-found-id")
	if err != nil {
		t.Fatalf("expected nil error for 404, got %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil record for 404, got %+v", rec)
	}
}

func TestLookupArtistServerError(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	a := newTestAdapter(t, srv.URL)

	_, err := a.LookupArtist(context.Background(), "server-error-id")
	var unavailable *provider.ErrProviderUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestSearchArtists(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	a := newTestAdapter(t, srv.URL)

	results, err := a.SearchArtists(context.Background(), "Radiohead")
	if err != nil {
		t.Fatalf("SearchArtists: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Name != "Radiohead" || results[0].Score != 100 {
		t.Errorf("expected best match first, got %+v", results[0])
	}
}

func TestSearchArtistsEmpty(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	a := newTestAdapter(t, srv.URL)

	results, err := a.SearchArtists(context.Background(), "nonexistent-artist-xyz")
	if err != nil {
		t.Fatalf("SearchArtists: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestFetchRelationsFiltersNonArtistEntries(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	a := newTestAdapter(t, srv.URL)

	relations, err := a.FetchRelations(context.Background(), "a74b1b7f-71a5-4011-9441-d0b5e4122711")
	if err != nil {
		t.Fatalf("FetchRelations: %v", err)
	}
	// The fixture holds 4 relations; the URL relation has no artist stub.
	if len(relations) != 3 {
		t.Fatalf("expected 3 artist relations, got %d", len(relations))
	}
	first := relations[0]
	if first.Type != "member of band" || first.TargetName != "Thom Yorke" {
		t.Errorf("unexpected first relation: %+v", first)
	}
	if first.TargetMBID != "8ed2e0b3-aa4c-4e13-bec3-dc7393a6c153" {
		t.Errorf("unexpected target MBID: %s", first.TargetMBID)
	}
	if len(first.Attributes) != 2 {
		t.Errorf("expected attributes preserved, got %v", first.Attributes)
	}
}

func TestFetchRelationsNotFound(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	a := newTestAdapter(t, srv.URL)

	relations, err := a.FetchRelations(context.Background(), "not-found-id")
	if err != nil {
		t.Fatalf("expected nil error for 404, got %v", err)
	}
	if len(relations) != 0 {
		t.Errorf("expected no relations, got %d", len(relations))
	}
}

func TestRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(loadFixture(t, "artist_radiohead.json"))
	}))
	defer srv.Close()
	a := newTestAdapter(t, srv.URL)

	rec, err := a.LookupArtist(context.Background(), "a74b1b7f-71a5-4011-9441-d0b5e4122711")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if rec == nil || rec.Name != "Radiohead" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	a := newTestAdapter(t, srv.URL)

	_, err := a.LookupArtist(context.Background(), "a74b1b7f-71a5-4011-9441-d0b5e4122711")
	var unavailable *provider.ErrProviderUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts (1 + 2 retries), got %d", got)
	}
}

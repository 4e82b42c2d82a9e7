package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sydlexius/melisma/internal/artist"
	"github.com/sydlexius/melisma/internal/database"
)

func newTestRouter(t *testing.T) (*artist.Service, http.Handler) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating database: %v", err)
	}

	svc := artist.NewService(db)
	router := NewRouter(RouterDeps{
		ArtistService: svc,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return svc, router.Handler()
}

func doRequest(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	_, handler := newTestRouter(t)

	rec := doRequest(t, handler, "/api/v1/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestHandleSearch(t *testing.T) {
	svc, handler := newTestRouter(t)
	ctx := context.Background()

	for _, name := range []string{"Radiohead", "Portishead"} {
		if err := svc.Create(ctx, &artist.Artist{Name: name, SortName: name}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	rec := doRequest(t, handler, "/api/v1/search?q=head")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Artists []artist.Artist `json:"artists"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.Artists) != 2 {
		t.Fatalf("artists = %+v", body.Artists)
	}
}

func TestHandleSearchRejectsShortQuery(t *testing.T) {
	_, handler := newTestRouter(t)

	for _, path := range []string{"/api/v1/search", "/api/v1/search?q=a", "/api/v1/search?q=%20x%20"} {
		rec := doRequest(t, handler, path)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", path, rec.Code)
		}
	}
}

func TestHandleGetArtist(t *testing.T) {
	svc, handler := newTestRouter(t)
	ctx := context.Background()

	a := &artist.Artist{Name: "Radiohead", SortName: "Radiohead"}
	b := &artist.Artist{Name: "Thom Yorke", SortName: "Yorke, Thom"}
	for _, x := range []*artist.Artist{a, b} {
		if err := svc.Create(ctx, x); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	strength := 1.0
	if err := svc.CreateRelation(ctx, &artist.Relation{
		FromArtistID: a.ID, ToArtistID: b.ID,
		RelationType: "member of band", Strength: &strength, Source: "musicbrainz",
	}); err != nil {
		t.Fatalf("CreateRelation: %v", err)
	}

	rec := doRequest(t, handler, "/api/v1/artists/"+a.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Artist    artist.Artist               `json:"artist"`
		Relations []artist.RelationWithTarget `json:"relations"`
		Genres    []string                    `json:"genres"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Artist.Name != "Radiohead" {
		t.Fatalf("artist = %+v", body.Artist)
	}
	if len(body.Relations) != 1 || body.Relations[0].Artist.Name != "Thom Yorke" {
		t.Fatalf("relations = %+v", body.Relations)
	}
}

func TestHandleGetArtistNotFound(t *testing.T) {
	_, handler := newTestRouter(t)

	rec := doRequest(t, handler, "/api/v1/artists/unknown")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleGraph(t *testing.T) {
	svc, handler := newTestRouter(t)
	ctx := context.Background()

	a := &artist.Artist{Name: "A", SortName: "A"}
	b := &artist.Artist{Name: "B", SortName: "B"}
	for _, x := range []*artist.Artist{a, b} {
		if err := svc.Create(ctx, x); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := svc.CreateRelation(ctx, &artist.Relation{
		FromArtistID: a.ID, ToArtistID: b.ID, RelationType: "collaboration", Source: "musicbrainz",
	}); err != nil {
		t.Fatalf("CreateRelation: %v", err)
	}

	rec := doRequest(t, handler, "/api/v1/graph?artistId="+a.ID+"&depth=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var graph artist.Graph
	if err := json.Unmarshal(rec.Body.Bytes(), &graph); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(graph.Nodes) != 2 || len(graph.Edges) != 1 {
		t.Fatalf("graph = %+v", graph)
	}
}

func TestHandleGraphValidation(t *testing.T) {
	_, handler := newTestRouter(t)

	for _, path := range []string{
		"/api/v1/graph",
		"/api/v1/graph?artistId=x&depth=0",
		"/api/v1/graph?artistId=x&depth=4",
		"/api/v1/graph?artistId=x&depth=abc",
	} {
		rec := doRequest(t, handler, path)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", path, rec.Code)
		}
	}
}

func TestHandleGraphUnknownRootIsEmpty(t *testing.T) {
	_, handler := newTestRouter(t)

	rec := doRequest(t, handler, "/api/v1/graph?artistId=missing")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var graph artist.Graph
	if err := json.Unmarshal(rec.Body.Bytes(), &graph); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(graph.Nodes) != 0 || len(graph.Edges) != 0 {
		t.Fatalf("graph = %+v", graph)
	}
}

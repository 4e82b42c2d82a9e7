package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sydlexius/melisma/internal/artist"
	"github.com/sydlexius/melisma/internal/version"
)

const (
	defaultGraphDepth = 2
	maxGraphDepth     = 3
)

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
		"commit":  version.Commit,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Router) handleSearch(w http.ResponseWriter, req *http.Request) {
	query := strings.TrimSpace(req.URL.Query().Get("q"))
	if len(query) < 2 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query must be at least 2 characters"})
		return
	}

	results, err := r.artistService.Search(req.Context(), query, 20)
	if err != nil {
		r.logger.Error("search failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if results == nil {
		results = []artist.Artist{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"artists": results})
}

func (r *Router) handleGetArtist(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("id")

	a, err := r.artistService.GetByID(req.Context(), id)
	if err != nil {
		r.logger.Error("artist lookup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if a == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "artist not found"})
		return
	}

	relations, err := r.artistService.RelationsFrom(req.Context(), id)
	if err != nil {
		r.logger.Error("relation listing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if relations == nil {
		relations = []artist.RelationWithTarget{}
	}

	genres, err := r.artistService.GenresFor(req.Context(), id)
	if err != nil {
		r.logger.Error("genre listing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if genres == nil {
		genres = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"artist":    a,
		"relations": relations,
		"genres":    genres,
	})
}

func (r *Router) handleGraph(w http.ResponseWriter, req *http.Request) {
	artistID := req.URL.Query().Get("artistId")
	if artistID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "artistId is required"})
		return
	}

	depth := defaultGraphDepth
	if raw := req.URL.Query().Get("depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxGraphDepth {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "depth must be between 1 and 3"})
			return
		}
		depth = parsed
	}

	graph, err := r.artistService.Network(req.Context(), artistID, depth)
	if err != nil {
		r.logger.Error("graph expansion failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, graph)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
	}
}

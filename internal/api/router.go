// Package api serves the read-only HTTP surface over the artist graph.
package api

import (
	"log/slog"
	"net/http"

	"github.com/sydlexius/melisma/internal/api/middleware"
	"github.com/sydlexius/melisma/internal/artist"
)

// RouterDeps bundles all dependencies needed by the HTTP router.
type RouterDeps struct {
	ArtistService *artist.Service
	Logger        *slog.Logger
	BasePath      string
}

// Router sets up all HTTP routes for the application.
type Router struct {
	artistService *artist.Service
	logger        *slog.Logger
	basePath      string
}

// NewRouter creates a new Router with all routes configured.
func NewRouter(deps RouterDeps) *Router {
	return &Router{
		artistService: deps.ArtistService,
		logger:        deps.Logger,
		basePath:      deps.BasePath,
	}
}

// Handler returns the fully configured HTTP handler with middleware applied.
func (r *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	bp := r.basePath

	mux.HandleFunc("GET "+bp+"/api/v1/health", r.handleHealth)
	mux.HandleFunc("GET "+bp+"/api/v1/search", r.handleSearch)
	mux.HandleFunc("GET "+bp+"/api/v1/artists/{id}", r.handleGetArtist)
	mux.HandleFunc("GET "+bp+"/api/v1/graph", r.handleGraph)

	return middleware.Logging(r.logger)(middleware.SecurityHeaders(mux))
}

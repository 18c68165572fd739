package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// Action routes are registered once, at build time, from the immutable
// table; there is no re-registration or reload path. Anything not
// registered here falls through to the router's 404.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Liveness and monitoring (no auth required so supervisors and
	// scrapers work without credentials)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/metrics", s.handleMetrics)

	// Action routes and operational endpoints; bearer auth applies to
	// the whole group when enabled
	r.Group(func(r chi.Router) {
		if s.cfg.AuthEnabled {
			r.Use(s.bearerAuthMiddleware)
		}

		for _, route := range s.table.Routes() {
			r.Get(route.Path, s.actionHandler(route))
		}

		if s.history != nil {
			r.Get("/history", s.handleHistory)
		}

		r.Get("/events/stream", s.handleEventsStream)
	})

	return r
}

// handleHealthz returns the server health status.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

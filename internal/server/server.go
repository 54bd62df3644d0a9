// Package server implements a reference ingest backend: the batch endpoint
// the delivery client posts to, backed by SQLite. It exists so the daemon
// can be exercised end to end without the production backend.
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/paisatrail/paisatrail/internal/service"
)

// Deps carries the handler dependencies.
type Deps struct {
	Store service.Storage
	// Token, when non-empty, requires "Authorization: Bearer <Token>" on
	// every request.
	Token string
}

// NewHandler builds the backend router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(bearerAuth(deps.Token))

	r.Post("/ingest/notifications/batch", handleBatch(deps))
	r.Get("/healthz", handleHealth(deps))

	return r
}

// NewServer wraps the handler in an http.Server with sane timeouts.
func NewServer(addr string, deps Deps) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewHandler(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}

// bearerAuth rejects requests without the expected bearer token. An empty
// expected token disables authentication.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" {
				got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
				if got != token {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

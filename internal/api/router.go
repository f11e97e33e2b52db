// Package api exposes the lifecycle manager over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"jasper-go/internal/jasper"
)

// NewRouter creates a chi router with every resource route. It is mounted
// under /api by NewServerHandler.
func NewRouter(mgr *jasper.LifecycleManager, logger jasper.Logger) chi.Router {
	h := NewHandler(mgr, logger)

	r := chi.NewRouter()

	// Resources.
	r.Get("/resources", h.Search)
	r.Post("/resources", h.CreateResource)
	r.Get("/resources/{id}", h.GetResource)
	r.Patch("/resources/{id}", h.UpdateResource)
	r.Delete("/resources/{id}", h.DeleteResource)
	r.Post("/resources/{id}/access", h.RecordAccess)

	// Tags and properties.
	r.Put("/resources/{id}/tags/{tag}", h.AddTag)
	r.Delete("/resources/{id}/tags/{tag}", h.RemoveTag)
	r.Put("/resources/{id}/properties/{key}", h.SetProperty)
	r.Delete("/resources/{id}/properties/{key}", h.RemoveProperty)

	// Locations.
	r.Post("/resources/{id}/locations", h.AddLocation)
	r.Delete("/resources/{id}/locations/{locationID}", h.RemoveLocation)
	r.Put("/resources/{id}/locations/{locationID}/primary", h.SetPrimaryLocation)

	// Archival.
	r.Post("/resources/{id}/archive", h.Archive)
	r.Get("/resources/{id}/archives", h.History)
	r.Post("/estimate", h.Estimate)

	// Tag index.
	r.Get("/tags", h.ListTags)
	r.Get("/suggest/tags", h.SuggestTags)
	r.Get("/suggest/keys", h.SuggestKeys)
	r.Get("/suggest/values", h.SuggestValues)

	r.Post("/verify", h.Verify)
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)

	return r
}

// NewServerHandler wraps the API router with request middleware and health
// endpoints.
func NewServerHandler(mgr *jasper.LifecycleManager, logger jasper.Logger) http.Handler {
	if logger == nil {
		logger = jasper.NewNopLogger()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", NewRouter(mgr, logger))
	return r
}

// requestLogger logs one line per request through the domain logger.
func requestLogger(logger jasper.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

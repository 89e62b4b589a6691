// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/matthewbaird/tabforge/internal/activity"
	"github.com/matthewbaird/tabforge/internal/components"
	"github.com/matthewbaird/tabforge/internal/drafts"
	"github.com/matthewbaird/tabforge/internal/factory"
	"github.com/matthewbaird/tabforge/internal/handler"
	"github.com/matthewbaird/tabforge/internal/metrics"
	"github.com/matthewbaird/tabforge/internal/stream"
)

// Config holds server configuration.
type Config struct {
	Addr     string
	Log      *zap.Logger
	Metrics  *metrics.Metrics
	Factory  *factory.Factory
	Resolver *components.Resolver
	Activity activity.Store
	Drafts   drafts.Store
	// Stream is optional; without it /v1/stream is not routed.
	Stream *stream.Hub
}

// NewRouter registers every route on a chi router.
func NewRouter(cfg Config) http.Handler {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = components.NewResolver()
	}

	r := chi.NewRouter()
	r.Use(handler.Recovery(log), handler.Logging(log, cfg.Metrics))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	th := handler.NewTabHandler(cfg.Factory, resolver)
	ih := handler.NewInstanceHandler(cfg.Factory)
	tph := handler.NewTemplateHandler(cfg.Factory)
	ah := handler.NewActivityHandler(cfg.Activity)
	dh := handler.NewDraftHandler(cfg.Drafts)

	r.Route("/v1", func(r chi.Router) {
		// --- Tabs ---
		r.Get("/tabs", th.ListTabs)
		r.Post("/tabs", th.CreateTab)
		r.Post("/tabs/import", th.ImportTab)
		r.Get("/tabs/{id}", th.GetTab)
		r.Patch("/tabs/{id}", th.UpdateTab)
		r.Delete("/tabs/{id}", th.DeleteTab)
		r.Post("/tabs/{id}/clone", th.CloneTab)
		r.Get("/tabs/{id}/export", th.ExportTab)
		r.Get("/tabs/{id}/components", th.Components)
		r.Post("/tabs/{id}/validate", th.ValidateEntity)
		r.Get("/tabs/{id}/activity", ah.TabActivity)
		r.Get("/tabs/{id}/activity/summary", ah.TabSummary)
		r.Post("/tabs/{id}/instances", ih.CreateInstance)
		r.Get("/tabs/{id}/instances", ih.ListTabInstances)

		// --- Instances ---
		r.Get("/instances/{id}", ih.GetInstance)
		r.Post("/instances/{id}/touch", ih.TouchInstance)
		r.Post("/instances/{id}/entity-count", ih.RecordEntityCount)
		r.Post("/instances/{id}/refresh", ih.RefreshInstance)
		r.Post("/instances/{id}/activate", ih.ActivateInstance)
		r.Post("/instances/{id}/deactivate", ih.DeactivateInstance)
		r.Get("/instances/{id}/activity", ah.InstanceActivity)

		// --- Projects ---
		r.Get("/projects/{projectID}/instances", ih.ListProjectInstances)
		r.Get("/projects/{projectID}/drafts", dh.GetDraft)
		r.Put("/projects/{projectID}/drafts", dh.SaveDraft)
		r.Delete("/projects/{projectID}/drafts", dh.DeleteDraft)

		// --- Templates ---
		r.Get("/templates", tph.ListTemplates)
		r.Post("/templates", tph.RegisterTemplate)
		r.Get("/templates/vocabulary", tph.Vocabulary)
		r.Get("/templates/{id}", tph.GetTemplate)

		r.Get("/activity/search", ah.Search)

		if cfg.Stream != nil {
			r.Method(http.MethodGet, "/stream", cfg.Stream)
		}
	})
	return r
}

// Run starts the HTTP server and shuts it down when ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Factory == nil || cfg.Activity == nil || cfg.Drafts == nil {
		return fmt.Errorf("server: factory, activity store and draft store are required")
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("server stopped")
	return nil
}

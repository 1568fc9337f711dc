package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/halver/lifeops/internal/api/handler"
	mw "github.com/halver/lifeops/internal/api/middleware"
	"github.com/halver/lifeops/internal/config"
	"github.com/halver/lifeops/internal/core"
	"github.com/halver/lifeops/internal/storage"
)

//go:embed docs/swagger.json
var swaggerJSON []byte

type Server struct {
	router         chi.Router
	logger         zerolog.Logger
	services       *core.Services
	pool           *pgxpool.Pool
	cfg            *config.Config
	activityLogger *mw.ActivityLogger
	artifacts      *storage.ArtifactStore
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, cfg *config.Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		logger:         logger,
		services:       core.NewServices(pool),
		pool:           pool,
		cfg:            cfg,
		activityLogger: mw.NewActivityLogger(pool, logger),
		artifacts: storage.NewArtifactStore(logger, cfg.S3Endpoint, cfg.S3Region,
			cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	// API documentation (no auth required)
	s.router.Get("/docs/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(swaggerJSON)
	})
	s.router.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(scalarHTML))
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.pool))
		r.Use(s.activityLogger.Middleware)

		// Dashboard
		dashboard := handler.NewDashboard(s.services)
		r.Get("/dashboard/stats", dashboard.Stats)

		// Cronjobs
		cronJob := handler.NewCronJob(s.services)
		r.Get("/cronjobs", cronJob.List)
		r.Post("/cronjobs", cronJob.Create)
		r.Get("/cronjobs/{cronJobID}", cronJob.Get)
		r.Put("/cronjobs/{cronJobID}", cronJob.Update)
		r.Delete("/cronjobs/{cronJobID}", cronJob.Delete)
		r.Post("/cronjobs/{cronJobID}/pause", cronJob.Pause)
		r.Post("/cronjobs/{cronJobID}/resume", cronJob.Resume)
		r.Get("/cronjobs/{cronJobID}/schedule-preview", cronJob.Preview)

		// Runs
		run := handler.NewRun(s.services, s.artifacts)
		r.Post("/cronjobs/{cronJobID}/run", run.RunNow)
		r.Get("/cronjobs/{cronJobID}/runs", run.ListByCronJob)
		r.Get("/runs/{runID}", run.Get)
		r.Get("/runs/{runID}/artifacts", run.Artifacts)

		// Search
		search := handler.NewSearch(s.services)
		r.Get("/search", search.Search)

		// Profile, integrations, sessions
		profile := handler.NewProfile(s.services)
		r.Get("/profile", profile.Get)
		r.Put("/profile", profile.Update)
		r.Get("/integrations", profile.ListIntegrations)
		r.Post("/integrations", profile.ConnectIntegration)
		r.Delete("/integrations/{integrationID}", profile.DisconnectIntegration)
		r.Get("/sessions", profile.ListSessions)
		r.Delete("/sessions/{sessionID}", profile.RevokeSession)

		// API tokens
		apiToken := handler.NewAPIToken(s.services)
		r.Get("/tokens", apiToken.List)
		r.Post("/tokens", apiToken.Create)
		r.Delete("/tokens/{tokenID}", apiToken.Revoke)
		r.Post("/tokens/{tokenID}/rotate", apiToken.Rotate)

		// Activity log
		activity := handler.NewActivity(s.services)
		r.Get("/activity", activity.List)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

// Shutdown flushes the async activity logger.
func (s *Server) Shutdown() {
	s.activityLogger.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

const scalarHTML = `<!DOCTYPE html>
<html>
<head>
  <title>LifeOps API</title>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
</head>
<body>
  <script id="api-reference" data-url="/docs/openapi.json"></script>
  <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`

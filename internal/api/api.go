// Package api provides HTTP handlers and the main API server logic for HealthIQ.
//
// It exposes RESTful endpoints for measurements, risk assessments, insights,
// and notifications, plus the websocket endpoint backing real-time alerts.
// The API wires together the aggregator, scoring engine, dispatcher, fan-out
// hub, and snapshot cache.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/devang-458/HealthIQ/internal/aggregator"
	"github.com/devang-458/HealthIQ/internal/assess"
	"github.com/devang-458/HealthIQ/internal/auth"
	"github.com/devang-458/HealthIQ/internal/cache"
	"github.com/devang-458/HealthIQ/internal/dispatch"
	"github.com/devang-458/HealthIQ/internal/insight"
	"github.com/devang-458/HealthIQ/internal/realtime"
	"github.com/devang-458/HealthIQ/internal/scheduler"
	"github.com/devang-458/HealthIQ/internal/scoring"
	"github.com/devang-458/HealthIQ/internal/store"
)

// Default server configuration constants
const (
	// DefaultAddr is the default listen address for the API server.
	DefaultAddr = ":3001"
	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second
	// DefaultRefreshTimeout bounds one scheduled assessment refresh run.
	DefaultRefreshTimeout = 5 * time.Minute
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr        string        // listen address
	JWTSecret   string        // secret for session token verification
	SnapshotTTL time.Duration // snapshot cache lifetime
	RefreshCron string        // cron expression for scheduled refresh; empty disables
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithJWTSecret sets the session token secret.
func WithJWTSecret(secret string) Option {
	return func(o *Opts) { o.JWTSecret = secret }
}

// WithSnapshotTTL sets the snapshot cache lifetime.
func WithSnapshotTTL(ttl time.Duration) Option {
	return func(o *Opts) { o.SnapshotTTL = ttl }
}

// WithRefreshCron enables scheduled assessment refresh on the given cron expression.
func WithRefreshCron(expr string) Option {
	return func(o *Opts) { o.RefreshCron = expr }
}

// Server hosts the HealthIQ HTTP and websocket API.
type Server struct {
	st        store.Store
	svc       *assess.Service
	hub       *realtime.Hub
	verifier  *auth.JWTVerifier
	snapshots *cache.SnapshotCache
	sched     *scheduler.Scheduler
	opts      Opts
}

// NewServer assembles the core pipeline over the given store.
func NewServer(st store.Store, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr, SnapshotTTL: cache.DefaultTTL}
	for _, opt := range opts {
		opt(&cfg)
	}

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	hub := realtime.NewHub(verifier)
	snapshots := cache.New(cfg.SnapshotTTL)
	agg := aggregator.New(st)
	engine := scoring.NewEngine()
	insights := insight.NewGenerator()
	dispatcher := dispatch.New(st, hub)
	svc := assess.New(agg, engine, insights, st, st, dispatcher, hub, snapshots)

	return &Server{
		st:        st,
		svc:       svc,
		hub:       hub,
		verifier:  verifier,
		snapshots: snapshots,
		opts:      cfg,
	}
}

// Hub exposes the fan-out hub, mainly for tests and embedding.
func (s *Server) Hub() *realtime.Hub { return s.hub }

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /ws", realtime.ServeWS(s.hub))

	mux.Handle("POST /api/predictions/generate", s.requireAuth(s.generatePredictionHandler))
	mux.Handle("GET /api/predictions", s.requireAuth(s.listPredictionsHandler))
	mux.Handle("GET /api/predictions/{id}", s.requireAuth(s.getPredictionHandler))
	mux.Handle("POST /api/predictions/{id}/acknowledge", s.requireAuth(s.acknowledgePredictionHandler))

	mux.Handle("POST /api/insights", s.requireAuth(s.insightsHandler))

	mux.Handle("GET /api/notifications", s.requireAuth(s.listNotificationsHandler))
	mux.Handle("PUT /api/notifications/read-all", s.requireAuth(s.readAllNotificationsHandler))
	mux.Handle("PUT /api/notifications/{id}/read", s.requireAuth(s.readNotificationHandler))
	mux.Handle("DELETE /api/notifications/{id}", s.requireAuth(s.deleteNotificationHandler))

	mux.Handle("GET /api/health/records", s.requireAuth(s.listHealthRecordsHandler))
	mux.Handle("POST /api/health/records", s.requireAuth(s.createHealthRecordHandler))
	mux.Handle("GET /api/activities", s.requireAuth(s.listActivitiesHandler))
	mux.Handle("POST /api/activities", s.requireAuth(s.createActivityHandler))
	mux.Handle("GET /api/lab-results", s.requireAuth(s.listLabResultsHandler))
	mux.Handle("POST /api/lab-results", s.requireAuth(s.createLabResultHandler))

	return mux
}

// Run starts the server and blocks until the context is cancelled, then
// shuts down gracefully: scheduler first, then HTTP, then the hub.
func (s *Server) Run(ctx context.Context) error {
	if s.opts.RefreshCron != "" {
		s.sched = scheduler.NewScheduler()
		if err := s.sched.ScheduleRefresh(s.opts.RefreshCron, s.st, s.svc, DefaultRefreshTimeout); err != nil {
			return fmt.Errorf("invalid refresh cron expression: %w", err)
		}
		slog.Info("Server.Run: scheduled assessment refresh enabled", "cron", s.opts.RefreshCron)
	}

	httpSrv := &http.Server{
		Addr:    s.opts.Addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HealthIQ API running", "addr", s.opts.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.sched != nil {
		s.sched.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server.Run: HTTP shutdown failed", "error", err)
	}
	s.hub.Shutdown()
	slog.Info("Server.Run: shutdown complete")
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"hiace/internal/cache"
	"hiace/internal/core"
	"hiace/internal/ledger"
	"hiace/internal/log"
	"hiace/internal/services"
)

// Dependencies are the collaborators the API serves from. Ledger is
// required; Ready is optional and backs /readyz.
type Dependencies struct {
	Ledger      *ledger.Ledger
	Automations *services.AutomationEngine
	Objectives  *services.ObjectiveReconciler
	Logger      *log.Logger

	// SummaryTTL bounds how long a computed summary is served. Zero disables
	// the cache.
	SummaryTTL time.Duration
	// WriteLimit is the number of mutating requests per client per minute.
	WriteLimit int
	Ready      func(ctx context.Context) error
	Now        func() time.Time
}

// Server is the JSON API. It embeds http.Server so callers run it with
// ListenAndServe and stop it with Shutdown.
type Server struct {
	http.Server

	ledger      *ledger.Ledger
	automations *services.AutomationEngine
	objectives  *services.ObjectiveReconciler
	logger      *log.Logger
	ready       func(ctx context.Context) error
	now         func() time.Time

	summaries   *cache.LRUCache[core.PeriodSummary]
	caches      *cache.Manager
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	automations := deps.Automations
	if automations == nil {
		automations = services.NewAutomationEngine(deps.Ledger)
	}
	objectives := deps.Objectives
	if objectives == nil {
		objectives = services.NewObjectiveReconciler(deps.Ledger)
	}

	s := &Server{
		ledger:      deps.Ledger,
		automations: automations,
		objectives:  objectives,
		logger:      logger.WithComponent(log.ComponentHTTP),
		ready:       deps.Ready,
		now:         now,
		caches:      cache.NewManager(),
		rateLimiter: newRateLimiter(deps.WriteLimit),
		metrics:     &securityMetrics{},
	}
	if deps.SummaryTTL > 0 {
		s.summaries = cache.NewLRUCache[core.PeriodSummary](100, deps.SummaryTTL)
		s.caches.Register(s.summaries)
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(withClientIP)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(requestID))
	r.Use(log.AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(s.withSecurityHeaders)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limitWrites)

		r.Get("/ledger", s.handleLedger)
		r.Get("/summary", s.handleSummary)
		r.Patch("/settings", s.handleUpdateSettings)

		r.Route("/cash", func(r chi.Router) {
			r.Get("/", s.handleGetCash)
			r.Put("/", s.handleSetCash)
			r.Post("/add", s.handleAddCash)
			r.Post("/remove", s.handleRemoveCash)
		})

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", s.handleListEntries)
			r.Post("/", s.handleCreateEntry)
			r.Get("/draft", s.handleDraftEntry)
			r.Get("/{id}", s.handleGetEntry)
			r.Patch("/{id}", s.handleUpdateEntry)
			r.Delete("/{id}", s.handleDeleteEntry)
		})

		r.Route("/debts", func(r chi.Router) {
			r.Get("/", s.handleListDebts)
			r.Post("/", s.handleCreateDebt)
			r.Patch("/{id}", s.handleUpdateDebt)
			r.Delete("/{id}", s.handleDeleteDebt)
			r.Post("/{id}/payments", s.handlePayDebt)
		})

		r.Route("/provisional-debts", func(r chi.Router) {
			r.Get("/", s.handleListProvisionalDebts)
			r.Post("/", s.handleCreateProvisionalDebt)
			r.Patch("/{id}", s.handleUpdateProvisionalDebt)
			r.Delete("/{id}", s.handleDeleteProvisionalDebt)
			r.Post("/{id}/confirm", s.handleConfirmProvisionalDebt)
		})

		r.Route("/automations", func(r chi.Router) {
			r.Get("/", s.handleListAutomations)
			r.Post("/", s.handleCreateAutomation)
			r.Post("/trigger", s.handleTriggerAutomations)
			r.Patch("/{id}", s.handleUpdateAutomation)
			r.Delete("/{id}", s.handleDeleteAutomation)
			r.Post("/{id}/toggle", s.handleToggleAutomation)
		})

		r.Route("/objectives", func(r chi.Router) {
			r.Get("/", s.handleListObjectives)
			r.Post("/", s.handleCreateObjective)
			r.Post("/reconcile", s.handleReconcileObjectives)
			r.Patch("/{id}", s.handleUpdateObjective)
			r.Delete("/{id}", s.handleDeleteObjective)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.handleListNotifications)
			r.Delete("/", s.handleClearNotifications)
			r.Post("/{id}/read", s.handleReadNotification)
			r.Delete("/{id}", s.handleDeleteNotification)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("route").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, CodeInvalidRequest, "method not allowed").Write(w)
	})
	return r
}

// Start launches the background cleanup routines. ListenAndServe does not
// call it so tests can drive the handler directly.
func (s *Server) Start() {
	s.rateLimiter.start()
	s.caches.StartCleanup(10 * time.Minute)
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, CodeUnavailable, err.Error()).Write(w)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// summary serves a period summary, cached per ledger version so any mutation
// invalidates it.
func (s *Server) summary(period core.Period) (core.PeriodSummary, error) {
	if s.summaries == nil {
		return core.Summarize(s.ledger.Snapshot(), period), nil
	}
	key := fmt.Sprintf("%d|%s|%s|%s", s.ledger.Version(), period.Label, period.From, period.To)
	return s.summaries.GetOrLoad(key, func() (core.PeriodSummary, error) {
		return core.Summarize(s.ledger.Snapshot(), period), nil
	})
}

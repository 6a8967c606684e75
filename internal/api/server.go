// Package api exposes the engine over HTTP: estimates, confirmed scans, the
// opportunity feed, manual job runs and user bet tracking.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-hedger/internal/models"
	"github.com/yourusername/arb-hedger/internal/provider"
	"github.com/yourusername/arb-hedger/internal/scheduler"
	"github.com/yourusername/arb-hedger/internal/service"
)

// ActorHeader names the caller recorded in audit entries
const ActorHeader = "X-Actor"

const defaultActor = "api"

// Scanner estimates and runs paid scans
type Scanner interface {
	Estimate(filter service.ScanFilter) (*provider.Estimate, error)
	Scan(ctx context.Context, req service.ScanRequest) (*service.ScanResult, error)
}

// OpportunityLister returns unexpired opportunities
type OpportunityLister interface {
	ListActive(ctx context.Context) ([]*models.ArbitrageOpportunity, error)
}

// JobRunner runs and reports scheduler jobs
type JobRunner interface {
	Trigger(ctx context.Context, name, actor string) (*models.JobRun, error)
	Status() []scheduler.JobStatus
}

// BetManager records and updates user bets
type BetManager interface {
	Create(ctx context.Context, actor string, bet *models.UserBet) error
	SetTracking(ctx context.Context, actor string, id uuid.UUID, tracked bool) (*models.UserBet, error)
	Settle(ctx context.Context, actor string, id uuid.UUID, status models.BetStatus) (*models.UserBet, error)
	Hedges(ctx context.Context, id uuid.UUID) ([]*models.HedgeSuggestion, error)
}

// EligibilityLookup resolves jurisdictions to sportsbooks
type EligibilityLookup interface {
	EligibleBookmakers(jurisdictions []string) ([]string, error)
}

// Deps are the services the API serves
type Deps struct {
	Scans         Scanner
	Opportunities OpportunityLister
	Jobs          JobRunner
	Bets          BetManager
	Eligibility   EligibilityLookup
	Hub           *Hub
}

// Config holds listener settings
type Config struct {
	Port           int
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Server is the engine's HTTP API
type Server struct {
	deps   Deps
	cfg    Config
	router chi.Router
	server *http.Server
	logger *logrus.Entry
}

// NewServer builds the router
func NewServer(cfg Config, deps Deps, log *logrus.Logger) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	s := &Server{
		deps:   deps,
		cfg:    cfg,
		logger: log.WithField("component", "api"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", ActorHeader},
		MaxAge:         300,
	}))

	if s.deps.Hub != nil {
		r.Get("/ws/opportunities", s.deps.Hub.ServeWS)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))

		r.Post("/estimate", s.handleEstimate)
		r.Post("/scan", s.handleScan)
		r.Get("/opportunities", s.handleOpportunities)
		r.Get("/eligibility", s.handleEligibility)

		r.Get("/jobs", s.handleJobs)
		r.Post("/jobs/{name}/run", s.handleRunJob)

		r.Post("/bets", s.handleCreateBet)
		r.Patch("/bets/{id}", s.handleUpdateBet)
		r.Get("/bets/{id}/hedges", s.handleBetHedges)
	})

	return r
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens in the background until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.WithField("port", s.cfg.Port).Info("API server starting")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("API server error")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.Shutdown()
	}()
	return nil
}

// Shutdown gracefully stops the listener and disconnects feed subscribers
func (s *Server) Shutdown() error {
	if s.deps.Hub != nil {
		s.deps.Hub.Close()
	}
	if s.server == nil {
		return nil
	}
	s.logger.Info("API server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  chimiddleware.GetReqID(r.Context()),
		}).Debug("Request handled")
	})
}

func actorFrom(r *http.Request) string {
	if actor := r.Header.Get(ActorHeader); actor != "" {
		return actor
	}
	return defaultActor
}

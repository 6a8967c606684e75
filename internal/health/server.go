// Package health serves the engine's liveness and readiness checks over HTTP
// and the standard gRPC health protocol.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	defaultPort  = "8080"
	pingTimeout  = 3 * time.Second
	stopDeadline = 5 * time.Second
)

// DatabasePinger defines the interface for checking database connectivity.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// CreditReporter exposes the provider credits left in the budget.
type CreditReporter interface {
	Remaining() int
}

// HealthResponse is the body of /health and /live.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
}

// ReadyResponse is the body of /ready.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Credits  *int              `json:"credits_remaining,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// Config holds the configuration for the health server.
type Config struct {
	ServiceName string
	Version     string
	Commit      string
	Port        string
	// GRPCPort enables the gRPC health service when non-zero
	GRPCPort int
	Logger   *logrus.Logger
	DB       DatabasePinger
	Credits  CreditReporter
}

// Server exposes readiness to load balancers over HTTP and to gRPC health
// clients. Both views are driven by SetReady.
type Server struct {
	cfg   Config
	ready atomic.Bool

	httpSrv    *http.Server
	grpcSrv    *grpc.Server
	grpcHealth *grpchealth.Server
	db         DatabasePinger
	log        *logrus.Entry
	stopped    atomic.Bool
}

// NewServer creates a new health server. It starts not ready.
func NewServer(cfg Config) *Server {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
		cfg.Logger.SetLevel(logrus.PanicLevel)
	}

	s := &Server{
		cfg:        cfg,
		grpcHealth: grpchealth.NewServer(),
		db:         cfg.DB,
		log:        cfg.Logger.WithField("component", "health"),
	}
	s.publishStatus(false)
	return s
}

// SetReady flips readiness for both the HTTP and gRPC views.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
	s.publishStatus(ready)
}

// IsReady returns whether the server is ready.
func (s *Server) IsReady() bool {
	return s.ready.Load()
}

func (s *Server) publishStatus(ready bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		status = healthpb.HealthCheckResponse_SERVING
	}
	// "" is the overall server status
	s.grpcHealth.SetServingStatus("", status)
	s.grpcHealth.SetServingStatus(s.cfg.ServiceName, status)
}

// GRPCHealth returns the gRPC health service backing this server.
func (s *Server) GRPCHealth() healthpb.HealthServer {
	return s.grpcHealth
}

// Handler returns the HTTP handler serving the health endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/ready", s.handleReady)
	return mux
}

// Start binds the HTTP listener and, when configured, the gRPC listener.
// Both stop when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.GRPCPort > 0 {
		lis, err := net.Listen("tcp", ":"+strconv.Itoa(s.cfg.GRPCPort))
		if err != nil {
			return fmt.Errorf("failed to listen for grpc health: %w", err)
		}
		s.grpcSrv = grpc.NewServer()
		healthpb.RegisterHealthServer(s.grpcSrv, s.grpcHealth)
		go s.serveGRPC(lis)
	}

	lis, err := net.Listen("tcp", ":"+s.cfg.Port)
	if err != nil {
		return fmt.Errorf("failed to listen for health checks: %w", err)
	}
	s.httpSrv = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go s.serveHTTP(lis)

	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			s.log.WithError(err).Warn("Health server shutdown incomplete")
		}
	}()
	return nil
}

func (s *Server) serveHTTP(lis net.Listener) {
	s.log.WithFields(logrus.Fields{"port": s.cfg.Port, "service": s.cfg.ServiceName}).Info("Health check server starting")
	if err := s.httpSrv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.WithError(err).Error("Health check server error")
	}
}

func (s *Server) serveGRPC(lis net.Listener) {
	s.log.WithField("port", s.cfg.GRPCPort).Info("gRPC health server starting")
	if err := s.grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		s.log.WithError(err).Error("gRPC health server error")
	}
}

// Shutdown stops both listeners. Calls after the first are no-ops.
func (s *Server) Shutdown() error {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	s.log.Info("Health check server shutting down")

	// Tell gRPC watchers before the listener goes away.
	s.grpcHealth.Shutdown()
	if s.grpcSrv != nil {
		s.grpcSrv.GracefulStop()
	}
	if s.httpSrv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopDeadline)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   s.cfg.ServiceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.cfg.Version,
		Commit:    s.cfg.Commit,
	})
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Service: s.cfg.ServiceName})
}

// handleReady fails on a not-ready flag or an unreachable database. An
// exhausted credit budget is reported but leaves the engine ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resp := ReadyResponse{Service: s.cfg.ServiceName, Checks: make(map[string]string)}
	healthy := true

	if s.IsReady() {
		resp.Checks["service"] = "ok"
	} else {
		resp.Checks["service"] = "not_ready"
		healthy = false
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		err := s.db.Ping(ctx)
		cancel()
		if err != nil {
			resp.Checks["database"] = fmt.Sprintf("error: %v", err)
			healthy = false
		} else {
			resp.Checks["database"] = "ok"
		}
	}

	if s.cfg.Credits != nil {
		remaining := s.cfg.Credits.Remaining()
		resp.Credits = &remaining
		resp.Checks["credits"] = "ok"
		if remaining <= 0 {
			resp.Checks["credits"] = "exhausted"
		}
	}
	resp.Duration = time.Since(start).String()

	status := http.StatusOK
	resp.Status = "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		resp.Status = "not_ready"
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

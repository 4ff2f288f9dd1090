// Package http exposes the intel engine over a local admin/decision API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/eunjuhyun88/maxidoge-intel/internal/audit"
	"github.com/eunjuhyun88/maxidoge-intel/internal/decision"
	"github.com/eunjuhyun88/maxidoge-intel/internal/gate"
	"github.com/eunjuhyun88/maxidoge-intel/internal/helpfulness"
	"github.com/eunjuhyun88/maxidoge-intel/internal/policy"
	"github.com/eunjuhyun88/maxidoge-intel/internal/telemetry"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// RequestsPerSecond caps the admin surface; bursts of twice the rate
	// are tolerated.
	RequestsPerSecond float64
}

// DefaultServerConfig returns a local-only server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              8087,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		RequestsPerSecond: 50,
	}
}

// Server wires the engine components behind a gorilla/mux router.
type Server struct {
	router  *mux.Router
	server  *http.Server
	config  ServerConfig
	limiter *rate.Limiter

	policyStore *policy.Store
	qualityGate *gate.QualityGate
	engine      *decision.Engine
	auditLog    *audit.Log
	helpEval    *helpfulness.Evaluator
	metrics     *telemetry.Metrics
}

// NewServer creates the HTTP server around one set of engine components.
func NewServer(config ServerConfig, store *policy.Store, qualityGate *gate.QualityGate, engine *decision.Engine, auditLog *audit.Log, helpEval *helpfulness.Evaluator, metrics *telemetry.Metrics) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		config:      config,
		limiter:     rate.NewLimiter(rate.Limit(config.RequestsPerSecond), int(config.RequestsPerSecond*2)),
		policyStore: store,
		qualityGate: qualityGate,
		engine:      engine,
		auditLog:    auditLog,
		helpEval:    helpEval,
		metrics:     metrics,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.rateLimitMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	s.router.HandleFunc("/policy", s.handlePolicyGet).Methods(http.MethodGet)
	s.router.HandleFunc("/policy", s.handlePolicySet).Methods(http.MethodPut)
	s.router.HandleFunc("/policy", s.handlePolicyPatch).Methods(http.MethodPatch)
	s.router.HandleFunc("/policy/reset", s.handlePolicyReset).Methods(http.MethodPost)

	s.router.HandleFunc("/gate/evaluate", s.handleGateEvaluate).Methods(http.MethodPost)
	s.router.HandleFunc("/gate/evaluate/features", s.handleGateEvaluateFeatures).Methods(http.MethodPost)
	s.router.HandleFunc("/gatelog", s.handleGateLogList).Methods(http.MethodGet)
	s.router.HandleFunc("/gatelog", s.handleGateLogClear).Methods(http.MethodDelete)

	s.router.HandleFunc("/decision", s.handleDecision).Methods(http.MethodPost)
	s.router.HandleFunc("/helpfulness/backtest", s.handleBacktestImpact).Methods(http.MethodPost)
	s.router.HandleFunc("/helpfulness/evaluate", s.handleHelpfulness).Methods(http.MethodPost)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until the context is cancelled, then drains with a
// five-second grace period.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.server.Addr).Msg("intel HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

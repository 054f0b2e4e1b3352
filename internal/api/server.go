// Package api serves the grid over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/leapstack-labs/gridsql/internal/metrics"
	"github.com/leapstack-labs/gridsql/internal/mutate"
	"github.com/leapstack-labs/gridsql/internal/query"
	"github.com/leapstack-labs/gridsql/pkg/core"
)

// Service is the grid backend the handlers call.
type Service interface {
	ListTables() []string
	GetColumns(table string) ([]core.Column, error)
	RunQuery(ctx context.Context, table string, opts query.Options) (*core.QueryResult, error)
	ApplyEdits(ctx context.Context, table string, edits []mutate.EditDescriptor) ([]mutate.EditResult, error)
	RunCheck(ctx context.Context, name, table string) (*core.QueryResult, error)
	Ping(ctx context.Context) error
}

// Defaults applied by NewServer for zero config values.
const (
	DefaultAddr              = ":8080"
	DefaultMaxLimit          = 1000
	DefaultEditRate          = 5.0
	DefaultEditBurst         = 20
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 5 * time.Second
)

// Config holds configuration for the HTTP server.
type Config struct {
	Service Service
	Addr    string
	// CORSOrigins lists allowed browser origins; empty disables CORS headers.
	CORSOrigins []string
	// EditRate is the per-client edit request rate in requests per second.
	EditRate  float64
	EditBurst int
	// MaxLimit caps the page size a client may request.
	MaxLimit          int
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	Logger            *slog.Logger
}

// Server is the grid HTTP server.
type Server struct {
	svc     Service
	cfg     Config
	logger  *slog.Logger
	limiter *RateLimiter
	handler http.Handler
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = DefaultMaxLimit
	}
	if cfg.EditRate <= 0 {
		cfg.EditRate = DefaultEditRate
	}
	if cfg.EditBurst <= 0 {
		cfg.EditBurst = DefaultEditBurst
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		svc:     cfg.Service,
		cfg:     cfg,
		logger:  logger,
		limiter: NewRateLimiter(rate.Limit(cfg.EditRate), cfg.EditBurst),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.requestLogger,
		middleware.Recoverer,
		metrics.Middleware,
	)
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Get("/tables", s.handleListTables)
		r.Route("/tables/{table}", func(r chi.Router) {
			r.Get("/columns", s.handleColumns)
			r.Post("/query", s.handleQuery)
			r.With(RateLimitMiddleware(s.limiter)).Post("/edits", s.handleEdits)
			r.Get("/checks/{check}", s.handleCheck)
		})
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "route not found"})
	})
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting grid server", "addr", ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		s.limiter.Run(egctx)
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down grid server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// Package http exposes the ledger, its aggregates and the advice request as a JSON API.
package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"bumdes/internal/advice"
	"bumdes/internal/cache"
	"bumdes/internal/core"
	"bumdes/internal/log"
	"bumdes/internal/metrics"
	"bumdes/internal/middleware/ratelimit"
	"bumdes/internal/middleware/security"
	"bumdes/internal/middleware/trace"
)

// Ledger is the part of the transaction store the handlers use.
type Ledger interface {
	Add(ctx context.Context, n core.NewTransaction) (core.Transaction, error)
	Remove(ctx context.Context, id string) bool
	Get(id string) (core.Transaction, bool)
	Snapshot() ([]core.Transaction, uint64)
	Units() []core.BusinessUnit
}

type Advisor interface {
	Advise(ctx context.Context, txs []core.Transaction, units []core.BusinessUnit) advice.Result
}

type Config struct {
	Addr               string
	RateLimitPerMinute int
	TrustedProxies     []string
	ReportCacheSize    int
	ReportCacheTTL     time.Duration
	Logger             *log.Logger
}

type Server struct {
	http.Server

	ledger       Ledger
	advisor      Advisor
	reports      *cache.Reports
	cacheManager *cache.Manager
	limiter      *ratelimit.Limiter
	logger       *log.Logger
	now          func() time.Time
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, ledger Ledger, advisor Advisor) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if cfg.ReportCacheSize <= 0 {
		cfg.ReportCacheSize = 32
	}
	if cfg.ReportCacheTTL <= 0 {
		cfg.ReportCacheTTL = 10 * time.Minute
	}

	resolver, err := security.NewClientIPResolver(cfg.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	rlConfig := ratelimit.DefaultConfig()
	if cfg.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = cfg.RateLimitPerMinute
	}

	s := &Server{
		ledger:       ledger,
		advisor:      advisor,
		reports:      cache.NewReports(cfg.ReportCacheSize, cfg.ReportCacheTTL),
		cacheManager: cache.NewManager(),
		limiter:      ratelimit.NewLimiter(rlConfig),
		logger:       logger.WithComponent(log.ComponentHTTP),
		now:          time.Now,
	}
	s.cacheManager.Register(s.reports)
	s.cacheManager.StartCleanup(time.Minute)

	mux := http.NewServeMux()
	s.handle(mux, "GET /api/units", s.handleListUnits)
	s.handle(mux, "GET /api/transactions", s.handleListTransactions)
	s.handle(mux, "POST /api/transactions", s.handleCreateTransaction)
	s.handle(mux, "GET /api/transactions/{id}", s.handleGetTransaction)
	s.handle(mux, "DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	s.handle(mux, "GET /api/report", s.handleReport)
	s.handle(mux, "POST /api/advice", s.handleAdvice)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	var h http.Handler = mux
	h = s.limiter.Middleware(resolver.ExtractClientIP, ratelimit.MutatingOnly, s.onRateLimited)(h)
	h = trace.NewMiddleware(logger, resolver.ExtractClientIP).Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// handle registers h and records request metrics under the route pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	route := pattern
	if _, path, ok := strings.Cut(pattern, " "); ok {
		route = path
	}
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).
		WarnContext(r.Context(), "Rate limit exceeded", log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "Terlalu banyak permintaan. Silakan coba lagi nanti.")
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once the ledger has been initialized.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, rev := s.ledger.Snapshot(); rev == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("initializing"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

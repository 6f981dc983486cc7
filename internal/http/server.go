// Package http is the reference REST server behind the client gateway. It
// computes every derived view from the store on demand and caches the
// results until a write invalidates them.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"kharcha/internal/cache"
	"kharcha/internal/log"
	"kharcha/internal/middleware/ratelimit"
	"kharcha/internal/middleware/security"
	"kharcha/internal/middleware/trace"
	"kharcha/internal/refresh"
	"kharcha/internal/services"
)

const (
	defaultViewCacheSize = 256
	maxBodyBytes         = 1 << 20
)

type Server struct {
	http.Server

	svc      *services.RecordService
	views    *cache.LRUCache[any]
	caches   *cache.Manager
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	hub      *refresh.Hub
	now      func() time.Time
	logger   *log.Logger

	shutdownOnce sync.Once
}

type options struct {
	now            func() time.Time
	logger         *log.Logger
	rateLimit      int
	cacheTTL       time.Duration
	allowedOrigins []string
	hub            *refresh.Hub
}

type Option func(*options)

// WithClock replaces time.Now. Editability and date-relative views use it.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRateLimit sets the POST budget per client IP and minute.
func WithRateLimit(perMinute int) Option {
	return func(o *options) { o.rateLimit = perMinute }
}

// WithCacheTTL bounds how long a computed view is served. Zero keeps views
// until a write invalidates them.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) { o.cacheTTL = ttl }
}

// WithAllowedOrigins grants CORS access to the listed browser origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(o *options) { o.allowedOrigins = origins }
}

// WithHub publishes record_created events to an existing hub instead of a
// private one.
func WithHub(h *refresh.Hub) Option {
	return func(o *options) { o.hub = h }
}

// NewServer wires the routes and middleware. Call Shutdown to stop the
// background sweepers along with the listener.
func NewServer(addr string, svc *services.RecordService, opts ...Option) *Server {
	o := options{
		now:       time.Now,
		rateLimit: ratelimit.DefaultConfig().RequestsPerMinute,
		cacheTTL:  5 * time.Minute,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Discard()
	}
	if o.hub == nil {
		o.hub = refresh.NewHub()
	}
	logger := o.logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		svc:      svc,
		views:    cache.NewLRUCache[any](defaultViewCacheSize, o.cacheTTL, cache.WithClock(o.now)),
		caches:   cache.NewManager(o.logger),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: o.rateLimit, Now: o.now}),
		detector: security.NewDetector(),
		hub:      o.hub,
		now:      o.now,
		logger:   logger,
	}
	s.tracer = trace.NewMiddleware(o.logger, s.detector.ExtractClientIP)
	s.caches.Register(s.views)
	s.caches.Start(context.Background(), 10*time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/dashboard/overview", s.handleOverview)
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/loans", s.handleListLoans)
	mux.HandleFunc("POST /api/loans", s.handleCreateLoan)
	mux.HandleFunc("GET /api/committees", s.handleListCommittees)
	mux.HandleFunc("POST /api/committees", s.handleCreateCommittee)
	mux.HandleFunc("POST /api/committees/{id}/payment", s.handleCreateCommitteePayment)
	mux.HandleFunc("POST /api/income", s.handleCreateIncome)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/payment-methods", s.handlePaymentMethods)

	mux.HandleFunc("GET /api/analytics/monthly-summary", s.handleMonthlySummary)
	mux.HandleFunc("GET /api/analytics/loan-timeline", s.handleLoanTimeline)
	mux.HandleFunc("GET /api/analytics/net-values/{month}", s.handleNetValues)
	mux.HandleFunc("GET /api/analytics/last-20-days", s.handleRecentSpending)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/events", s.handleEvents)

	headers := security.DefaultHeadersConfig()
	headers.AllowedOrigins = o.allowedOrigins

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.rateLimited, http.MethodPost)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(headers).Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Hub is where record_created events are published.
func (s *Server) Hub() *refresh.Hub { return s.hub }

// Shutdown stops the sweepers and drains the listener. It is safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.svc.Store().Ping(ctx); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

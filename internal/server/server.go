// Package server serves a service.Service over HTTP with JSON bodies.
package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/kwertop/algokit"
	"github.com/kwertop/algokit/service"
)

// DefaultMaxUpload caps request bodies, file uploads included.
const DefaultMaxUpload = 5 << 20

type options struct {
	logger    *algokit.Logger
	redis     *redis.Client
	rateLimit float64
	maxUpload int64
}

// Option configures a Server.
type Option func(*options)

// WithLogger sets the request logger.
func WithLogger(logger *algokit.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRedis enables GET /ping-redis against client.
func WithRedis(client *redis.Client) Option {
	return func(o *options) { o.redis = client }
}

// WithRateLimit caps accepted requests per second. Zero or less disables
// limiting.
func WithRateLimit(perSecond float64) Option {
	return func(o *options) { o.rateLimit = perSecond }
}

// WithMaxUpload caps request bodies at n bytes.
func WithMaxUpload(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxUpload = n
		}
	}
}

// Server routes HTTP requests to a Service.
type Server struct {
	svc       *service.Service
	logger    *algokit.Logger
	redis     *redis.Client
	limiter   *rate.Limiter
	maxUpload int64
	metrics   *metrics
	routes    []route
	mux       *http.ServeMux
}

type route struct {
	method  string
	path    string
	name    string
	handler http.HandlerFunc
}

// New builds a Server for svc.
func New(svc *service.Service, opts ...Option) *Server {
	cfg := options{
		logger:    algokit.NoopLogger(),
		maxUpload: DefaultMaxUpload,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Server{
		svc:       svc,
		logger:    cfg.logger,
		redis:     cfg.redis,
		maxUpload: cfg.maxUpload,
		metrics:   newMetrics(),
		mux:       http.NewServeMux(),
	}
	if cfg.rateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.rateLimit), max(1, int(cfg.rateLimit)))
	}

	s.routes = []route{
		{http.MethodGet, "/health", "health", s.handleHealth},
		{http.MethodGet, "/{$}", "index", s.handleIndex},
		{http.MethodGet, "/ping-redis", "ping_redis", s.handlePingRedis},
		{http.MethodPost, "/pathfinding", "pathfinding", s.handlePathfinding},
		{http.MethodPost, "/guilds/cycle", "guilds_cycle", s.handleCycle},
		{http.MethodPost, "/reservoir", "reservoir", s.handleReservoir},
		{http.MethodPost, "/cms", "cms", s.handleSketch},
		{http.MethodPost, "/sha256", "sha256", s.handleDigest},
		{http.MethodPost, "/bloom/add", "bloom_add", s.handleBloomAdd},
		{http.MethodPost, "/bloom/check", "bloom_check", s.handleBloomCheck},
	}
	for _, rt := range s.routes {
		s.mux.Handle(rt.method+" "+rt.path, s.instrument(rt.name, rt.handler))
	}
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		s.metrics.limited.Inc()
		writeJSON(w, http.StatusTooManyRequests, errorBody{Message: "too many requests"})
		return
	}
	s.mux.ServeHTTP(w, r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(name string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		elapsed := time.Since(start)
		s.metrics.observeRequest(name, rec.status, elapsed)
		s.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", name,
			"status", rec.status,
			"duration", elapsed,
		)
	})
}

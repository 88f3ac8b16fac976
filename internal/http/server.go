package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"bankroll/internal/cache"
	"bankroll/internal/log"
	"bankroll/internal/metrics"
	"bankroll/internal/middleware/ratelimit"
	"bankroll/internal/middleware/security"
	"bankroll/internal/middleware/trace"
	"bankroll/internal/services"
	appweb "bankroll/web"
)

const defaultRequestTimeout = 15 * time.Second

// Rendered charts are kept per distinct series.
const (
	chartCacheSize = 32
	chartCacheTTL  = 10 * time.Minute
)

// Options configures NewServer.
type Options struct {
	Addr               string
	Records            *services.RecordService
	Metrics            *metrics.Metrics
	Logger             *log.Logger
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
}

type Server struct {
	http.Server
	templates *template.Template
	records   *services.RecordService
	metrics   *metrics.Metrics
	limiter   *ratelimit.Limiter
	charts    *cache.LRU[[]byte]
	logger    *log.Logger
	startedAt time.Time

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and mounts every route.
func NewServer(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	t, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		templates: t,
		records:   opts.Records,
		metrics:   opts.Metrics,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		charts:    cache.NewLRU[[]byte](chartCacheSize, chartCacheTTL),
		logger:    opts.Logger.WithComponent(log.ComponentHTTP),
		startedAt: time.Now(),
	}
	handler, err := s.routes(opts)
	if err != nil {
		s.limiter.Stop()
		return nil, err
	}
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func parseTemplates() (*template.Template, error) {
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

func (s *Server) routes(opts Options) (http.Handler, error) {
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(trace.NewMiddleware(s.logger, s.metrics).Handler)
	r.Use(middleware.Recoverer)
	r.Use(security.Screen)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", s.metrics.Handler())
	r.With(security.StaticAssets(3600)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	limited := s.limiter.Middleware(clientKey, s.metrics)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))
		r.Use(limited)

		r.Get("/", s.handleOverview)

		r.Route("/bets", func(r chi.Router) {
			r.Get("/", s.handleBetsPage)
			r.Post("/", s.handleCreateBet)
			r.Get("/input", s.handleBetForm)
			r.Post("/input/recompute", s.handleBetRecompute)
			r.Get("/analytics", s.handleBetAnalytics)
			r.Get("/analytics/chart.png", s.handleBetChart)
			r.Get("/history", s.handleBetHistory)
			r.Post("/history/select-all", s.handleBetSelectAll)
			r.Post("/history/bulk", s.handleBetBulk)
			r.Post("/{id}/result", s.handleBetResult)
			r.Get("/{id}/edit", s.handleBetEdit)
			r.Post("/{id}/edit/recompute", s.handleBetEditRecompute)
			r.Put("/{id}", s.handleUpdateBet)
			r.Delete("/{id}", s.handleDeleteBet)
		})

		r.Route("/trades", func(r chi.Router) {
			r.Get("/", s.handleTradesPage)
			r.Post("/", s.handleCreateTrade)
			r.Get("/input", s.handleTradeForm)
			r.Post("/input/recompute", s.handleTradeRecompute)
			r.Get("/analytics", s.handleTradeAnalytics)
			r.Get("/analytics/chart.png", s.handleTradeChart)
			r.Get("/history", s.handleTradeHistory)
			r.Post("/history/select-all", s.handleTradeSelectAll)
			r.Post("/history/bulk", s.handleTradeBulk)
			r.Get("/{id}/edit", s.handleTradeEdit)
			r.Post("/{id}/edit/recompute", s.handleTradeEditRecompute)
			r.Put("/{id}", s.handleUpdateTrade)
			r.Delete("/{id}", s.handleDeleteTrade)
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", trace.HeaderRequestID},
			ExposedHeaders: []string{trace.HeaderRequestID},
			MaxAge:         300,
		}))
		r.Use(middleware.Timeout(opts.RequestTimeout))
		r.Use(limited)

		r.Get("/bets", s.handleAPIBets)
		r.Get("/trades", s.handleAPITrades)
		r.Get("/bets/analytics", s.handleAPIBetAnalytics)
		r.Get("/trades/analytics", s.handleAPITradeAnalytics)
	})

	return r, nil
}

// clientKey identifies the client for rate limiting. RealIP has already
// replaced RemoteAddr when the request came through a proxy.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"washlog/internal/cache"
	applog "washlog/internal/log"
	"washlog/internal/middleware/ratelimit"
	"washlog/internal/middleware/security"
	"washlog/internal/middleware/trace"
	"washlog/internal/pages"
	"washlog/internal/washapi"
	appweb "washlog/web"
)

// Server serves the landing, registration and dashboard pages.
type Server struct {
	http.Server
	templates *template.Template
	cfg       pages.Config
	register  *pages.RegisterController
	dashboard *pages.DashboardController
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	caches    *cache.Manager
	logger    *applog.Logger
	started   time.Time
	backend   washapi.Backend
	dashOpts  []pages.DashboardOption

	filterChanges atomic.Int64

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithLogger sets the application logger.
func WithLogger(l *applog.Logger) Option {
	return func(s *Server) { s.logger = l.WithComponent(applog.ComponentHTTP) }
}

// WithRateLimit overrides the per-IP limit on POST requests.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) { s.limiter = ratelimit.NewLimiter(cfg) }
}

// WithDashboardOptions passes options to the dashboard controller.
func WithDashboardOptions(opts ...pages.DashboardOption) Option {
	return func(s *Server) { s.dashOpts = append(s.dashOpts, opts...) }
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
// Template parse failures are logged and reported by /readyz.
func NewServer(addr string, cfg pages.Config, backend washapi.Backend, opts ...Option) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		cfg:     cfg,
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		tracer:  trace.NewMiddleware(security.ClientIP),
		logger:  applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP),
		started: time.Now(),
		backend: backend,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.register = pages.NewRegisterController(cfg, backend, pages.WithRegisterLogger(s.logger))
	s.dashboard = pages.NewDashboardController(cfg, backend,
		append([]pages.DashboardOption{pages.WithDashboardLogger(s.logger)}, s.dashOpts...)...)

	s.caches = cache.NewManager(s.logger.Logger)
	s.caches.Register("dashboard_views", s.dashboard.Views())
	s.caches.Register("register_tokens", s.register.Completed())
	s.caches.Register("rate_limiter", s.limiter)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(applog.Middleware(s.logger))
	r.Use(s.tracer.Middleware)
	r.Use(applog.RequestIDMiddleware(trace.RequestID))
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.limiter.Middleware(security.ClientIP, s.onRateLimit, http.MethodPost))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		r.With(security.StaticAssetMiddleware(3600)).
			Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	r.Get("/", s.handleIndex)
	r.Get("/register", s.handleRegisterPage)
	r.Post("/register", s.handleRegisterSubmit)
	r.Get("/dashboard", s.handleDashboard)
	r.Get("/dashboard/views/{id}", s.handleDashboardView)
	r.Delete("/dashboard/views/{id}", s.handleDashboardDiscard)

	return r
}

// StartMaintenance schedules periodic cleanup of dashboard views, spent
// form tokens and rate limiter entries.
func (s *Server) StartMaintenance(interval time.Duration) error {
	return s.caches.StartCleanup(interval)
}

// Shutdown stops background maintenance and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe is http.Server.ListenAndServe with ErrServerClosed treated as a clean stop.
func (s *Server) ListenAndServe() error {
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, security.ClientIP(r),
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError("Too many requests. Please try again later.").Write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "index.html", struct {
		Title      string
		Configured bool
	}{Title: "Dishwashing Log", Configured: s.cfg.Configured})
}

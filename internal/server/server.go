// Package server is the composition root: it builds every dependency from
// a config.Config, mounts the routes and runs the HTTP server alongside the
// reminder scheduler.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config
//	  → sqlite.DB ─────────────┬→ AuthService → UserHandler, AuthHandler
//	                           ├→ JobService  → JobHandler
//	                           └→ Scanner, StateUpdater ┐
//	  → email.Transport ───────┬→ MailService → MailHandler
//	                           └→ Notifier ─────────────┴→ Runner → Scheduler
//
// Nothing below this package reads the environment or constructs its own
// collaborators.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/job-tracker/internal/auth"
	"github.com/sakif/job-tracker/internal/config"
	"github.com/sakif/job-tracker/internal/handler"
	"github.com/sakif/job-tracker/internal/middleware"
	"github.com/sakif/job-tracker/internal/reminder"
	sqliteRepo "github.com/sakif/job-tracker/internal/repository/sqlite"
	"github.com/sakif/job-tracker/internal/service"
)

// ErrMissingSecret is returned by New when no JWT secret is configured.
var ErrMissingSecret = errors.New("server: JWT_SECRET is required")

// Server owns the router, the database connection and the scheduler.
//
// RESOURCE MANAGEMENT:
// The database is opened in New and closed when Start returns. Callers
// that never call Start must call Close.
type Server struct {
	router    *chi.Mux
	config    *config.Config
	logger    *slog.Logger
	db        *sqliteRepo.DB
	registry  *prometheus.Registry
	runner    *reminder.Runner
	scheduler *reminder.Scheduler // nil unless reminders are enabled
}

// New wires the whole application from cfg.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, ErrMissingSecret
	}
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	// === DATABASE ===
	db, err := OpenDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		registry: prometheus.NewRegistry(),
	}
	if err := s.build(tokens); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// build creates the services, the reminder pipeline and the routes.
func (s *Server) build(tokens *auth.TokenService) error {
	cfg := s.config

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics, err := middleware.NewHTTPMetrics(s.registry)
	if err != nil {
		return fmt.Errorf("registering http metrics: %w", err)
	}
	reminderMetrics, err := reminder.NewMetrics(s.registry)
	if err != nil {
		return fmt.Errorf("registering reminder metrics: %w", err)
	}

	// === EMAIL + REMINDERS ===
	transport, err := NewTransport(cfg.Email, s.logger)
	if err != nil {
		return err
	}
	s.runner, err = NewRunner(cfg.Reminder, s.db, transport, reminderMetrics, s.logger)
	if err != nil {
		return err
	}
	if cfg.Reminder.Enabled {
		loc, err := cfg.Reminder.Location()
		if err != nil {
			return fmt.Errorf("reminder timezone: %w", err)
		}
		s.scheduler, err = reminder.NewScheduler(s.runner, cfg.Reminder.Schedule, loc, s.logger)
		if err != nil {
			return fmt.Errorf("creating reminder scheduler: %w", err)
		}
	}

	// === SERVICES + HANDLERS ===
	var github *auth.GitHubProvider
	if cfg.GitHub.IsConfigured() {
		github = auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.GitHub.CallbackURL)
	}

	authService := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), s.logger)
	h := handlers{
		users:  handler.NewUserHandler(authService, tokens.TTL(), s.logger),
		oauth:  handler.NewAuthHandler(github, authService, tokens.TTL(), s.logger),
		jobs:   handler.NewJobHandler(service.NewJobService(s.db, s.logger), s.logger),
		mail:   handler.NewMailHandler(service.NewMailService(transport, s.logger), s.logger),
		health: handler.NewHealthHandler(s.db, s.logger),
	}

	s.setupRoutes(h, tokens, httpMetrics)
	return nil
}

type handlers struct {
	users  *handler.UserHandler
	oauth  *handler.AuthHandler
	jobs   *handler.JobHandler
	mail   *handler.MailHandler
	health *handler.HealthHandler
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /                       → plain-text banner
//	GET    /healthz                → database ping
//	GET    /metrics                → Prometheus
//	GET    /auth/github/login      → GitHub redirect
//	GET    /auth/github/callback   → GitHub sign-in
//	POST   /auth/logout            → clear token cookie
//	POST   /api/users/signup       → register
//	POST   /api/users/login        → token
//	GET    /api/me                 → current user            [auth]
//	POST   /api/jobs               → create                  [auth]
//	GET    /api/jobs               → list                    [auth]
//	GET    /api/jobs/stats         → counts by status        [auth]
//	POST   /api/jobs/import        → CSV import              [auth]
//	GET    /api/jobs/{id}          → get                     [auth]
//	PUT    /api/jobs/{id}          → partial update          [auth]
//	DELETE /api/jobs/{id}          → delete                  [auth]
//	POST   /api/test-email/test    → send a test message     [auth]
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs first so the logger can print it, and Recoverer sits
// inside Logger and the metrics middleware so a panic is still recorded
// as a 500.
func (s *Server) setupRoutes(h handlers, tokens *auth.TokenService, httpMetrics *middleware.HTTPMetrics) {
	r := s.router

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(httpMetrics.Middleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: !allowsAnyOrigin(s.config.Server.AllowedOrigins),
		MaxAge:           300,
	}))

	r.Get("/", h.health.HandleRoot)
	r.Get("/healthz", h.health.HandleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	r.Route("/auth", func(r chi.Router) {
		r.Get("/github/login", h.oauth.HandleGitHubLogin)
		r.Get("/github/callback", h.oauth.HandleGitHubCallback)
		r.Post("/logout", h.oauth.HandleLogout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/users/signup", h.users.HandleSignup)
		r.Post("/users/login", h.users.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", h.users.HandleMe)
			r.Post("/test-email/test", h.mail.HandleSendTest)

			r.Route("/jobs", func(r chi.Router) {
				r.Post("/", h.jobs.HandleCreate)
				r.Get("/", h.jobs.HandleList)
				// Static segments before /{id}.
				r.Get("/stats", h.jobs.HandleStats)
				r.Post("/import", h.jobs.HandleImport)
				r.Get("/{id}", h.jobs.HandleGet)
				r.Put("/{id}", h.jobs.HandleUpdate)
				r.Delete("/{id}", h.jobs.HandleDelete)
			})
		})
	})
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Runner returns the reminder pipeline so callers can trigger a cycle
// outside the schedule.
func (s *Server) Runner() *reminder.Runner {
	return s.runner
}

// Close releases the database. Start calls it on the way out.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves HTTP and runs the reminder scheduler until ctx is
// cancelled, then shuts both down within the configured timeout.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting connections and drain in-flight requests
//  2. Stop the scheduler and wait for a running cycle to finish
//  3. Close the database
func (s *Server) Start(ctx context.Context) error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("database", s.config.Database.Path),
			slog.Bool("reminders", s.scheduler != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if s.scheduler != nil {
		s.scheduler.Start()
	}

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("graceful shutdown failed: %w", err))
		}
		if s.scheduler != nil {
			select {
			case <-s.scheduler.Stop().Done():
			case <-shutdownCtx.Done():
				errs = append(errs, errors.New("reminder cycle still running at shutdown deadline"))
			}
		}
		if len(errs) == 0 {
			s.logger.Info("server stopped gracefully")
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// OpenDatabase creates the parent directory of path if needed and opens
// the SQLite store.
func OpenDatabase(path string) (*sqliteRepo.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqliteRepo.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: it opens the store, builds the services and
// handlers on top of it, and mounts them on a chi router. Nothing below this
// package knows which database or object store is in use.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/report-portal/internal/auth"
	"github.com/sakif/report-portal/internal/config"
	"github.com/sakif/report-portal/internal/handler"
	"github.com/sakif/report-portal/internal/middleware"
	"github.com/sakif/report-portal/internal/service"
	"github.com/sakif/report-portal/internal/upload"
)

// shutdownTimeout is how long in-flight requests get to finish.
const shutdownTimeout = 30 * time.Second

// Server owns the router and the store connection. The store is closed
// when Start returns, or by Close.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  *store

	passwords *auth.PasswordService
}

// Option tweaks a Server before its routes are built.
type Option func(*Server)

// WithPasswordService replaces the default bcrypt cost, e.g. with a cheap
// one in tests.
func WithPasswordService(p *auth.PasswordService) Option {
	return func(s *Server) { s.passwords = p }
}

// New opens the store named by cfg.DatabaseURL and wires every route.
//
// DEPENDENCY CHAIN:
//
//	store → AuthService / ReportService / UploadService → handlers → router
//
// The uploader is passed in so main decides which object store is used.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, uploader upload.Uploader, opts ...Option) (*Server, error) {
	st, err := openStore(ctx, cfg.DatabaseURL, cfg.DatabaseName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		logger:    logger,
		store:     st,
		passwords: auth.NewPasswordService(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.setupRoutes(uploader); err != nil {
		_ = st.close(ctx)
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// POST   /api/register       → create account, returns token
// POST   /api/login          → returns token
// POST   /api/reports        → create report           [bearer]
// GET    /api/reports        → list own reports        [bearer]
// GET    /api/reports/{id}   → get own report          [bearer]
// DELETE /api/reports/{id}   → delete own report       [bearer]
// POST   /api/upload         → image upload + report   [bearer optional]
// GET    /health             → liveness
// GET    /metrics            → Prometheus
//
// Middleware order: RequestID first so every log line carries it. Recover
// runs inside Logger and Metrics so a panic is still logged and counted.
func (s *Server) setupRoutes(uploader upload.Uploader) error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics())
	s.router.Use(middleware.Recover(s.logger, !s.config.IsProduction()))
	s.router.Use(middleware.CORS(s.config.CORSAllowedOrigins))

	s.router.NotFound(handler.NotFound)
	s.router.MethodNotAllowed(handler.MethodNotAllowed)

	opts := handler.Options{
		MaxReportBytes: s.config.MaxReportBytes,
		MaxUploadBytes: s.config.MaxUploadBytes,
		ExposeErrors:   !s.config.IsProduction(),
	}

	uploadCfg := upload.DefaultConfig()
	uploadCfg.MaxBytes = s.config.MaxUploadBytes

	authService := service.NewAuthService(s.store.users, tokens, s.passwords, s.logger)
	reportService := service.NewReportService(s.store.reports, s.logger)
	uploadService := service.NewUploadService(uploader, s.store.reports, uploadCfg, s.logger)

	authHandler := handler.NewAuthHandler(authService, opts, s.logger)
	reportHandler := handler.NewReportHandler(reportService, opts, s.logger)
	uploadHandler := handler.NewUploadHandler(uploadService, opts, s.logger)

	s.router.Get("/health", handler.Health)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)

		r.With(auth.OptionalAuth(tokens)).Post("/upload", uploadHandler.HandleUpload)

		r.Route("/reports", func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Post("/", reportHandler.HandleCreate)
			r.Get("/", reportHandler.HandleList)
			r.Get("/{id}", reportHandler.HandleGet)
			r.Delete("/{id}", reportHandler.HandleDelete)
		})
	})

	return nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store connection.
func (s *Server) Close(ctx context.Context) error {
	return s.store.close(ctx)
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the store.
func (s *Server) Start() error {
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Close(ctx); err != nil {
			s.logger.Error("closing database", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Env),
			slog.String("database", s.store.kind),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

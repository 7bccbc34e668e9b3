// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where the whole
// dependency chain is assembled in one place:
//
//	sqlite.DB → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services, and nothing below the handler layer
// ever sees an *http.Request.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/apk-store/internal/auth"
	"github.com/sakif/apk-store/internal/handler"
	"github.com/sakif/apk-store/internal/middleware"
	sqliteRepo "github.com/sakif/apk-store/internal/repository/sqlite"
	"github.com/sakif/apk-store/internal/service"
	"github.com/sakif/apk-store/internal/storage"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port         int
	DBPath       string
	UploadsDir   string // icons and screenshots, served at /uploads/*
	DownloadsDir string // APK binaries, served at /downloads/*

	// CascadeDelete removes an app's reviews and screenshots when the app is
	// deleted. Off by default: orphaned reviews are invisible but harmless.
	CascadeDelete bool

	// JWTSecret enables the admin surface. When empty, every endpoint is
	// open — fine for local development, not for anything reachable from
	// the internet.
	JWTSecret string

	// Password admin login (used when JWTSecret is set).
	AdminUsername     string
	AdminPasswordHash string

	// GitHub OAuth admin login (optional).
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
	AdminLogins        []string // GitHub logins allowed to administer
}

// Server owns the router, the database connection, and the file store.
// The database is closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server and wires the whole dependency chain.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the assembled router. Handler tests mount it directly on
// httptest.Server instead of going through Start.
func (s *Server) Handler() http.Handler { return s.router }

// Close releases the database connection. Start does this itself; Close is
// for callers that use Handler() without ever calling Start.
func (s *Server) Close() error { return s.db.Close() }

// setupRoutes configures middleware, the API routes, and the static file
// buckets.
//
// ROUTE MAP:
//
//	GET    /api/health                   → liveness probe
//	GET    /api/apps                     → paginated catalog listing
//	GET    /api/apps/search?q=           → full-text search
//	GET    /api/apps/search/{query}      → full-text search (path form)
//	GET    /api/apps/featured            → featured shelf
//	GET    /api/apps/popular             → most-downloaded shelf
//	GET    /api/apps/recent              → recently-updated shelf
//	GET    /api/apps/category/{category} → apps in one category
//	GET    /api/apps/{id}                → single app
//	GET    /api/apps/{id}/download       → APK attachment (+1 download)
//	GET    /api/download/{id}            → same download, short form
//	GET    /api/apps/{id}/reviews        → reviews, newest first
//	POST   /api/apps/{id}/reviews        → submit a review
//	GET    /api/categories               → category taxonomy
//	GET    /api/stats                    → catalog aggregates
//	POST   /api/apps                     → create app          (admin)
//	PUT    /api/apps/{id}                → update app          (admin)
//	DELETE /api/apps/{id}                → delete app          (admin)
//	POST   /api/categories               → create category     (admin)
//	PUT    /api/categories/{id}          → update category     (admin)
//	DELETE /api/categories/{id}          → delete category     (admin)
//	GET    /uploads/*                    → icons & screenshots (static)
//	GET    /downloads/*                  → raw APK files       (static)
//
// ROUTE ORDER: chi matches literal segments before parameters, so
// /api/apps/search and friends must be registered in the same router as
// /api/apps/{id} — chi sorts that out, but keep the literals grouped above
// the parameterised routes for readability.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// The storefront and admin panel are static pages that may be served
	// from another host (or opened straight from disk), so the CORS policy
	// is wide open. Preflights are answered here and never hit the routes.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	files, err := storage.New(s.config.UploadsDir, s.config.DownloadsDir)
	if err != nil {
		return fmt.Errorf("creating file store: %w", err)
	}

	appService := service.NewAppService(s.db, s.db, files, s.config.CascadeDelete, s.logger)
	reviewService := service.NewReviewService(s.db, s.db, s.logger)
	categoryService := service.NewCategoryService(s.db, s.logger)

	appHandler := handler.NewAppHandler(appService, s.logger)
	reviewHandler := handler.NewReviewHandler(reviewService, s.logger)
	categoryHandler := handler.NewCategoryHandler(categoryService, s.logger)

	// requireAdmin is a no-op passthrough until a JWT secret is configured.
	requireAdmin := func(next http.Handler) http.Handler { return next }
	if s.config.JWTSecret != "" {
		tokens, err := auth.NewTokenService(s.config.JWTSecret)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
		requireAdmin = auth.RequireAdmin(tokens)

		var github *auth.GitHubProvider
		if s.config.GitHubClientID != "" {
			github = auth.NewGitHubProvider(
				s.config.GitHubClientID,
				s.config.GitHubClientSecret,
				s.config.GitHubCallbackURL,
				s.config.AdminLogins,
			)
		}

		authHandler := handler.NewAuthHandler(
			github,
			tokens,
			auth.NewPasswordService(),
			handler.AdminCredentials{
				Username:     s.config.AdminUsername,
				PasswordHash: s.config.AdminPasswordHash,
			},
			s.logger,
		)

		s.router.Post("/api/auth/login", authHandler.HandleLogin)
		s.router.Post("/api/auth/logout", authHandler.HandleLogout)
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		s.router.With(requireAdmin).Get("/api/auth/me", authHandler.HandleMe)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", handler.HandleHealth)
		r.Get("/stats", appHandler.HandleStats)

		r.Get("/apps", appHandler.HandleList)
		r.Get("/apps/search", appHandler.HandleSearch)
		r.Get("/apps/search/{query}", appHandler.HandleSearchPath)
		r.Get("/apps/featured", appHandler.HandleFeatured)
		r.Get("/apps/popular", appHandler.HandlePopular)
		r.Get("/apps/recent", appHandler.HandleRecent)
		r.Get("/apps/category/{category}", appHandler.HandleByCategory)
		r.Get("/apps/{id}", appHandler.HandleGet)
		r.Get("/apps/{id}/download", appHandler.HandleDownload)
		r.Get("/download/{id}", appHandler.HandleDownload)
		r.Get("/apps/{id}/reviews", reviewHandler.HandleList)
		r.Post("/apps/{id}/reviews", reviewHandler.HandleCreate)

		r.Get("/categories", categoryHandler.HandleList)

		// Admin mutations
		r.With(requireAdmin).Post("/apps", appHandler.HandleCreate)
		r.With(requireAdmin).Put("/apps/{id}", appHandler.HandleUpdate)
		r.With(requireAdmin).Delete("/apps/{id}", appHandler.HandleDelete)
		r.With(requireAdmin).Post("/categories", categoryHandler.HandleCreate)
		r.With(requireAdmin).Put("/categories/{id}", categoryHandler.HandleUpdate)
		r.With(requireAdmin).Delete("/categories/{id}", categoryHandler.HandleDelete)
	})

	// Static buckets: icons/screenshots and raw APKs are served directly
	// from disk. The API download route is preferred for APKs because it
	// counts the download; /downloads/* exists for clients that already
	// hold a filename.
	uploadsFS := http.FileServer(http.Dir(s.config.UploadsDir))
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", uploadsFS))
	downloadsFS := http.FileServer(http.Dir(s.config.DownloadsDir))
	s.router.Handle("/downloads/*", http.StripPrefix("/downloads/", downloadsFS))

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database (flushes the WAL, releases the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		// WriteTimeout needs headroom for APK downloads on slow links.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Package server wires handlers, middleware, and routes together and owns
// the HTTP server lifecycle. This is the composition root: every
// dependency — database, token service, provider client, services,
// handlers — is assembled here, and each layer only receives the
// interfaces it needs.
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

	"github.com/sakif/news-aggregator/internal/auth"
	"github.com/sakif/news-aggregator/internal/handler"
	"github.com/sakif/news-aggregator/internal/middleware"
	"github.com/sakif/news-aggregator/internal/newsapi"
	sqliteRepo "github.com/sakif/news-aggregator/internal/repository/sqlite"
	"github.com/sakif/news-aggregator/internal/service"
)

// Config holds server configuration, loaded from the environment in
// cmd/server.
type Config struct {
	Port          int
	DBPath        string
	JWTSecret     string
	News          newsapi.Config
	IngestWorkers int
	IngestTimeout time.Duration
}

// Server is the HTTP server and its owned resources. The database
// connection belongs to the server and is closed during shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server: opens the database, builds the token and password
// services, the provider client, the domain services, and the route table.
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

// setupRoutes assembles the dependency graph and mounts the route table:
//
//	GET    /categories                  public
//	GET    /categories/{id}             public
//	POST   /categories                  admin
//	PUT    /categories/{id}             admin
//	DELETE /categories/{id}             admin
//	GET    /news/category/{categoryId}  public
//	GET    /news/search?query=          public
//	GET    /news/personalized           auth
//	POST   /news/save/{newsId}          auth
//	GET    /news/saved                  auth
//	DELETE /news/saved/{newsId}         auth
//	POST   /news/fetch                  admin
//	POST   /users/register              public
//	POST   /users/login                 public
//	GET    /users/profile               auth
//	PUT    /users/preferences           auth
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()
	provider := newsapi.New(s.config.News)

	categoryService := service.NewCategoryService(s.db, s.db, s.db, s.logger)
	feedService := service.NewFeedService(s.db, s.db, s.logger)
	savedService := service.NewSavedService(s.db, s.logger)
	ingestService := service.NewIngestService(provider, s.db, s.db, s.logger,
		s.config.IngestWorkers, s.config.IngestTimeout)
	userService := service.NewUserService(s.db, s.db, s.db, tokens, passwords, s.logger)

	categoryHandler := handler.NewCategoryHandler(categoryService, s.logger)
	newsHandler := handler.NewNewsHandler(feedService, savedService, ingestService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)

	requireAuth := auth.RequireAuth(tokens, s.db)
	requireAdmin := auth.RequireAdmin()

	s.router.Route("/categories", func(r chi.Router) {
		r.Get("/", categoryHandler.HandleList)
		r.Get("/{id}", categoryHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, requireAdmin)
			r.Post("/", categoryHandler.HandleCreate)
			r.Put("/{id}", categoryHandler.HandleUpdate)
			r.Delete("/{id}", categoryHandler.HandleDelete)
		})
	})

	s.router.Route("/news", func(r chi.Router) {
		r.Get("/category/{categoryId}", newsHandler.HandleByCategory)
		r.Get("/search", newsHandler.HandleSearch)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/personalized", newsHandler.HandlePersonalized)
			r.Post("/save/{newsId}", newsHandler.HandleSave)
			r.Get("/saved", newsHandler.HandleListSaved)
			r.Delete("/saved/{newsId}", newsHandler.HandleDeleteSaved)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, requireAdmin)
			r.Post("/fetch", newsHandler.HandleFetch)
		})
	})

	s.router.Route("/users", func(r chi.Router) {
		r.Post("/register", userHandler.HandleRegister)
		r.Post("/login", userHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/profile", userHandler.HandleProfile)
			r.Put("/preferences", userHandler.HandleUpdatePreferences)
		})
	})

	return nil
}

// Router exposes the assembled route table. Tests drive requests through
// it without binding a port.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, give in-flight requests 30 seconds, close
// the database so the WAL is flushed.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
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

// Package server wires handlers, middleware, and routes into a running HTTP
// server. This is the composition root: every dependency in the app is
// constructed here (or in main) and injected downward —
//
//	sqlite.DB → repositories → services → handlers → routes
//
// so handlers never touch the database and services never touch HTTP.
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

	"github.com/sakif/tutor-backend/internal/aiclient"
	"github.com/sakif/tutor-backend/internal/auth"
	"github.com/sakif/tutor-backend/internal/config"
	"github.com/sakif/tutor-backend/internal/handler"
	"github.com/sakif/tutor-backend/internal/middleware"
	sqliteRepo "github.com/sakif/tutor-backend/internal/repository/sqlite"
	"github.com/sakif/tutor-backend/internal/service"
)

// Server owns the router and the resources that must be released on
// shutdown (today: the database).
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain and returns a Server ready to
// Start.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
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

// setupRoutes configures middleware and all route handlers.
//
// ROUTE STRUCTURE:
//
//	GET  /                            → liveness text
//	POST /api/register-temp-user      → create an account
//	POST /api/login                   → start a session        (JWT configured)
//	GET  /api/me                      → current user           (auth)
//	GET  /api/user-data               → progress+achievements  (auth)
//	PUT  /api/user-data/progress      → merge progress patch   (auth)
//	PUT  /api/user-data/achievements  → merge achievements patch (auth)
//	POST /api/chat/message            → AI tutoring proxy
//	GET  /auth/github/login|callback  → GitHub OAuth           (credentials configured)
//	POST /auth/logout                 → clear session cookie
//
// Auth routes degrade rather than break the boot: without JWT_SECRET the
// protected routes are simply not registered (and the log says so loudly),
// which keeps local hacking on the chat proxy friction-free.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// The frontend is a separate app on a different origin, so CORS is wide
	// open with credentials allowed (the session rides on a cookie).
	s.router.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  func(r *http.Request, origin string) bool { return true },
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tutor backend is running"))
	})

	// === AI proxy (no auth, as the frontend expects) ===
	tutor := aiclient.New(s.config.AIServiceURL, s.config.DefaultProvider, nil)
	chatHandler := handler.NewChatHandler(tutor, s.logger)
	s.router.Post("/api/chat/message", chatHandler.HandleMessage)

	// === Accounts and user data ===
	if s.config.JWTSecret == "" {
		s.logger.Warn("JWT_SECRET not set — account and user-data routes are disabled")
		return nil
	}

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	userDataService := service.NewUserDataService(s.db.Progress(), s.db.Achievements(), s.logger)

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	userDataHandler := handler.NewUserDataHandler(userDataService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/register-temp-user", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", authHandler.HandleMe)
			r.Get("/user-data", userDataHandler.HandleGet)
			r.Put("/user-data/progress", userDataHandler.HandleUpdateProgress)
			r.Put("/user-data/achievements", userDataHandler.HandleUpdateAchievements)
		})
	})

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/logout", authHandler.HandleLogout)
		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30s, and
// close the database (flushes the WAL, releases the file lock).
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
			slog.String("aiService", s.config.AIServiceURL),
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

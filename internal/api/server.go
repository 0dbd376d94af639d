// Package api wires the HTTP surface: routing, auth middleware and the
// JSON handlers.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gitport/gitport/internal/api/handlers"
	"github.com/gitport/gitport/internal/auth"
	"github.com/gitport/gitport/internal/config"
	"github.com/gitport/gitport/internal/services"
	"github.com/gitport/gitport/internal/storage"
)

type Server struct {
	config  *config.Config
	db      *storage.Database
	logger  *slog.Logger
	handler *handlers.Handler
	authMW  *auth.Middleware
}

func NewServer(cfg *config.Config, db *storage.Database, jwtManager *auth.JWTManager, logger *slog.Logger) *Server {
	repos := services.NewRepositoryService(db, logger)
	migrations := services.NewMigrationService(db, repos, logger)

	return &Server{
		config:  cfg,
		db:      db,
		logger:  logger,
		handler: handlers.NewHandler(db, migrations, repos, jwtManager, logger),
		authMW:  auth.NewMiddleware(jwtManager, logger),
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints
	mux.HandleFunc("GET /health", s.handler.Health)
	mux.HandleFunc("POST /api/signup", s.handler.Signup)
	mux.HandleFunc("POST /api/login", s.handler.Login)

	// Authenticated endpoints
	protected := func(h http.HandlerFunc) http.Handler {
		return s.authMW.RequireAuth(h)
	}

	mux.Handle("GET /api/me", protected(s.handler.GetCurrentUser))
	mux.Handle("GET /api/dashboard", protected(s.handler.GetDashboard))
	mux.Handle("GET /api/migrations", protected(s.handler.ListMigrations))
	mux.Handle("POST /api/migrations", protected(s.handler.CreateMigration))
	mux.Handle("GET /api/migrations/{id}", protected(s.handler.GetMigration))
	mux.Handle("GET /api/repositories", protected(s.handler.ListRepositories))
	mux.Handle("POST /api/repositories", protected(s.handler.ConnectRepository))
	mux.Handle("GET /api/settings", protected(s.handler.GetSettings))
	mux.Handle("PUT /api/settings", protected(s.handler.UpdateSettings))

	return mux
}

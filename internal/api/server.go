// Package api provides the HTTP API server and handlers for the gutenbae review service.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gutenbae/gutenbae-server/internal/http/response"
	"github.com/gutenbae/gutenbae-server/internal/ratelimit"
	"github.com/gutenbae/gutenbae-server/internal/service"
	"github.com/gutenbae/gutenbae-server/internal/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	authService    *service.AuthService
	reviewService  *service.ReviewService
	userService    *service.UserService
	sseHandler     *sse.Handler
	authLimiter    *ratelimit.KeyedRateLimiter
	allowedOrigins []string
	router         *chi.Mux
	logger         *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	authService *service.AuthService,
	reviewService *service.ReviewService,
	userService *service.UserService,
	sseHandler *sse.Handler,
	authLimiter *ratelimit.KeyedRateLimiter,
	allowedOrigins []string,
	logger *slog.Logger,
) *Server {
	s := &Server{
		authService:    authService,
		reviewService:  reviewService,
		userService:    userService,
		sseHandler:     sseHandler,
		authLimiter:    authLimiter,
		allowedOrigins: allowedOrigins,
		router:         chi.NewRouter(),
		logger:         logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth endpoints (public, rate limited per client IP).
		r.Route("/auth", func(r chi.Router) {
			r.Use(s.rateLimitByIP)
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
		})

		r.Route("/reviews", func(r chi.Router) {
			// Reading reviews and watching the fact stream is public.
			r.Get("/stream", s.sseHandler.ServeHTTP)
			r.Get("/book/{bookID}", s.handleListBookReviews)

			// Mutations require auth.
			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/", s.handleSubmitReview)
				r.Put("/{id}", s.handleEditReview)
				r.Delete("/{id}", s.handleDeleteReview)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/me", s.handleGetCurrentUser)
			r.Get("/{userID}/reviews", s.handleListUserReviews)
			r.Post("/{userID}/password", s.handleChangePassword)
			r.Delete("/{userID}", s.handleDeleteAccount)
		})
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}

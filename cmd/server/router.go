package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stellae/stellae-api/internal/api"
	apiMiddleware "github.com/stellae/stellae-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	// Create API handlers using the application's services
	tokenLifetime := time.Duration(app.config.Auth.TokenLifetimeMinutes) * time.Minute
	authHandler := api.NewAuthHandler(app.userService, app.jwtService, tokenLifetime, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	noteHandler := api.NewNoteHandler(app.noteService, app.logger)
	nodeHandler := api.NewNodeHandler(app.nodeService, app.logger)
	reviewHandler := api.NewReviewHandler(app.reviewManager, app.logger)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Note capture endpoints
			r.Post("/notes", noteHandler.CreateNote)
			r.Get("/notes/{id}", noteHandler.GetNote)

			// Node and flashcard endpoints
			r.Get("/nodes/stats", nodeHandler.GetStats)
			r.Get("/nodes/{id}", nodeHandler.GetNode)
			r.Delete("/nodes/{id}", nodeHandler.DeleteNode)
			r.Get("/cards", nodeHandler.ListCards)

			// Review session endpoints
			r.Post("/review/session", reviewHandler.BuildSession)
			r.Get("/review/session", reviewHandler.GetSession)
			r.Delete("/review/session", reviewHandler.EndSession)
			r.Post("/review/session/reveal", reviewHandler.Reveal)
			r.Post("/review/session/grade", reviewHandler.Grade)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}

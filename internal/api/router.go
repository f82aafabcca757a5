/**
 * @description
 * This file sets up the HTTP router for the verification service using the
 * `chi` routing library. It defines all the API routes and applies necessary
 * middleware.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: The routing library.
 * - github.com/go-chi/cors: CORS middleware for mobile/web clients.
 * - The service's internal packages for handlers and middleware.
 */
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/4zee/verification-service/internal/app"
	"github.com/4zee/verification-service/internal/config"
	"github.com/4zee/verification-service/pkg/middleware"
)

// NewRouter creates and configures a new HTTP router.
func NewRouter(cfg *config.Config, service *app.VerificationService) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	wizardHandler := NewWizardHandler(service, cfg.MaxUploadSizeBytes())
	accountHandler := NewAccountHandler(service)
	bankHandler := NewBankHandler(service)
	kycHandler := NewKycHandler(service)

	// Group routes that require authentication
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.AuthJWTSecret))

		r.Route("/wizards", func(r chi.Router) {
			r.Post("/", wizardHandler.StartWizard)
			r.Get("/{id}", wizardHandler.GetSession)
			r.Put("/{id}/input", wizardHandler.SetInput)
			r.Post("/{id}/uploads", wizardHandler.Upload)
			r.Post("/{id}/advance", wizardHandler.Advance)
			r.Post("/{id}/retreat", wizardHandler.Retreat)
			r.Post("/{id}/reset", wizardHandler.Reset)
			r.Delete("/{id}", wizardHandler.Cancel)
		})

		r.Route("/bank-accounts", func(r chi.Router) {
			r.Get("/", accountHandler.ListAccounts)
			r.Post("/{id}/default", accountHandler.SetDefault)
			r.Delete("/{id}", accountHandler.DeleteAccount)
		})

		r.Route("/banks", func(r chi.Router) {
			r.Get("/", bankHandler.ListBanks)
		})

		r.Route("/kyc", func(r chi.Router) {
			r.Get("/status", kycHandler.Status)
		})
	})

	return r
}

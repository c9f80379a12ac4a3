package routes

import (
	"net/http"
	"time"

	"github.com/adplane/ads-control-plane/app"
	"github.com/adplane/ads-control-plane/handlers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var pinger handlers.Pinger
	if deps.DB != nil {
		pinger = deps.DB
	}
	healthHandler := handlers.NewHealthHandler(pinger, deps.Logger)
	campaignHandler := handlers.NewCampaignHandler(deps.Gateway, deps.Logger)
	adsetHandler := handlers.NewAdSetHandler(deps.Gateway, deps.Logger)
	adHandler := handlers.NewAdHandler(deps.Gateway, deps.Logger)
	accountHandler := handlers.NewAccountHandler(deps.Gateway, deps.Logger)
	settingsHandler := handlers.NewSettingsHandler(deps.Gateway, deps.Logger)
	preflightHandler := handlers.NewPreflightHandler(deps.Gateway, deps.Logger)

	// Health endpoints, unauthenticated
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/health/ready", healthHandler.HandleReadiness)

	// API v1 routes, all behind service-token auth
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)
		r.Use(deps.AuthMiddleware.ExtractTenant)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", accountHandler.HandleListAccounts)

			r.Route("/{accountID}", func(r chi.Router) {
				r.Get("/campaigns", campaignHandler.HandleList)
				r.Post("/campaigns", campaignHandler.HandleCreate)
				r.Get("/adsets", adsetHandler.HandleList)
				r.Post("/adsets", adsetHandler.HandleCreate)
				r.Get("/ads", adHandler.HandleList)
				r.Post("/ads", adHandler.HandleCreate)
				r.Get("/insights", accountHandler.HandleAccountInsights)

				r.Put("/default-page", settingsHandler.HandleSetDefaultPage)

				r.Get("/dsa", settingsHandler.HandleGetDsa)
				r.Put("/dsa", settingsHandler.HandleSetDsa)
				r.Get("/dsa/suggestions", settingsHandler.HandleDsaSuggestions)
			})
		})

		r.Route("/campaigns/{campaignID}", func(r chi.Router) {
			r.Get("/", campaignHandler.HandleGet)
			r.Put("/", campaignHandler.HandleUpdate)
			r.Post("/duplicate", campaignHandler.HandleDuplicate)
			r.Get("/insights", accountHandler.HandleCampaignInsights)
		})

		r.Route("/adsets/{adSetID}", func(r chi.Router) {
			r.Get("/", adsetHandler.HandleGet)
			r.Put("/", adsetHandler.HandleUpdate)
			r.Post("/duplicate", adsetHandler.HandleDuplicate)
			r.Get("/insights", accountHandler.HandleAdSetInsights)
		})

		r.Route("/ads/{adID}", func(r chi.Router) {
			r.Get("/", adHandler.HandleGet)
			r.Put("/", adHandler.HandleUpdate)
			r.Post("/duplicate", adHandler.HandleDuplicate)
			r.Get("/insights", accountHandler.HandleAdInsights)
		})

		r.Get("/pages", accountHandler.HandleListPages)
		r.Post("/sync", settingsHandler.HandleSync)
		r.Post("/preflight", preflightHandler.HandlePreflight)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"NOT_FOUND","message":"NOT_FOUND: endpoint not found"}`))
	})

	return r
}

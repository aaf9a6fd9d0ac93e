package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/straintree/straintree-backend/internal/api/handlers"
	"github.com/straintree/straintree-backend/internal/config"
	"github.com/straintree/straintree-backend/internal/metrics"
	"github.com/straintree/straintree-backend/internal/middleware"
	"github.com/straintree/straintree-backend/internal/services"
)

// NewRouter wires every endpoint. Session resolution runs for all routes;
// endpoints that need a user enforce it themselves, so public reads work
// with or without a cookie.
func NewRouter(cfg config.Config, authSvc *services.AuthService, strainSvc *services.StrainService, treeSvc *services.TreeService, exportSvc *services.ExportService) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.RateLimit(cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	r.Use(middleware.HTTPMetrics)
	r.Use(middleware.Sessions(authSvc))

	authH := handlers.NewAuthHandler(authSvc)
	strainH := handlers.NewStrainHandler(strainSvc)
	treeH := handlers.NewTreeHandler(treeSvc)
	exportH := handlers.NewExportHandler(exportSvc)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authH.Register)
			r.Post("/login", authH.Login)
			r.Post("/logout", authH.Logout)
			r.Get("/me", authH.Me)
			r.Get("/check", authH.Check)
		})

		r.Route("/strains", func(r chi.Router) {
			r.Get("/", strainH.List)
			r.Post("/", strainH.Create)
			r.Get("/verified", strainH.Verified)
			r.Get("/search", strainH.Search)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", strainH.Get)
				r.Put("/", strainH.Update)
				r.Post("/verify", strainH.Verify)
				r.Post("/submit-verification", strainH.SubmitVerification)
			})
		})

		r.Route("/family-trees", func(r chi.Router) {
			r.Get("/", treeH.List)
			r.Post("/", treeH.Create)
			r.Get("/public", treeH.Public)
			r.Get("/shared/{token}", treeH.Shared)
			r.Post("/parent-strains", treeH.ParentStrains)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", treeH.Get)
				r.Put("/", treeH.Update)
				r.Delete("/", treeH.Delete)
				r.Get("/visualization", treeH.Visualization)
				r.Get("/available-strains", treeH.AvailableStrains)
				r.Get("/next-generation", treeH.NextGeneration)
				r.Post("/generate-offspring", treeH.GenerateOffspring)
				r.Post("/crosses", treeH.CreateCross)
				r.Put("/crosses/{crossId}", treeH.UpdateCross)
				r.Delete("/crosses/{crossId}", treeH.DeleteCross)
			})
		})

		r.Route("/pdf", func(r chi.Router) {
			r.Get("/plans", exportH.Plans)
			r.Post("/create-payment-intent", exportH.CreatePaymentIntent)
			r.Post("/confirm-payment", exportH.ConfirmPayment)
			r.Get("/download/{token}", exportH.Download)
		})
	})

	return r
}

package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/upb/structured-logger/app"
	"github.com/upb/structured-logger/handlers"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", deps.Config.Handler.TraceHeader},
		ExposedHeaders:   []string{deps.Config.Handler.TraceHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	health := handlers.NewHealthHandler(deps.SQLDB(), deps.Redis, deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.Config.Metrics.Enabled {
		r.Handle(deps.Config.Metrics.Path, promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// API v1 routes. Every request gets its own structured record batch.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deps.Causers.Handler)
		r.Use(deps.StructuredLogging.Handler)

		employees := handlers.NewEmployeeHandler(deps.EmployeeService, deps.Logger)
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", employees.HandleList)
			r.Post("/", employees.HandleCreate)
			r.Get("/{id}", employees.HandleGet)
			r.Patch("/{id}", employees.HandleUpdate)
			r.Delete("/{id}", employees.HandleDelete)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}

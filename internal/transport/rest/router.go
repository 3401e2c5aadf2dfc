package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/employee-records/api"
	"github.com/frahmantamala/employee-records/internal/employee"
	"github.com/frahmantamala/employee-records/internal/metrics"
	"github.com/frahmantamala/employee-records/internal/transport/middleware"
	"github.com/frahmantamala/employee-records/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// RouterConfig carries everything RegisterAllRoutes mounts. Nil handlers are skipped.
type RouterConfig struct {
	Health          *HealthHandler
	EmployeeHandler *employee.Handler
	Metrics         *metrics.Metrics
	MetricsPath     string
	AllowedOrigins  []string
	Logger          *slog.Logger
}

func RegisterAllRoutes(router chi.Router, cfg RouterConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.Metrics(cfg.Metrics))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.OpenAPI())
	})
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))

	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, cfg.Metrics.Handler())
	}

	router.Route("/api", func(r chi.Router) {
		if cfg.Health != nil {
			r.Get("/health", cfg.Health.healthCheckHandler)
			r.Get("/ping", cfg.Health.pingHandler)
		}

		if cfg.EmployeeHandler != nil {
			r.Route("/employees", cfg.EmployeeHandler.Routes)
		}
	})
}

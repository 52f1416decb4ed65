package app

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"energyforecast/internal/config"
	apierrors "energyforecast/internal/errors"
	"energyforecast/internal/middleware"
	handlers "energyforecast/internal/transport/http"
)

// routes builds the router. /metrics and /ws sit outside the API middleware
// stack; API requests pass OTel, logging, recovery, security headers, the
// optional rate limit, then body limit and timeout.
func (a *Application) routes() *chi.Mux {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	r.Use(middleware.RequestID, middleware.RealIP)

	if h := a.OTelProviders.PrometheusHTTP; h != nil {
		r.Handle(config.MetricsEndpoint, h)
	}
	r.Handle(config.WebSocketEndpoint, a.Hub)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOTelMiddleware(a.Metrics, a.Logger).Handler)
		r.Use(middleware.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(errorHandler))
		r.Use(middleware.SecurityHeaders)

		if rl := a.Config.Security.RateLimit; rl.Enabled {
			r.Use(middleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Use(middleware.BodyLimit(a.Config.Server.MaxBodyBytes))
			r.Use(middleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

			health := handlers.NewHealthHandler(a.HealthService, a.Logger)
			r.Get("/health", health.HealthCheck)
			r.Get("/health/ready", health.ReadinessCheck)
			r.Get("/version", health.Version)

			r.Mount("/v1", handlers.NewPrepareHandler(a.PrepareService, a.Logger, errorHandler).Routes())
		})
	})

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)
	return r
}

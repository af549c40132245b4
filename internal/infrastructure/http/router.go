package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/confhub/confhub/internal/domain"
	"github.com/confhub/confhub/internal/infrastructure/http/handlers"
	"github.com/confhub/confhub/internal/infrastructure/http/middleware"
)

type RouterConfig struct {
	AuthHandler           *handlers.AuthHandler
	ApplicationsHandler   *handlers.ApplicationsHandler
	ConfigurationsHandler *handlers.ConfigurationsHandler
	HealthHandler         *handlers.HealthHandler
	RequireJWT            func(http.Handler) http.Handler
	CORS                  func(http.Handler) http.Handler
	Secure                func(http.Handler) http.Handler
	IPRateLimit           func(http.Handler) http.Handler
	Log                   zerolog.Logger
	Metrics               bool // expose /metrics
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(loggerMiddleware(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}
	// form-urlencoded is allowed for the Apple form_post callback.
	r.Use(chimid.AllowContentType("application/json", "application/x-www-form-urlencoded"))
	if cfg.IPRateLimit != nil {
		r.Use(cfg.IPRateLimit)
	}

	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.ServeHTTP)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
	}
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/providers", cfg.AuthHandler.Providers)
			r.Get("/authorize/{provider}", cfg.AuthHandler.Authorize)
			r.Get("/callback", cfg.AuthHandler.Callback)
			r.Post("/callback", cfg.AuthHandler.Callback)
			r.Post("/refresh", cfg.AuthHandler.Refresh)
			r.Post("/logout", cfg.AuthHandler.Logout)
			r.Group(func(r chi.Router) {
				r.Use(cfg.RequireJWT)
				r.Get("/me", cfg.AuthHandler.Me)
			})
			r.Group(func(r chi.Router) {
				r.Use(cfg.RequireJWT)
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Put("/users/{id}/role", cfg.AuthHandler.UpdateRole)
			})
		})

		r.Route("/applications", func(r chi.Router) {
			r.Use(cfg.RequireJWT)
			r.Get("/", cfg.ApplicationsHandler.List)
			r.Post("/", cfg.ApplicationsHandler.Create)
			r.Delete("/", cfg.ApplicationsHandler.BulkDelete)
			r.Route("/{appId}", func(r chi.Router) {
				r.Get("/", cfg.ApplicationsHandler.Get)
				r.Put("/", cfg.ApplicationsHandler.Update)
				r.Delete("/", cfg.ApplicationsHandler.Delete)

				r.Route("/configurations", func(r chi.Router) {
					r.Get("/", cfg.ConfigurationsHandler.List)
					r.Post("/", cfg.ConfigurationsHandler.Create)
					r.Get("/{id}", cfg.ConfigurationsHandler.Get)
					r.Put("/{id}", cfg.ConfigurationsHandler.Update)
					r.Delete("/{id}", cfg.ConfigurationsHandler.Delete)
				})
			})
		})
	})

	return r
}

func loggerMiddleware(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := chimid.GetReqID(r.Context())
			log.Info().
				Str("request_id", reqID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("request")
			next.ServeHTTP(w, r)
		})
	}
}

package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"memoria-client/pkg/api"
	"memoria-client/pkg/auth"
)

// NewRouter assembles the dev server's HTTP surface: CORS, request
// logging, recovery, JWT auth, and the full route table.
func NewRouter(store *Store, validator *auth.JWTValidator, logger *zap.Logger, registry *prometheus.Registry) http.Handler {
	handler := NewHandler(store, logger)
	admin := NewAdminHandler(store, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(validator, logger))

		r.Route("/media", func(r chi.Router) {
			r.Get("/", handler.ListMedia)
			r.Post("/", handler.UploadMedia)
			r.Delete("/{mediaId}", handler.DeleteMedia)
			r.Get("/{mediaId}/links", handler.MediaLinks)
		})

		r.Route("/nodes", func(r chi.Router) {
			r.Get("/", handler.ListNodes)
			r.Post("/", handler.CreateNode)
			r.Put("/{nodeId}", handler.UpdateNode)
			r.Delete("/{nodeId}", handler.DeleteNode)
			r.Get("/{nodeId}/links", handler.NodeLinks)
		})

		r.Route("/links", func(r chi.Router) {
			r.Post("/", handler.CreateLink)
			r.Delete("/", handler.DeleteLink)
		})

		r.Get("/analytics/summary", handler.AnalyticsSummary)

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", admin.ListUsers)
				r.Post("/", admin.CreateUser)
				r.Put("/{userId}", admin.UpdateUser)
				r.Delete("/{userId}", admin.DeleteUser)
			})
			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/", admin.ListSubscriptions)
				r.Post("/", admin.CreateSubscription)
				r.Delete("/{subId}", admin.DeleteSubscription)
			})
			r.Route("/packages", func(r chi.Router) {
				r.Get("/", admin.ListLimitPackages)
				r.Post("/", admin.CreateLimitPackage)
				r.Put("/{pkgId}", admin.UpdateLimitPackage)
				r.Delete("/{pkgId}", admin.DeleteLimitPackage)
			})
		})
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

package server

import (
	"net/http"

	"github.com/descubra-ms/guata/internal/api"
	"github.com/descubra-ms/guata/internal/api/handlers"
	"github.com/descubra-ms/guata/internal/api/middleware"
	"github.com/descubra-ms/guata/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Logger           *zap.Logger
	AskHandler       *handlers.AskHandler
	SessionHandler   *handlers.SessionHandler
	KnowledgeHandler *handlers.KnowledgeHandler
	// MetricsHandler defaults to the default Prometheus registry.
	MetricsHandler http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(cfg.Logger))
	r.Use(middleware.MaxBodyBytes(middleware.DefaultMaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metrics.Register()
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ask", cfg.AskHandler.Ask)
		r.Get("/sessions/{id}/turns", cfg.SessionHandler.ListTurns)

		r.Route("/knowledge", func(r chi.Router) {
			r.Get("/", cfg.KnowledgeHandler.List)
			r.Post("/search", cfg.KnowledgeHandler.Search)
			r.Get("/{id}", cfg.KnowledgeHandler.Get)
		})
	})

	return r
}

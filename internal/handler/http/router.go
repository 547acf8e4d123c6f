package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

type RouterConfig struct {
	Env            string
	Version        string
	AllowedOrigins []string
	// Metrics serves GET /metrics when non-nil.
	Metrics http.Handler
}

func NewRouter(cfg RouterConfig, reconcileHandler ReconcileHandler, idleHandler IdleHandler, productivityHandler ProductivityHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "productivity-engine"),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/reconcile", reconcileHandler.Reconcile)
		r.Post("/jobs/{name}/trigger", reconcileHandler.TriggerJob)

		r.Route("/idle", func(r chi.Router) {
			r.Get("/", idleHandler.List)
			r.Get("/{employeeID}", idleHandler.Get)
			r.Get("/{employeeID}/periods", idleHandler.ListPeriods)
		})

		r.Get("/productivity/{employeeID}", productivityHandler.Get)

		r.Route("/daily-scores", func(r chi.Router) {
			r.Get("/", productivityHandler.ListDailyScores)
			r.Post("/recompute", productivityHandler.RecomputeDailyScores)
		})
	})
	return r
}

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/danwib/tacwx/internal/archive"
	"github.com/danwib/tacwx/internal/briefing"
	"github.com/danwib/tacwx/internal/config"
	"github.com/danwib/tacwx/internal/forecast"
	"github.com/danwib/tacwx/internal/observability"
	"github.com/danwib/tacwx/internal/report"
	"github.com/danwib/tacwx/internal/websocket"
	"github.com/danwib/tacwx/pkg/logger"
)

// Router builds the HTTP routing tree
type Router struct {
	handler  *Handler
	wsServer *websocket.Server
	config   *config.Config
	logger   *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(forecastService *forecast.Service, briefingService *briefing.Service, archiveStorage *archive.Storage, reportEngine *report.Engine, wsServer *websocket.Server, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handler:  NewHandler(forecastService, briefingService, archiveStorage, reportEngine, wsServer, cfg, log),
		wsServer: wsServer,
		config:   cfg,
		logger:   log.Named("api-router"),
	}
}

// Routes returns the configured HTTP handler
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(rt.corsMiddleware)
	r.Use(rt.loggingMiddleware)
	r.Use(metricsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/forecast", rt.handler.GetForecast)
		r.Post("/forecast/refresh", rt.handler.RefreshForecast)
		r.Get("/forecast/export.csv", rt.handler.ExportCSV)
		r.Get("/forecast/export.json", rt.handler.ExportJSON)
		r.Get("/report", rt.handler.GetReport)
		r.Get("/runway-winds", rt.handler.GetRunwayWinds)
		r.Get("/history", rt.handler.GetHistory)
		r.Get("/briefing", rt.handler.GetBriefing)
		r.Get("/config", rt.handler.GetConfig)
		r.Get("/status", rt.handler.GetStatus)
		r.Get("/ws", rt.wsServer.HandleConnection)
	})

	r.Handle("/metrics", observability.Handler())

	// Everything else is the dashboard front-end
	staticHandler := NewStaticFileHandler(rt.config.Server.StaticFilesDir, rt.logger)
	r.NotFound(staticHandler.ServeHTTP)

	return r
}

// corsMiddleware applies the configured CORS policy
func (rt *Router) corsMiddleware(next http.Handler) http.Handler {
	allowed := rt.config.Server.CORSAllowedOrigins

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			for _, o := range allowed {
				if o == "*" || o == origin {
					w.Header().Set("Access-Control-Allow-Origin", o)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
					break
				}
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request with its status and duration
func (rt *Router) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		rt.logger.Debug("Request handled",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", ww.Status()),
			logger.Duration("duration", time.Since(start)))
	})
}

// metricsMiddleware records request counts and latencies per route pattern
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "static"
		}
		observability.RecordHTTPRequest(r.Method, route, ww.Status(), time.Since(start))
	})
}

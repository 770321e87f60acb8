// Package api exposes the livability map over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/livability-map/internal/config"
	"github.com/sells-group/livability-map/internal/mapview"
	"github.com/sells-group/livability-map/internal/scorer"
	"github.com/sells-group/livability-map/internal/store"
)

// Server routes HTTP requests to the map coordinator and the store.
type Server struct {
	coord   *mapview.Coordinator
	store   store.Store
	presets []scorer.Preset
	cache   *ResponseCache
	cfg     config.ServerConfig
	log     *zap.Logger
}

// NewServer creates a Server. st may be nil, in which case preset writes and
// snapshots are unavailable. presets are built-in weight sets listed
// alongside stored ones.
func NewServer(coord *mapview.Coordinator, st store.Store, cache *ResponseCache, presets []scorer.Preset, cfg config.ServerConfig) *Server {
	return &Server{
		coord:   coord,
		store:   st,
		presets: presets,
		cache:   cache,
		cfg:     cfg,
		log:     zap.L().With(zap.String("component", "api")),
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if s.cfg.RateLimit > 0 {
		r.Use(rateLimit(s.cfg.RateLimit, s.cfg.RateBurst))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/features", s.handleFeatures)
		r.Get("/features/{id}/popup", s.handlePopup)

		r.Put("/weights", s.handleWeights)
		r.Post("/weights/reset", s.handleResetWeights)
		r.Put("/property", s.handleProperty)
		r.Post("/reload", s.handleReload)

		r.Get("/presets", s.handleListPresets)
		r.Put("/presets/{name}", s.handleSavePreset)
		r.Delete("/presets/{name}", s.handleDeletePreset)
		r.Post("/presets/{name}/apply", s.handleApplyPreset)

		r.Post("/snapshots", s.handleCreateSnapshot)
		r.Get("/snapshots/{id}", s.handleGetSnapshot)

		r.Get("/cache/stats", s.handleCacheStats)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

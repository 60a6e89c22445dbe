package web

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"
	"github.com/vbonduro/homefinder/internal/listing"
	"github.com/vbonduro/homefinder/internal/service"
	"github.com/vbonduro/homefinder/internal/session"
)

type Server struct {
	service  *service.PropertyService
	listings *listing.Repository
	sessions *session.Manager
	mux      *http.ServeMux
	cors     *cors.Cors
	logger   *slog.Logger

	// stopping is closed when the HTTP server begins shutting down, ending
	// long-lived streams.
	stopping chan struct{}
	stopOnce sync.Once
}

func NewServer(svc *service.PropertyService, listings *listing.Repository, sessions *session.Manager, allowedOrigins []string, logger *slog.Logger) *Server {
	s := &Server{
		service:  svc,
		listings: listings,
		sessions: sessions,
		mux:      http.NewServeMux(),
		cors: cors.New(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", viewerHeader},
			AllowCredentials: true,
		}),
		logger:   logger,
		stopping: make(chan struct{}),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /properties", s.withSession(s.handleSearch))
	s.mux.HandleFunc("GET /properties/featured", s.withSession(s.handleFeatured))
	s.mux.HandleFunc("GET /properties/stream", s.handlePropertyStream)
	s.mux.HandleFunc("GET /properties/{id}", s.withSession(s.handleGetProperty))
	s.mux.HandleFunc("GET /searches/recent", s.withSession(s.handleRecentSearches))
	s.mux.HandleFunc("DELETE /searches/recent", s.withSession(s.handleClearSearches))

	s.mux.HandleFunc("GET /saved", s.withSession(s.handleListSaved))
	s.mux.HandleFunc("POST /saved/{id}", s.withSession(s.handleToggleSaved))

	s.mux.HandleFunc("GET /threads", s.withSession(s.handleListThreads))
	s.mux.HandleFunc("POST /threads", s.withSession(s.handleStartThread))
	s.mux.HandleFunc("GET /threads/{id}/messages", s.withSession(s.handleListMessages))
	s.mux.HandleFunc("POST /threads/{id}/messages", s.withSession(s.handleSendMessage))
	s.mux.HandleFunc("POST /threads/{id}/read", s.withSession(s.handleMarkThreadRead))
	s.mux.HandleFunc("POST /threads/{id}/activate", s.withSession(s.handleActivateThread))
	s.mux.HandleFunc("POST /chat/open", s.withSession(s.handleOpenChat))
	s.mux.HandleFunc("POST /chat/close", s.withSession(s.handleCloseChat))

	s.mux.HandleFunc("GET /notifications", s.withSession(s.handleListNotifications))
	s.mux.HandleFunc("POST /notifications", s.withSession(s.handleAddNotification))
	s.mux.HandleFunc("POST /notifications/read-all", s.withSession(s.handleMarkAllNotificationsRead))
	s.mux.HandleFunc("POST /notifications/{id}/read", s.withSession(s.handleMarkNotificationRead))
	s.mux.HandleFunc("DELETE /notifications/{id}", s.withSession(s.handleDeleteNotification))

	s.mux.HandleFunc("GET /admin/properties", s.handleQueryProperties)
	s.mux.HandleFunc("POST /admin/properties", s.handleCreateProperty)
	s.mux.HandleFunc("PUT /admin/properties/{id}", s.handleUpdateProperty)
	s.mux.HandleFunc("DELETE /admin/properties/{id}", s.handleDeleteProperty)
	s.mux.HandleFunc("GET /admin/stats", s.handleStats)

	s.mux.HandleFunc("POST /uploads", s.handleUpload)
	s.mux.HandleFunc("GET /images/{key}", s.handleGetImage)
}

// securityHeaders sets the security response headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.cors.Handler(s.mux))).ServeHTTP(w, r)
}

// NewHTTPServer returns an http.Server serving s on addr.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	srv.RegisterOnShutdown(s.StopStreams)
	return srv
}

// StopStreams ends every open property stream. Safe to call more than once.
func (s *Server) StopStreams() {
	s.stopOnce.Do(func() { close(s.stopping) })
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"loaded": s.listings.Loaded(),
	})
}

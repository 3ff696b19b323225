// File: internal/infra/web/server.go
package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-shop-bot/internal/domain/ports/repository"
	"telegram-shop-bot/internal/infra/memory"
)

// Server exposes the operational surface: health, Prometheus metrics and a
// small JWT-protected admin API for live state inspection.
type Server struct {
	sessions repository.SessionRepository
	limiter  *memory.RateLimiter
	locks    *memory.KeyedLock
	auth     *AuthManager
	secret   string
	started  time.Time
	log      *zerolog.Logger
}

func NewServer(sessions repository.SessionRepository, limiter *memory.RateLimiter, locks *memory.KeyedLock, jwtSecret string, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "AdminAPI").Logger()
	return &Server{
		sessions: sessions,
		limiter:  limiter,
		locks:    locks,
		auth:     NewAuthManager(jwtSecret, false, 30*time.Minute),
		secret:   jwtSecret,
		started:  time.Now(),
		log:      &l,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", s.healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", s.loginHandler)
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/stats", s.statsHandler)
		})
	})
	return r
}

// authMiddleware rejects requests without a valid admin JWT.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.secret == "" {
			s.log.Error().Msg("admin JWT secret is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// loginHandler exchanges the shared admin secret for a session JWT.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Secret string `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if s.secret == "" || subtle.ConstantTimeCompare([]byte(body.Secret), []byte(s.secret)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) statsHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"active_sessions": s.sessions.Len(),
		"limiter_entries": s.limiter.Entries(),
		"held_locks":      s.locks.Held(),
		"uptime_seconds":  int(time.Since(s.started).Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

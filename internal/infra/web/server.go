package web

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-job-alerts/internal/config"
	"telegram-job-alerts/internal/usecase"
)

// Server exposes the admin API: login, stats, tier changes and erasure. The
// tier endpoint is the billing hook that flips users between free and premium.
type Server struct {
	cfg     *config.AdminConfig
	auth    *AuthManager
	statsUC usecase.StatsUseCase
	userUC  usecase.UserUseCase
	log     *zerolog.Logger
	server  *http.Server
}

func NewServer(cfg *config.AdminConfig, statsUC usecase.StatsUseCase, userUC usecase.UserUseCase, logger *zerolog.Logger) *Server {
	compLog := logger.With().Str("component", "AdminWeb").Logger()
	return &Server{
		cfg:     cfg,
		auth:    NewAuthManager(cfg.JWTSecret, false, cfg.SessionTTL),
		statsUC: statsUC,
		userUC:  userUC,
		log:     &compLog,
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/stats", s.handleStats)
			r.Put("/users/{id}/tier", s.handleSetTier)
			r.Delete("/users/{id}", s.handleEraseUser)
		})
	})
	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.Routes(),
	}
	s.log.Info().Int("port", s.cfg.Port).Msg("admin server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// authMiddleware requires a valid admin session (JWT from /login).
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) apiKeyMatches(key string) bool {
	if s.cfg.APIKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.APIKey)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

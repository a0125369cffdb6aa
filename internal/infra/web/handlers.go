package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"telegram-job-alerts/internal/domain"
	"telegram-job-alerts/internal/domain/model"
)

type loginRequest struct {
	APIKey string `json:"api_key"`
}

// handleLogin exchanges the static API key for a short-lived session JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !s.apiKeyMatches(req.APIKey) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	token, err := s.auth.Mint(w)
	if err != nil {
		s.log.Error().Err(err).Msg("mint session token")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Token string `json:"token"`
	}{Token: token})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	report, err := s.statsUC.Summary(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("stats summary")
		http.Error(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

type setTierRequest struct {
	Tier string `json:"tier"`
}

func (s *Server) handleSetTier(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return
	}

	var req setTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	tier, err := model.ParseTier(req.Tier)
	if err != nil {
		http.Error(w, "Unknown tier", http.StatusUnprocessableEntity)
		return
	}

	if err := s.userUC.SetTier(r.Context(), id, tier); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.log.Error().Err(err).Str("user_id", id).Msg("set tier")
		http.Error(w, "Failed to set tier", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		ID   string `json:"id"`
		Tier string `json:"tier"`
	}{ID: id, Tier: string(tier)})
}

func (s *Server) handleEraseUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return
	}

	if err := s.userUC.Erase(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.log.Error().Err(err).Str("user_id", id).Msg("erase user")
		http.Error(w, "Failed to erase user", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

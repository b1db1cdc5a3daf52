package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"fan-insights/internal/auth"
	"fan-insights/internal/middleware"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (l loginRequest) validate() error {
	if strings.TrimSpace(l.Username) == "" {
		return errors.New("missing username")
	}
	if l.Password == "" {
		return errors.New("missing password")
	}
	return nil
}

type loginResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	ExpiresAt string `json:"expires_at"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("invalid json body"))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if !s.credentials.CheckLogin(req.Username, req.Password) {
		s.logger.Info().Str("username", req.Username).Msg("login rejected")
		writeError(w, http.StatusUnauthorized, "auth_failed", auth.ErrInvalidCredentials)
		return
	}

	session, err := s.sessions.Create(req.Username)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create session")
		writeError(w, http.StatusInternalServerError, "internal", nil)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     session.Token,
		Username:  session.Username,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// handleLogout ends the session and drops the cached table, matching the
// original dashboard's cache clear on sign-out.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	s.sessions.Delete(token)
	s.fans.InvalidateCache()

	if session, ok := middleware.GetSession(r.Context()); ok {
		s.logger.Info().Str("username", session.Username).Msg("session ended")
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

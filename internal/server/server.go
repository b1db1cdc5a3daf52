// Package server wires the HTTP JSON API over the insight services.
package server

import (
	"encoding/json"
	"net/http"

	"fan-insights/internal/auth"
	"fan-insights/internal/domain"
	"fan-insights/internal/middleware"
	"fan-insights/internal/service"

	"github.com/rs/zerolog"
)

type Server struct {
	fans        *service.FanService
	insights    *service.InsightsService
	credentials *auth.CredentialStore
	sessions    *auth.SessionStore
	logger      zerolog.Logger
}

func NewServer(
	fans *service.FanService,
	insights *service.InsightsService,
	credentials *auth.CredentialStore,
	sessions *auth.SessionStore,
	logger zerolog.Logger,
) *Server {
	return &Server{
		fans:        fans,
		insights:    insights,
		credentials: credentials,
		sessions:    sessions,
		logger:      logger,
	}
}

// Register attaches all routes to mux. Everything except login and healthz
// sits behind the session middleware.
func (s *Server) Register(mux *http.ServeMux) {
	requireSession := middleware.RequireSession(s.sessions, s.logger)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/login", s.handleLogin)

	mux.Handle("POST /api/logout", requireSession(http.HandlerFunc(s.handleLogout)))
	mux.Handle("GET /api/dashboard", requireSession(http.HandlerFunc(s.handleDashboard)))
	mux.Handle("GET /api/clubs", requireSession(http.HandlerFunc(s.handleClubs)))
	mux.Handle("GET /api/clubs/{club}", requireSession(http.HandlerFunc(s.handleClubAnalysis)))
	mux.Handle("POST /api/segment", requireSession(http.HandlerFunc(s.handleSegment)))
	mux.Handle("POST /api/segment/export", requireSession(http.HandlerFunc(s.handleExport)))
	mux.Handle("GET /api/search", requireSession(http.HandlerFunc(s.handleSearch)))
	mux.Handle("GET /api/imports", requireSession(http.HandlerFunc(s.handleImports)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fanResponse is the wire shape of one fan record.
type fanResponse struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Club        string `json:"club"`
	Age         *int   `json:"age"`
	Sex         string `json:"sex"`
	Nationality string `json:"nationality"`
	Document    string `json:"document"`
	Alias       string `json:"alias"`
}

func toFanResponses(records []domain.FanRecord) []fanResponse {
	out := make([]fanResponse, len(records))
	for i, rec := range records {
		out[i] = fanResponse{
			FullName:    rec.FullName,
			Email:       rec.Email,
			Club:        rec.Club,
			Age:         rec.Age,
			Sex:         rec.Sex,
			Nationality: rec.Nationality,
			Document:    rec.Document,
			Alias:       rec.Alias,
		}
	}
	return out
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

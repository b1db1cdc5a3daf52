package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fan-insights/internal/constants"
	"fan-insights/internal/loader"
	"fan-insights/internal/segment"
	"fan-insights/internal/stats"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.insights.Dashboard(r.Context())
	if err != nil {
		s.writeLoadError(w, err)
		return
	}

	resp := struct {
		stats.Dashboard
		LastLoadedAt string `json:"last_loaded_at,omitempty"`
	}{Dashboard: dashboard}
	if loadedAt := s.fans.LoadedAt(); !loadedAt.IsZero() {
		resp.LastLoadedAt = loadedAt.UTC().Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClubs(w http.ResponseWriter, r *http.Request) {
	clubs, err := s.insights.Clubs(r.Context())
	if err != nil {
		s.writeLoadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"clubs": clubs})
}

func (s *Server) handleClubAnalysis(w http.ResponseWriter, r *http.Request) {
	club := r.PathValue("club")

	analysis, err := s.insights.ClubAnalysis(r.Context(), club)
	if errors.Is(err, stats.ErrUnknownClub) {
		writeError(w, http.StatusNotFound, "unknown_club", fmt.Errorf("no data for club %q", club))
		return
	}
	if err != nil {
		s.writeLoadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// segmentRequest mirrors the segmentation form: empty lists mean no
// restriction on that dimension, absent age bounds leave the range open.
type segmentRequest struct {
	Clubs         []string `json:"clubs"`
	Sexes         []string `json:"sexes"`
	Nationalities []string `json:"nationalities"`
	AgeMin        *int     `json:"age_min"`
	AgeMax        *int     `json:"age_max"`
}

func (req segmentRequest) validate() error {
	if req.AgeMin != nil && *req.AgeMin < 0 {
		return errors.New("age_min must not be negative")
	}
	if req.AgeMin != nil && req.AgeMax != nil && *req.AgeMin > *req.AgeMax {
		return errors.New("age_min must not exceed age_max")
	}
	return nil
}

func (req segmentRequest) filter() segment.Filter {
	return segment.Filter{
		Clubs:         req.Clubs,
		Sexes:         req.Sexes,
		Nationalities: req.Nationalities,
		AgeMin:        req.AgeMin,
		AgeMax:        req.AgeMax,
	}
}

type segmentResponse struct {
	Total   int           `json:"total"`
	Emails  []string      `json:"emails"`
	Preview []fanResponse `json:"preview"`
}

func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSegmentRequest(w, r)
	if !ok {
		return
	}

	seg, err := s.insights.Segment(r.Context(), req.filter())
	if err != nil {
		s.writeLoadError(w, err)
		return
	}

	preview := seg.Records
	if len(preview) > constants.SegmentPreviewLimit {
		preview = preview[:constants.SegmentPreviewLimit]
	}

	writeJSON(w, http.StatusOK, segmentResponse{
		Total:   seg.Total,
		Emails:  seg.Emails,
		Preview: toFanResponses(preview),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSegmentRequest(w, r)
	if !ok {
		return
	}

	export, err := s.insights.Export(r.Context(), req.filter())
	if err != nil {
		s.writeLoadError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Data)
}

type searchResponse struct {
	Total     int           `json:"total"`
	Truncated bool          `json:"truncated"`
	Results   []fanResponse `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing query parameter q"))
		return
	}

	res, err := s.insights.Search(r.Context(), query)
	if err != nil {
		s.writeLoadError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Total:     res.Total,
		Truncated: res.Truncated,
		Results:   toFanResponses(res.Records),
	})
}

type importResponse struct {
	ID            string `json:"id"`
	WorkbookPath  string `json:"workbook_path"`
	SheetsParsed  int    `json:"sheets_parsed"`
	SheetsSkipped int    `json:"sheets_skipped"`
	SheetsFailed  int    `json:"sheets_failed"`
	RowsKept      int    `json:"rows_kept"`
	RowsDropped   int    `json:"rows_dropped"`
	LoadedAt      string `json:"loaded_at"`
}

func (s *Server) handleImports(w http.ResponseWriter, r *http.Request) {
	entries, err := s.fans.Imports(r.Context(), constants.ImportListLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list imports")
		writeError(w, http.StatusInternalServerError, "internal", nil)
		return
	}

	out := make([]importResponse, len(entries))
	for i, e := range entries {
		out[i] = importResponse{
			ID:            e.ID,
			WorkbookPath:  e.WorkbookPath,
			SheetsParsed:  e.SheetsParsed,
			SheetsSkipped: e.SheetsSkipped,
			SheetsFailed:  e.SheetsFailed,
			RowsKept:      e.RowsKept,
			RowsDropped:   e.RowsDropped,
			LoadedAt:      e.LoadedAt.UTC().Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, map[string][]importResponse{"imports": out})
}

func (s *Server) decodeSegmentRequest(w http.ResponseWriter, r *http.Request) (segmentRequest, bool) {
	var req segmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("invalid json body"))
		return segmentRequest{}, false
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return segmentRequest{}, false
	}
	return req, true
}

// writeLoadError maps loader failures to 503: the table could not be built,
// so no read can be served.
func (s *Server) writeLoadError(w http.ResponseWriter, err error) {
	s.logger.Error().Err(err).Msg("table unavailable")
	switch {
	case errors.Is(err, loader.ErrWorkbookOpen),
		errors.Is(err, loader.ErrNoUsableSheets),
		errors.Is(err, loader.ErrEmptyTable):
		writeError(w, http.StatusServiceUnavailable, "load_failed", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", nil)
	}
}

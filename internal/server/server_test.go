package server

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fan-insights/internal/auth"
	"fan-insights/internal/config"
	"fan-insights/internal/loader"
	"fan-insights/internal/repository"
	"fan-insights/internal/service"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testSchema = `
CREATE TABLE fan_snapshot (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    full_name TEXT NOT NULL,
    email TEXT NOT NULL,
    club TEXT NOT NULL,
    age INTEGER,
    sex TEXT NOT NULL DEFAULT '',
    nationality TEXT NOT NULL DEFAULT '',
    document TEXT NOT NULL DEFAULT '',
    alias TEXT NOT NULL DEFAULT '',
    snapshot_at TIMESTAMP NOT NULL
);
CREATE TABLE import_log (
    id TEXT PRIMARY KEY,
    workbook_path TEXT NOT NULL,
    sheets_parsed INTEGER NOT NULL,
    sheets_skipped INTEGER NOT NULL,
    sheets_failed INTEGER NOT NULL,
    rows_kept INTEGER NOT NULL,
    rows_dropped INTEGER NOT NULL,
    loaded_at TIMESTAMP NOT NULL
);`

func writeTestWorkbook(t *testing.T, dir string) string {
	t.Helper()

	headers := []interface{}{"Nombre completo", "Email", "Edad", "Sexo", "Nacionalidad", "Documento", "Alias"}
	sheets := map[string][][]interface{}{
		"Boca": {
			{"Ana Garcia", "ana@example.com", 25, "F", "AR", "30111222", "anita"},
			{"Luis Perez", "luis@example.com", 40, "M", "AR", "30111223", "lucho"},
		},
		"River": {
			{"Eva Lopez", "eva@example.com", 30, "F", "UY", "40111222", "evita"},
		},
	}

	f := excelize.NewFile()
	first := true
	for _, name := range []string{"Boca", "River"} {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		require.NoError(t, f.SetSheetRow(name, "A1", &[]interface{}{"Listado de fans"}))
		require.NoError(t, f.SetSheetRow(name, "A2", &headers))
		for j, row := range sheets[name] {
			cellRef, err := excelize.CoordinatesToCellName(1, j+3)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cellRef, &row))
		}
	}

	path := filepath.Join(dir, "fans.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func newTestMux(t *testing.T) (*http.ServeMux, *service.FanService) {
	t.Helper()

	dir := t.TempDir()
	log := zerolog.Nop()

	excelPath := writeTestWorkbook(t, dir)

	usersPath := filepath.Join(dir, "users.csv")
	require.NoError(t, os.WriteFile(usersPath, []byte("username,password\nalice,secret\n"), 0o600))

	db, err := sql.Open("sqlite3", filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	cfg := &config.Config{
		ExcelPath:       excelPath,
		UsersCSVPath:    usersPath,
		CacheTTL:        time.Hour,
		SessionTTL:      time.Hour,
		HomeNationality: "AR",
	}

	credentials, err := auth.NewCredentialStore(usersPath, log)
	require.NoError(t, err)
	sessions := auth.NewSessionStore(cfg.SessionTTL, log)

	snapshots := repository.NewFanSnapshotRepository(db, log)
	imports := repository.NewImportLogRepository(db, log)

	fans := service.NewFanService(loader.New(nil, log), loader.NewCache(cfg.CacheTTL), snapshots, imports, cfg, log)
	insights := service.NewInsightsService(fans, cfg, log)

	mux := http.NewServeMux()
	NewServer(fans, insights, credentials, sessions, log).Register(mux)
	return mux, fans
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, mux *http.ServeMux) string {
	t.Helper()

	rec := doJSON(t, mux, http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice",
		"password": "secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestLoginSuccessAndFailure(t *testing.T) {
	mux, _ := newTestMux(t)

	token := login(t, mux)
	assert.NotEmpty(t, token)

	rec := doJSON(t, mux, http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Unknown user gets the same response as a wrong password.
	rec2 := doJSON(t, mux, http.MethodPost, "/api/login", "", map[string]string{
		"username": "nobody",
		"password": "whatever",
	})
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)
	assert.Equal(t, rec.Body.String(), rec2.Body.String())
}

func TestEndpointsRequireSession(t *testing.T) {
	mux, _ := newTestMux(t)

	for _, path := range []string{"/api/dashboard", "/api/clubs", "/api/search?q=ana", "/api/imports"} {
		rec := doJSON(t, mux, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec := doJSON(t, mux, http.MethodPost, "/api/segment", "", map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboard(t *testing.T) {
	mux, _ := newTestMux(t)
	token := login(t, mux)

	rec := doJSON(t, mux, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		TotalFans  int `json:"total_fans"`
		TotalClubs int `json:"total_clubs"`
		MeanAge    int `json:"mean_age"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.TotalFans)
	assert.Equal(t, 2, resp.TotalClubs)
	assert.Equal(t, 31, resp.MeanAge) // (25+40+30)/3 truncated
}

func TestClubAnalysisEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)
	token := login(t, mux)

	rec := doJSON(t, mux, http.MethodGet, "/api/clubs/BOCA", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Club      string `json:"club"`
		TotalFans int    `json:"total_fans"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "BOCA", resp.Club)
	assert.Equal(t, 2, resp.TotalFans)

	rec = doJSON(t, mux, http.MethodGet, "/api/clubs/NADA", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSegmentEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)
	token := login(t, mux)

	rec := doJSON(t, mux, http.MethodPost, "/api/segment", token, map[string]any{
		"clubs": []string{"BOCA"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total  int      `json:"total"`
		Emails []string `json:"emails"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, []string{"ana@example.com", "luis@example.com"}, resp.Emails)

	// An empty segment is a valid 200, not an error.
	rec = doJSON(t, mux, http.MethodPost, "/api/segment", token, map[string]any{
		"clubs": []string{"NADA"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Total)
}

func TestSegmentRejectsInvalidAgeRange(t *testing.T) {
	mux, _ := newTestMux(t)
	token := login(t, mux)

	rec := doJSON(t, mux, http.MethodPost, "/api/segment", token, map[string]any{
		"age_min": 50,
		"age_max": 20,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)
	token := login(t, mux)

	rec := doJSON(t, mux, http.MethodPost, "/api/segment/export", token, map[string]any{
		"clubs": []string{"RIVER"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "segmento_fans_1.csv")

	rows, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "eva@example.com", rows[1][1])
}

func TestSearchEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)
	token := login(t, mux)

	rec := doJSON(t, mux, http.MethodGet, "/api/search?q=GARCIA", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total   int `json:"total"`
		Results []struct {
			Email string `json:"email"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "ana@example.com", resp.Results[0].Email)

	rec = doJSON(t, mux, http.MethodGet, "/api/search", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutEndsSessionAndClearsCache(t *testing.T) {
	mux, fans := newTestMux(t)
	token := login(t, mux)

	// Prime the cache.
	rec := doJSON(t, mux, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, fans.LoadedAt().IsZero())

	rec = doJSON(t, mux, http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, fans.LoadedAt().IsZero())

	// The token no longer resolves.
	rec = doJSON(t, mux, http.MethodGet, "/api/dashboard", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthz(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"fan-insights/internal/config"
	"fan-insights/internal/loader"
	"fan-insights/internal/repository"

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

func newTestFanService(t *testing.T) (*FanService, *repository.FanSnapshotRepository) {
	t.Helper()

	dir := t.TempDir()
	log := zerolog.Nop()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Boca"))
	require.NoError(t, f.SetSheetRow("Boca", "A1", &[]interface{}{"Listado de fans"}))
	require.NoError(t, f.SetSheetRow("Boca", "A2", &[]interface{}{
		"Nombre completo", "Email", "Edad", "Sexo", "Nacionalidad", "Documento", "Alias",
	}))
	require.NoError(t, f.SetSheetRow("Boca", "A3", &[]interface{}{
		"Ana Garcia", "ana@example.com", 25, "F", "AR", "30111222", "anita",
	}))
	excelPath := filepath.Join(dir, "fans.xlsx")
	require.NoError(t, f.SaveAs(excelPath))

	db, err := sql.Open("sqlite3", filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	cfg := &config.Config{ExcelPath: excelPath, CacheTTL: time.Hour}
	snapshots := repository.NewFanSnapshotRepository(db, log)
	imports := repository.NewImportLogRepository(db, log)

	svc := NewFanService(loader.New(nil, log), loader.NewCache(cfg.CacheTTL), snapshots, imports, cfg, log)
	return svc, snapshots
}

func TestTableLoadsAndCaches(t *testing.T) {
	svc, _ := newTestFanService(t)
	ctx := context.Background()

	table, err := svc.Table(ctx)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "BOCA", table[0].Club)

	loadedAt := svc.LoadedAt()
	require.False(t, loadedAt.IsZero())

	// A second read serves the cached table without rebuilding it.
	_, err = svc.Table(ctx)
	require.NoError(t, err)
	assert.Equal(t, loadedAt, svc.LoadedAt())
}

func TestTablePersistsSnapshotAndImportLog(t *testing.T) {
	svc, snapshots := newTestFanService(t)
	ctx := context.Background()

	_, err := svc.Table(ctx)
	require.NoError(t, err)

	// Snapshot and import log are written in the background.
	require.Eventually(t, func() bool {
		count, err := snapshots.Count(ctx)
		return err == nil && count == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		entries, err := svc.Imports(ctx, 10)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)

	entries, err := svc.Imports(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, entries[0].RowsKept)
	assert.Equal(t, 1, entries[0].SheetsParsed)
	assert.NotEmpty(t, entries[0].ID)
}

func TestInvalidateCacheForcesReload(t *testing.T) {
	svc, _ := newTestFanService(t)
	ctx := context.Background()

	_, err := svc.Table(ctx)
	require.NoError(t, err)

	svc.InvalidateCache()
	assert.True(t, svc.LoadedAt().IsZero())

	_, err = svc.Table(ctx)
	require.NoError(t, err)
	assert.False(t, svc.LoadedAt().IsZero())
}

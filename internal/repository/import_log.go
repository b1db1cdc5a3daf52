package repository

import (
	"context"
	"database/sql"
	"fmt"

	"fan-insights/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// ImportLogRepository appends and lists workbook load records.
type ImportLogRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewImportLogRepository(sqlDB *sql.DB, logger zerolog.Logger) *ImportLogRepository {
	return &ImportLogRepository{db: sqlDB, logger: logger}
}

func (r *ImportLogRepository) Insert(ctx context.Context, entry domain.ImportLog) (string, error) {
	id := entry.ID
	if id == "" {
		var err error
		id, err = gonanoid.New()
		if err != nil {
			return "", fmt.Errorf("failed to generate nanoid: %w", err)
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO import_log (id, workbook_path, sheets_parsed, sheets_skipped, sheets_failed, rows_kept, rows_dropped, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, entry.WorkbookPath, entry.SheetsParsed, entry.SheetsSkipped,
		entry.SheetsFailed, entry.RowsKept, entry.RowsDropped, entry.LoadedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert import log: %w", err)
	}

	r.logger.Debug().Str("id", id).Int("rows_kept", entry.RowsKept).Msg("import logged")
	return id, nil
}

// List returns the most recent imports, newest first.
func (r *ImportLogRepository) List(ctx context.Context, limit int) ([]domain.ImportLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, workbook_path, sheets_parsed, sheets_skipped, sheets_failed, rows_kept, rows_dropped, loaded_at
		FROM import_log
		ORDER BY loaded_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list import log: %w", err)
	}
	defer rows.Close()

	var entries []domain.ImportLog
	for rows.Next() {
		var e domain.ImportLog
		err := rows.Scan(&e.ID, &e.WorkbookPath, &e.SheetsParsed, &e.SheetsSkipped,
			&e.SheetsFailed, &e.RowsKept, &e.RowsDropped, &e.LoadedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import log row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Latest returns the newest import, or sql.ErrNoRows if none exists.
func (r *ImportLogRepository) Latest(ctx context.Context) (*domain.ImportLog, error) {
	var e domain.ImportLog
	err := r.db.QueryRowContext(ctx, `
		SELECT id, workbook_path, sheets_parsed, sheets_skipped, sheets_failed, rows_kept, rows_dropped, loaded_at
		FROM import_log
		ORDER BY loaded_at DESC
		LIMIT 1`).
		Scan(&e.ID, &e.WorkbookPath, &e.SheetsParsed, &e.SheetsSkipped,
			&e.SheetsFailed, &e.RowsKept, &e.RowsDropped, &e.LoadedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

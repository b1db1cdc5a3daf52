package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fan-insights/internal/constants"
	"fan-insights/internal/domain"

	"github.com/rs/zerolog"
)

// FanSnapshotRepository persists the latest normalized table. The snapshot
// is an audit artifact; reads for filtering and search always go to the
// in-memory table.
type FanSnapshotRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewFanSnapshotRepository(sqlDB *sql.DB, logger zerolog.Logger) *FanSnapshotRepository {
	return &FanSnapshotRepository{db: sqlDB, logger: logger}
}

// ReplaceAll swaps the stored snapshot for records in one transaction.
func (r *FanSnapshotRepository) ReplaceAll(ctx context.Context, records []domain.FanRecord, snapshotAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM fan_snapshot"); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fan_snapshot (full_name, email, club, age, sex, nationality, document, alias, snapshot_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < len(records); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(records) {
			end = len(records)
		}

		for _, rec := range records[i:end] {
			var age sql.NullInt64
			if rec.HasAge() {
				age = sql.NullInt64{Int64: int64(*rec.Age), Valid: true}
			}
			_, err := stmt.ExecContext(ctx,
				rec.FullName, rec.Email, rec.Club, age,
				rec.Sex, rec.Nationality, rec.Document, rec.Alias, snapshotAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert snapshot row for %s: %w", rec.Email, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	r.logger.Debug().Int("rows", len(records)).Time("snapshot_at", snapshotAt).Msg("fan snapshot replaced")
	return nil
}

// Count reports how many rows the stored snapshot holds.
func (r *FanSnapshotRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fan_snapshot").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshot rows: %w", err)
	}
	return count, nil
}

package service

import (
	"context"
	"time"

	"fan-insights/internal/config"
	"fan-insights/internal/constants"
	"fan-insights/internal/domain"
	"fan-insights/internal/loader"
	"fan-insights/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// FanService owns the normalized table: it serves reads from the TTL cache,
// reloads the workbook on expiry, and persists each fresh load as a
// snapshot plus an import-log row.
type FanService struct {
	loader    *loader.Loader
	cache     *loader.Cache
	snapshots *repository.FanSnapshotRepository
	imports   *repository.ImportLogRepository
	excelPath string
	logger    zerolog.Logger
}

func NewFanService(
	l *loader.Loader,
	cache *loader.Cache,
	snapshots *repository.FanSnapshotRepository,
	imports *repository.ImportLogRepository,
	cfg *config.Config,
	logger zerolog.Logger,
) *FanService {
	return &FanService{
		loader:    l,
		cache:     cache,
		snapshots: snapshots,
		imports:   imports,
		excelPath: cfg.ExcelPath,
		logger:    logger,
	}
}

// Table returns the current normalized table, reloading the workbook when
// the cache has expired or been invalidated. A reload failure is fatal to
// the request; the service never serves a stale table past its TTL.
func (s *FanService) Table(ctx context.Context) ([]domain.FanRecord, error) {
	if res, ok := s.cache.Get(s.excelPath); ok {
		return res.Records, nil
	}

	res, err := s.loader.Load(s.excelPath)
	if err != nil {
		return nil, err
	}
	s.cache.Set(s.excelPath, res)
	s.persistInBackground(res)

	return res.Records, nil
}

// persistInBackground writes the snapshot and import log without blocking
// the request that triggered the reload.
func (s *FanService) persistInBackground(res *loader.Result) {
	loadedAt := time.Now()

	g := new(errgroup.Group)
	g.Go(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
		defer cancel()

		if err := s.snapshots.ReplaceAll(ctx, res.Records, loadedAt); err != nil {
			return err
		}
		_, err := s.imports.Insert(ctx, domain.ImportLog{
			WorkbookPath:  s.excelPath,
			SheetsParsed:  res.Stats.SheetsParsed,
			SheetsSkipped: res.Stats.SheetsSkipped,
			SheetsFailed:  res.Stats.SheetsFailed,
			RowsKept:      res.Stats.RowsKept,
			RowsDropped:   res.Stats.RowsDropped,
			LoadedAt:      loadedAt,
		})
		return err
	})

	go func() {
		if err := g.Wait(); err != nil {
			s.logger.Error().Err(err).Msg("failed to persist import snapshot")
		}
	}()
}

// InvalidateCache drops the cached table. Wired to logout, matching the
// original dashboard's cache clear.
func (s *FanService) InvalidateCache() {
	s.cache.Invalidate()
	s.logger.Info().Msg("table cache invalidated")
}

// LoadedAt reports when the cached table was built; zero if none is cached.
func (s *FanService) LoadedAt() time.Time {
	return s.cache.LoadedAt()
}

// Imports lists recent workbook loads, newest first.
func (s *FanService) Imports(ctx context.Context, limit int) ([]domain.ImportLog, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.imports.List(ctx, limit)
}

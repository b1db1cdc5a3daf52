package service

import (
	"context"

	"fan-insights/internal/config"
	"fan-insights/internal/domain"
	"fan-insights/internal/segment"
	"fan-insights/internal/stats"

	"github.com/rs/zerolog"
)

// SegmentResult is one evaluated audience segment.
type SegmentResult struct {
	Total   int
	Records []domain.FanRecord
	Emails  []string // unique, first-seen order
}

// ExportResult is a rendered CSV download of a segment.
type ExportResult struct {
	Filename string
	Data     []byte
	Count    int
}

// InsightsService evaluates the aggregate views, segments, and searches
// over the current table.
type InsightsService struct {
	fans            *FanService
	homeNationality string
	logger          zerolog.Logger
}

func NewInsightsService(fans *FanService, cfg *config.Config, logger zerolog.Logger) *InsightsService {
	return &InsightsService{fans: fans, homeNationality: cfg.HomeNationality, logger: logger}
}

func (s *InsightsService) Dashboard(ctx context.Context) (stats.Dashboard, error) {
	table, err := s.fans.Table(ctx)
	if err != nil {
		return stats.Dashboard{}, err
	}
	return stats.BuildDashboard(table, s.homeNationality), nil
}

func (s *InsightsService) Clubs(ctx context.Context) ([]string, error) {
	table, err := s.fans.Table(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Clubs(table), nil
}

func (s *InsightsService) ClubAnalysis(ctx context.Context, club string) (stats.ClubAnalysis, error) {
	table, err := s.fans.Table(ctx)
	if err != nil {
		return stats.ClubAnalysis{}, err
	}
	return stats.BuildClubAnalysis(table, club)
}

// Segment applies the filter and derives the email list. An empty segment
// is a valid result, not an error.
func (s *InsightsService) Segment(ctx context.Context, f segment.Filter) (SegmentResult, error) {
	table, err := s.fans.Table(ctx)
	if err != nil {
		return SegmentResult{}, err
	}

	records := segment.Apply(table, f)
	s.logger.Debug().Int("total", len(records)).Msg("segment evaluated")

	return SegmentResult{
		Total:   len(records),
		Records: records,
		Emails:  segment.UniqueEmails(records),
	}, nil
}

// Export renders the filtered segment as a CSV download.
func (s *InsightsService) Export(ctx context.Context, f segment.Filter) (ExportResult, error) {
	seg, err := s.Segment(ctx, f)
	if err != nil {
		return ExportResult{}, err
	}

	data, err := segment.ExportCSV(seg.Records)
	if err != nil {
		return ExportResult{}, err
	}

	return ExportResult{
		Filename: segment.ExportFilename(seg.Total),
		Data:     data,
		Count:    seg.Total,
	}, nil
}

func (s *InsightsService) Search(ctx context.Context, query string) (segment.SearchResult, error) {
	table, err := s.fans.Table(ctx)
	if err != nil {
		return segment.SearchResult{}, err
	}

	res := segment.Search(table, query)
	s.logger.Debug().Str("query", query).Int("total", res.Total).Msg("search completed")
	return res, nil
}

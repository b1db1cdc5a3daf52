// Package loader reads the multi-sheet fan workbook and normalizes it into
// one in-memory table of FanRecord.
package loader

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"fan-insights/internal/constants"
	"fan-insights/internal/domain"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Required header names as they appear in row 2 of every sheet. The first
// row of each sheet is a banner and carries no column names.
const (
	HeaderFullName    = "Nombre completo"
	HeaderEmail       = "Email"
	HeaderAge         = "Edad"
	HeaderSex         = "Sexo"
	HeaderNationality = "Nacionalidad"
	HeaderDocument    = "Documento"
	HeaderAlias       = "Alias"
)

var requiredHeaders = []string{
	HeaderFullName,
	HeaderEmail,
	HeaderAge,
	HeaderSex,
	HeaderNationality,
	HeaderDocument,
	HeaderAlias,
}

// ImportStats summarizes one load for the import log.
type ImportStats struct {
	SheetsParsed  int
	SheetsSkipped int
	SheetsFailed  int
	RowsKept      int
	RowsDropped   int
}

// Result is one normalized load of the workbook.
type Result struct {
	Records []domain.FanRecord
	Stats   ImportStats
}

type Loader struct {
	excluded map[string]struct{} // upper-cased sheet names to skip
	logger   zerolog.Logger
}

func New(excludedSheets []string, logger zerolog.Logger) *Loader {
	excluded := make(map[string]struct{}, len(excludedSheets))
	for _, name := range excludedSheets {
		excluded[strings.ToUpper(strings.TrimSpace(name))] = struct{}{}
	}
	return &Loader{excluded: excluded, logger: logger}
}

// Load reads every sheet of the workbook at path and produces the combined
// table. A sheet that fails to parse is skipped with a warning; the load as
// a whole fails only if the file cannot be opened, no sheet parses, or the
// combined table ends up empty.
func (l *Loader) Load(path string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		l.logger.Error().Err(err).Str("path", path).Msg("failed to open workbook")
		return nil, fmt.Errorf("%w: %s: %v", ErrWorkbookOpen, path, err)
	}
	defer f.Close()

	res := &Result{}

	for _, sheet := range f.GetSheetList() {
		if _, skip := l.excluded[strings.ToUpper(sheet)]; skip {
			l.logger.Debug().Str("sheet", sheet).Msg("sheet excluded by configuration")
			res.Stats.SheetsSkipped++
			continue
		}

		kept, dropped, err := l.parseSheet(f, sheet)
		if err != nil {
			l.logger.Warn().Err(err).Str("sheet", sheet).Msg("failed to parse sheet, skipping")
			res.Stats.SheetsFailed++
			continue
		}

		res.Records = append(res.Records, kept...)
		res.Stats.SheetsParsed++
		res.Stats.RowsKept += len(kept)
		res.Stats.RowsDropped += dropped
	}

	if res.Stats.SheetsParsed == 0 {
		l.logger.Error().Str("path", path).Msg("no sheet could be parsed")
		return nil, fmt.Errorf("%w: %s", ErrNoUsableSheets, path)
	}
	if len(res.Records) == 0 {
		l.logger.Error().Str("path", path).Msg("workbook produced zero usable rows")
		return nil, fmt.Errorf("%w: %s", ErrEmptyTable, path)
	}

	l.logger.Info().
		Str("path", path).
		Int("sheets_parsed", res.Stats.SheetsParsed).
		Int("sheets_skipped", res.Stats.SheetsSkipped).
		Int("sheets_failed", res.Stats.SheetsFailed).
		Int("rows_kept", res.Stats.RowsKept).
		Int("rows_dropped", res.Stats.RowsDropped).
		Msg("workbook loaded")

	return res, nil
}

func (l *Loader) parseSheet(f *excelize.File, sheet string) (kept []domain.FanRecord, dropped int, err error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, 0, err
	}
	if len(rows) <= constants.HeaderRowIndex {
		return nil, 0, fmt.Errorf("%w: sheet has no header row", ErrMissingHeaders)
	}

	cols, err := mapHeaders(rows[constants.HeaderRowIndex])
	if err != nil {
		return nil, 0, err
	}

	club := strings.ToUpper(sheet)
	for _, row := range rows[constants.HeaderRowIndex+1:] {
		rec := domain.FanRecord{
			FullName:    cell(row, cols[HeaderFullName]),
			Email:       cell(row, cols[HeaderEmail]),
			Club:        club,
			Age:         coerceAge(cell(row, cols[HeaderAge])),
			Sex:         cell(row, cols[HeaderSex]),
			Nationality: cell(row, cols[HeaderNationality]),
			Document:    cell(row, cols[HeaderDocument]),
			Alias:       cell(row, cols[HeaderAlias]),
		}
		if rec.FullName == "" || rec.Email == "" {
			dropped++
			continue
		}
		kept = append(kept, rec)
	}

	return kept, dropped, nil
}

// mapHeaders resolves each required header name to its column index. A
// missing header fails the whole sheet rather than silently shifting
// columns.
func mapHeaders(headerRow []string) (map[string]int, error) {
	cols := make(map[string]int, len(requiredHeaders))
	for i, name := range headerRow {
		name = strings.TrimSpace(name)
		for _, want := range requiredHeaders {
			if strings.EqualFold(name, want) {
				cols[want] = i
			}
		}
	}

	var missing []string
	for _, want := range requiredHeaders {
		if _, ok := cols[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingHeaders, strings.Join(missing, ", "))
	}
	return cols, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// coerceAge turns the raw cell value into an age. Non-numeric values and
// values outside [0, MaxValidAge] are data-entry noise and map to missing,
// never to an error.
func coerceAge(raw string) *int {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	age := int(math.Trunc(v))
	if age < 0 || age > constants.MaxValidAge {
		return nil
	}
	return &age
}

package segment

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"fan-insights/internal/domain"
)

var exportHeader = []string{"Nombre completo", "Email", "Club", "Edad", "Sexo", "Nacionalidad"}

// ExportCSV renders records as UTF-8 CSV in the fixed download column
// order. Missing ages render as empty cells.
func ExportCSV(records []domain.FanRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, rec := range records {
		age := ""
		if rec.HasAge() {
			age = strconv.Itoa(*rec.Age)
		}
		row := []string{rec.FullName, rec.Email, rec.Club, age, rec.Sex, rec.Nationality}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFilename carries the row count, mirroring the dashboard's download
// naming.
func ExportFilename(count int) string {
	return fmt.Sprintf("segmento_fans_%d.csv", count)
}

package segment

import (
	"strings"

	"fan-insights/internal/constants"
	"fan-insights/internal/domain"
)

// SearchResult carries the true match count alongside the records actually
// returned, which are truncated to the display threshold.
type SearchResult struct {
	Total     int
	Truncated bool
	Records   []domain.FanRecord
}

// Search matches query as a case-insensitive substring of name, email, or
// document. The same lowered query is applied to all three fields.
func Search(table []domain.FanRecord, query string) SearchResult {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return SearchResult{}
	}

	var matches []domain.FanRecord
	for _, rec := range table {
		if strings.Contains(strings.ToLower(rec.FullName), query) ||
			strings.Contains(strings.ToLower(rec.Email), query) ||
			strings.Contains(strings.ToLower(rec.Document), query) {
			matches = append(matches, rec)
		}
	}

	res := SearchResult{Total: len(matches), Records: matches}
	if len(matches) > constants.SearchDisplayLimit {
		res.Records = matches[:constants.SearchDisplayLimit]
		res.Truncated = true
	}
	return res
}

package segment

import (
	"fmt"
	"testing"

	"fan-insights/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCaseInsensitive(t *testing.T) {
	table := []domain.FanRecord{
		{FullName: "Ana Garcia", Email: "alice@example.com", Document: "30111222"},
		{FullName: "Luis Perez", Email: "luis@example.com", Document: "30111223"},
	}

	res := Search(table, "ALI")
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "alice@example.com", res.Records[0].Email)
}

func TestSearchMatchesAnyOfThreeFields(t *testing.T) {
	table := []domain.FanRecord{
		{FullName: "Ana Garcia", Email: "a@example.com", Document: "111"},
		{FullName: "Luis Perez", Email: "garcia@example.com", Document: "222"},
		{FullName: "Eva Lopez", Email: "e@example.com", Document: "garcia33"},
		{FullName: "Max Nada", Email: "m@example.com", Document: "444"},
	}

	res := Search(table, "garcia")
	assert.Equal(t, 3, res.Total)
}

func TestSearchTruncatesPastDisplayLimit(t *testing.T) {
	var table []domain.FanRecord
	for i := 0; i < 60; i++ {
		table = append(table, domain.FanRecord{
			FullName: fmt.Sprintf("Fan %d", i),
			Email:    fmt.Sprintf("fan%d@example.com", i),
		})
	}

	res := Search(table, "fan")
	assert.Equal(t, 60, res.Total)
	assert.True(t, res.Truncated)
	assert.Len(t, res.Records, 50)
}

func TestSearchEmptyQuery(t *testing.T) {
	table := []domain.FanRecord{{FullName: "Ana", Email: "a@example.com"}}

	res := Search(table, "   ")
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Records)
}

func TestSearchNoMatches(t *testing.T) {
	table := []domain.FanRecord{{FullName: "Ana", Email: "a@example.com"}}

	res := Search(table, "zzz")
	assert.Zero(t, res.Total)
	assert.False(t, res.Truncated)
}

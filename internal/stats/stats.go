// Package stats computes the aggregate demographic views served by the
// dashboard and club-analysis pages.
package stats

import (
	"errors"
	"sort"

	"fan-insights/internal/constants"
	"fan-insights/internal/domain"
)

// ErrUnknownClub means the requested club has no rows in the table.
var ErrUnknownClub = errors.New("unknown club")

// AgeBin is one histogram bucket; From and To are inclusive.
type AgeBin struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Count int `json:"count"`
}

// ClubSexCount is one bar of the fans-per-club chart, segmented by sex.
type ClubSexCount struct {
	Club  string         `json:"club"`
	Total int            `json:"total"`
	BySex map[string]int `json:"by_sex"`
}

// InternationalFan is one row of the international radar detail view.
type InternationalFan struct {
	FullName    string `json:"full_name"`
	Club        string `json:"club"`
	Nationality string `json:"nationality"`
	Email       string `json:"email"`
}

// InternationalGroup is one club×nationality bucket of the grouped radar.
type InternationalGroup struct {
	Club        string `json:"club"`
	Nationality string `json:"nationality"`
	Count       int    `json:"count"`
}

// Dashboard is the global view over the whole table.
type Dashboard struct {
	TotalFans           int                  `json:"total_fans"`
	MeanAge             int                  `json:"mean_age"`
	TotalClubs          int                  `json:"total_clubs"`
	FansByClub          []ClubSexCount       `json:"fans_by_club"`
	SexDistribution     map[string]int       `json:"sex_distribution"`
	AgeHistogram        []AgeBin             `json:"age_histogram"`
	InternationalTotal  int                  `json:"international_total"`
	InternationalFans   []InternationalFan   `json:"international_fans,omitempty"`
	InternationalByClub []InternationalGroup `json:"international_by_club,omitempty"`
}

// ClubAnalysis compares one club's demography against the whole table.
type ClubAnalysis struct {
	Club            string         `json:"club"`
	TotalFans       int            `json:"total_fans"`
	MeanAge         int            `json:"mean_age"`
	MeanAgeDelta    float64        `json:"mean_age_delta"`
	FemalePct       float64        `json:"female_pct"`
	FemalePctDelta  float64        `json:"female_pct_delta"`
	SexDistribution map[string]int `json:"sex_distribution"`
	AgeHistogram    []AgeBin       `json:"age_histogram"`
}

// BuildDashboard computes the global view. homeNationality marks which fans
// count as domestic for the international radar.
func BuildDashboard(table []domain.FanRecord, homeNationality string) Dashboard {
	d := Dashboard{
		TotalFans:       len(table),
		MeanAge:         truncatedMeanAge(table),
		SexDistribution: sexCounts(table),
		AgeHistogram:    ageHistogram(table, constants.DashboardAgeBins),
	}

	byClub := make(map[string]*ClubSexCount)
	var clubOrder []string
	for _, rec := range table {
		c, ok := byClub[rec.Club]
		if !ok {
			c = &ClubSexCount{Club: rec.Club, BySex: make(map[string]int)}
			byClub[rec.Club] = c
			clubOrder = append(clubOrder, rec.Club)
		}
		c.Total++
		if rec.Sex != "" {
			c.BySex[rec.Sex]++
		}
	}
	d.TotalClubs = len(byClub)

	// Bars ordered by club size, largest first, matching the original chart.
	sort.SliceStable(clubOrder, func(i, j int) bool {
		return byClub[clubOrder[i]].Total > byClub[clubOrder[j]].Total
	})
	for _, club := range clubOrder {
		d.FansByClub = append(d.FansByClub, *byClub[club])
	}

	international := internationalFans(table, homeNationality)
	d.InternationalTotal = len(international)
	if len(international) == 0 {
		return d
	}
	if len(international) < constants.InternationalDetailLimit {
		for _, rec := range international {
			d.InternationalFans = append(d.InternationalFans, InternationalFan{
				FullName:    rec.FullName,
				Club:        rec.Club,
				Nationality: rec.Nationality,
				Email:       rec.Email,
			})
		}
	} else {
		d.InternationalByClub = groupInternational(international)
	}
	return d
}

// Clubs lists every distinct club in the table, sorted.
func Clubs(table []domain.FanRecord) []string {
	seen := make(map[string]struct{})
	var clubs []string
	for _, rec := range table {
		if _, ok := seen[rec.Club]; !ok {
			seen[rec.Club] = struct{}{}
			clubs = append(clubs, rec.Club)
		}
	}
	sort.Strings(clubs)
	return clubs
}

// BuildClubAnalysis computes the per-club view with deltas against the
// overall table. Returns ErrUnknownClub when the club has no rows.
func BuildClubAnalysis(table []domain.FanRecord, club string) (ClubAnalysis, error) {
	var subset []domain.FanRecord
	for _, rec := range table {
		if rec.Club == club {
			subset = append(subset, rec)
		}
	}
	if len(subset) == 0 {
		return ClubAnalysis{}, ErrUnknownClub
	}

	overallMean := truncatedMeanAge(table)
	overallFemale := femalePct(table)
	clubMean := truncatedMeanAge(subset)
	clubFemale := femalePct(subset)

	return ClubAnalysis{
		Club:            club,
		TotalFans:       len(subset),
		MeanAge:         clubMean,
		MeanAgeDelta:    float64(clubMean - overallMean),
		FemalePct:       clubFemale,
		FemalePctDelta:  clubFemale - overallFemale,
		SexDistribution: sexCounts(subset),
		AgeHistogram:    ageHistogram(subset, constants.ClubAgeBins),
	}, nil
}

func internationalFans(table []domain.FanRecord, home string) []domain.FanRecord {
	var out []domain.FanRecord
	for _, rec := range table {
		if rec.Nationality != home {
			out = append(out, rec)
		}
	}
	return out
}

func groupInternational(records []domain.FanRecord) []InternationalGroup {
	type key struct{ club, nationality string }
	counts := make(map[key]int)
	var order []key
	for _, rec := range records {
		k := key{rec.Club, rec.Nationality}
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	out := make([]InternationalGroup, 0, len(order))
	for _, k := range order {
		out = append(out, InternationalGroup{Club: k.club, Nationality: k.nationality, Count: counts[k]})
	}
	return out
}

func sexCounts(records []domain.FanRecord) map[string]int {
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.Sex != "" {
			counts[rec.Sex]++
		}
	}
	return counts
}

// truncatedMeanAge averages the present ages, truncating toward zero the
// way the original KPI tiles did. Zero when no record carries an age.
func truncatedMeanAge(records []domain.FanRecord) int {
	sum, n := 0, 0
	for _, rec := range records {
		if rec.HasAge() {
			sum += *rec.Age
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int(float64(sum) / float64(n))
}

// femalePct is the share of "F" among records with a known sex, in percent.
func femalePct(records []domain.FanRecord) float64 {
	female, known := 0, 0
	for _, rec := range records {
		if rec.Sex == "" {
			continue
		}
		known++
		if rec.Sex == "F" {
			female++
		}
	}
	if known == 0 {
		return 0
	}
	return float64(female) / float64(known) * 100
}

// ageHistogram buckets present ages into nbins equal-width inclusive bins
// spanning the observed min..max.
func ageHistogram(records []domain.FanRecord, nbins int) []AgeBin {
	var ages []int
	for _, rec := range records {
		if rec.HasAge() {
			ages = append(ages, *rec.Age)
		}
	}
	if len(ages) == 0 || nbins <= 0 {
		return nil
	}

	lo, hi := ages[0], ages[0]
	for _, a := range ages[1:] {
		if a < lo {
			lo = a
		}
		if a > hi {
			hi = a
		}
	}

	width := (hi - lo + nbins) / nbins // ceil((hi-lo+1)/nbins) rounded to cover the span
	if width < 1 {
		width = 1
	}

	bins := make([]AgeBin, 0, nbins)
	for from := lo; from <= hi; from += width {
		to := from + width - 1
		if to > hi {
			to = hi
		}
		bins = append(bins, AgeBin{From: from, To: to})
	}
	for _, a := range ages {
		idx := (a - lo) / width
		if idx >= len(bins) {
			idx = len(bins) - 1
		}
		bins[idx].Count++
	}
	return bins
}

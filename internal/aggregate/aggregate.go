// Package aggregate derives dashboard series from ledger snapshots. Every
// function is a pure full scan over its input.
package aggregate

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"server/internal/domain"
)

// DashboardTopN is how many categories the dashboard keeps.
const DashboardTopN = 5

const periodLayout = "2006-01"

// MonthlyTrend sums completed monetary donations per calendar month (UTC),
// oldest month first. Months without donations are absent.
func MonthlyTrend(rows []domain.Donation) []domain.TrendBucket {
	sums := map[string]decimal.Decimal{}
	for _, d := range rows {
		if d.Status != domain.DonationStatusCompleted || d.DonationType != domain.DonationTypeMonetary || d.Amount == nil {
			continue
		}
		key := d.CreatedAt.UTC().Format(periodLayout)
		sums[key] = sums[key].Add(*d.Amount)
	}
	out := make([]domain.TrendBucket, 0, len(sums))
	for key, sum := range sums {
		out = append(out, domain.TrendBucket{PeriodKey: key, Sum: sum})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodKey < out[j].PeriodKey })
	return out
}

// TotalCompleted sums the amounts of completed monetary donations.
func TotalCompleted(rows []domain.Donation) decimal.Decimal {
	total := decimal.Zero
	for _, d := range rows {
		if d.Status == domain.DonationStatusCompleted && d.Amount != nil {
			total = total.Add(*d.Amount)
		}
	}
	return total
}

// Distribution counts each distinct key, largest count first. Ties keep the
// order in which keys were first seen. With limit > 0 only the first limit
// buckets are returned; the rest are dropped.
func Distribution(keys []string, limit int) []domain.CategoryBucket {
	index := map[string]int{}
	var out []domain.CategoryBucket
	for _, k := range keys {
		if i, ok := index[k]; ok {
			out[i].Count++
			continue
		}
		index[k] = len(out)
		out = append(out, domain.CategoryBucket{CategoryKey: k, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []domain.CategoryBucket{}
	}
	return out
}

// CountBy projects rows onto a key and returns their distribution.
func CountBy[T any](rows []T, key func(T) string, limit int) []domain.CategoryBucket {
	keys := make([]string, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, key(r))
	}
	return Distribution(keys, limit)
}

// StatusDistribution counts donations per status.
func StatusDistribution(rows []domain.Donation, limit int) []domain.CategoryBucket {
	return CountBy(rows, func(d domain.Donation) string { return string(d.Status) }, limit)
}

// SkillDistribution counts volunteers per skills value. Volunteers without
// skills are skipped.
func SkillDistribution(vols []domain.Volunteer, limit int) []domain.CategoryBucket {
	var keys []string
	for _, v := range vols {
		if skill := strings.TrimSpace(v.Skills); skill != "" {
			keys = append(keys, skill)
		}
	}
	return Distribution(keys, limit)
}

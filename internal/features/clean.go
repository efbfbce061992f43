package features

import (
	"github.com/JaimeStill/stockcast/internal/sales"
)

// CleanStats counts the rows removed by Clean.
type CleanStats struct {
	Input       int `json:"input"`
	MissingDate int `json:"missing_date"`
	Duplicates  int `json:"duplicates"`
	NonPositive int `json:"non_positive"`
	Output      int `json:"output"`
}

// Dropped returns the total number of removed rows.
func (s CleanStats) Dropped() int {
	return s.MissingDate + s.Duplicates + s.NonPositive
}

type recordKey struct {
	product string
	date    int64
	qty     int
}

// Clean removes rows without a sale date, exact duplicates after the first
// occurrence, and rows whose quantity is not positive. Input order is kept.
func Clean(records []sales.Record) ([]sales.Record, CleanStats) {
	stats := CleanStats{Input: len(records)}
	seen := make(map[recordKey]struct{}, len(records))
	out := make([]sales.Record, 0, len(records))

	for _, r := range records {
		if r.SaleDate.IsZero() {
			stats.MissingDate++
			continue
		}

		key := recordKey{r.ProductID, r.SaleDate.Unix(), r.QuantitySold}
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		if r.QuantitySold <= 0 {
			stats.NonPositive++
			continue
		}

		out = append(out, r)
	}

	stats.Output = len(out)
	return out, stats
}

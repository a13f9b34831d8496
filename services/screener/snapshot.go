package screener

import (
	"sort"

	"nse_screener_backend/services/indicator"
)

// Latest reduces an enriched table to one row per symbol: the row with
// the greatest date. Two rows sharing a symbol's maximum date would
// violate the one-bar-per-day invariant; if it happens anyway the
// last-encountered row after a stable (symbol, date) sort wins, purely
// as a defensive tie-break. The result is ordered by symbol ascending.
func Latest(rows []indicator.Row) []indicator.Row {
	if len(rows) == 0 {
		return nil
	}

	sorted := make([]indicator.Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Symbol != sorted[j].Symbol {
			return sorted[i].Symbol < sorted[j].Symbol
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})

	var snapshot []indicator.Row
	for i, row := range sorted {
		if i+1 == len(sorted) || sorted[i+1].Symbol != row.Symbol {
			snapshot = append(snapshot, row)
		}
	}
	return snapshot
}

package pricestore

import (
	"context"

	"nse_screener_backend/services/indicator"
)

// BarSource loads a complete daily-bar table for the screener pipeline.
// Implementations own the storage details; the pipeline only ever sees
// materialized bars.
type BarSource interface {
	LoadBars(ctx context.Context) ([]indicator.Bar, error)
}

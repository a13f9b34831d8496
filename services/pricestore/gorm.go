package pricestore

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nse_screener_backend/models"
	"nse_screener_backend/services/indicator"
)

// GormStore reads and writes daily bars through the relational models,
// for deployments backed by Postgres instead of a local SQLite file.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over an initialized gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// LoadBars reads every stored bar ordered by symbol and date.
func (s *GormStore) LoadBars(ctx context.Context) ([]indicator.Bar, error) {
	var stored []models.PriceBar
	err := s.db.WithContext(ctx).
		Order("symbol, date").
		Find(&stored).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load price bars: %w", err)
	}

	bars := make([]indicator.Bar, len(stored))
	for i := range stored {
		bars[i] = stored[i].ToBar()
	}
	return bars, nil
}

// SaveBars appends bars, ignoring (symbol, date) pairs that already
// exist so daily updates stay append-only.
func (s *GormStore) SaveBars(ctx context.Context, bars []indicator.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	stored := make([]models.PriceBar, len(bars))
	for i, b := range bars {
		stored[i] = models.FromBar(b)
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}, {Name: "date"}},
			DoNothing: true,
		}).
		CreateInBatches(stored, 500).Error
	if err != nil {
		return fmt.Errorf("failed to save price bars: %w", err)
	}
	return nil
}

// ListSymbols returns the distinct symbols with stored bars.
func (s *GormStore) ListSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	err := s.db.WithContext(ctx).
		Model(&models.PriceBar{}).
		Distinct("symbol").
		Order("symbol").
		Pluck("symbol", &symbols).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	return symbols, nil
}

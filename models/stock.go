package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nse_screener_backend/services/indicator"
)

// Stock represents an NSE-listed equity
type Stock struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Symbol      string          `gorm:"uniqueIndex;not null" json:"symbol"`
	Name        string          `json:"name"`
	Series      string          `json:"series"` // EQ, BE, SM
	ISIN        string          `json:"isin"`
	ListingDate *time.Time      `json:"listing_date"`
	FaceValue   decimal.Decimal `gorm:"type:decimal(10,2)" json:"face_value"`
	Status      string          `json:"status"` // active, delisted, suspended
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PriceBar represents one daily OHLCV bar for a symbol
type PriceBar struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Symbol    string          `gorm:"index:idx_symbol_date,unique;not null" json:"symbol"`
	Date      time.Time       `gorm:"index:idx_symbol_date,unique;not null" json:"date"`
	Open      decimal.Decimal `gorm:"type:decimal(15,2)" json:"open"`
	High      decimal.Decimal `gorm:"type:decimal(15,2)" json:"high"`
	Low       decimal.Decimal `gorm:"type:decimal(15,2)" json:"low"`
	Close     decimal.Decimal `gorm:"type:decimal(15,2)" json:"close"`
	Volume    int64           `json:"volume"`
	CreatedAt time.Time       `json:"created_at"`
}

// ToBar converts a stored bar into the engine's value form.
func (p *PriceBar) ToBar() indicator.Bar {
	return indicator.Bar{
		Symbol: p.Symbol,
		Date:   p.Date,
		Open:   p.Open.InexactFloat64(),
		High:   p.High.InexactFloat64(),
		Low:    p.Low.InexactFloat64(),
		Close:  p.Close.InexactFloat64(),
		Volume: float64(p.Volume),
	}
}

// FromBar builds a storable PriceBar from an engine bar.
func FromBar(b indicator.Bar) PriceBar {
	return PriceBar{
		Symbol: b.Symbol,
		Date:   b.Date,
		Open:   decimal.NewFromFloat(b.Open),
		High:   decimal.NewFromFloat(b.High),
		Low:    decimal.NewFromFloat(b.Low),
		Close:  decimal.NewFromFloat(b.Close),
		Volume: int64(b.Volume),
	}
}

// MigrateModels runs database migrations for price-store models
func MigrateModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&Stock{},
		&PriceBar{},
	)
}

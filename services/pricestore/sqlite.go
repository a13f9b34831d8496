package pricestore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"nse_screener_backend/services/indicator"
)

// PricesTable is the table written by the daily update job.
const PricesTable = "prices"

var requiredColumns = []string{"symbol", "date", "open", "high", "low", "close", "volume"}

// SQLiteStore reads daily bars from a local SQLite price database, the
// same file format the dashboard's update job maintains.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// OpenSQLite opens the price database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping price database: %w", err)
	}
	return &SQLiteStore{db: db, table: PricesTable}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadBars reads the whole prices table. The column set is validated
// first; a table missing required columns yields a SchemaError rather
// than a partial load.
func (s *SQLiteStore) LoadBars(ctx context.Context) ([]indicator.Bar, error) {
	if err := s.checkSchema(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT symbol, date, open, high, low, close, volume FROM %s ORDER BY symbol, date", s.table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var bars []indicator.Bar
	for rows.Next() {
		var (
			symbol  string
			rawDate string
			o, h, l sql.NullFloat64
			c, v    sql.NullFloat64
		)
		if err := rows.Scan(&symbol, &rawDate, &o, &h, &l, &c, &v); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		date, err := parseDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("bad date %q for %s: %w", rawDate, symbol, err)
		}
		bars = append(bars, indicator.Bar{
			Symbol: symbol,
			Date:   date,
			Open:   o.Float64,
			High:   h.Float64,
			Low:    l.Float64,
			Close:  c.Float64,
			Volume: v.Float64,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read prices: %w", err)
	}
	return bars, nil
}

// checkSchema verifies the prices table carries every required column.
func (s *SQLiteStore) checkSchema(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", s.table))
	if err != nil {
		return fmt.Errorf("failed to inspect prices table: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return fmt.Errorf("failed to scan table info: %w", err)
		}
		present[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to inspect prices table: %w", err)
	}

	var missing []string
	for _, col := range requiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return indicator.NewSchemaError(missing...)
	}
	return nil
}

// parseDate accepts the formats the update job has written over time.
func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339} {
		if d, err := time.Parse(layout, raw); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

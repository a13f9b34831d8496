package marketdata

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"nse_screener_backend/services/indicator"
	"nse_screener_backend/services/pricestore"
	"nse_screener_backend/services/screener"
)

// Summary describes one completed refresh cycle, in the form pushed to
// websocket subscribers.
type Summary struct {
	RefreshedAt      time.Time      `json:"refreshed_at"`
	Symbols          int            `json:"symbols"`
	Rows             int            `json:"rows"`
	BucketCounts     map[string]int `json:"bucket_counts"`
	BenchmarkMissing bool           `json:"benchmark_missing"`
}

// Subscriber receives a summary after each successful refresh.
type Subscriber func(Summary)

// Service owns the refresh cycle: load bars from the store, run the
// indicator engine, reduce the snapshot, and evaluate the preset
// buckets. Results are swapped atomically so readers always see one
// consistent refresh.
type Service struct {
	source pricestore.BarSource
	cfg    indicator.Config
	specs  []screener.FilterSpec

	mu          sync.RWMutex
	enriched    []indicator.Row
	bySymbol    map[string][]indicator.Row
	snapshot    []indicator.Row
	buckets     map[string][]indicator.Row
	report      indicator.Report
	refreshedAt time.Time

	subMu       sync.Mutex
	subscribers []Subscriber
}

// NewService creates a service over a bar source with the given engine
// configuration and the built-in preset buckets.
func NewService(source pricestore.BarSource, cfg indicator.Config) *Service {
	return &Service{
		source: source,
		cfg:    cfg,
		specs:  screener.PresetBuckets(cfg),
	}
}

// Refresh runs one full pipeline pass and publishes the result.
func (s *Service) Refresh(ctx context.Context) error {
	started := time.Now()

	bars, err := s.source.LoadBars(ctx)
	if err != nil {
		return fmt.Errorf("failed to load bars: %w", err)
	}

	rows, report, err := indicator.Compute(bars, s.cfg)
	if err != nil {
		return fmt.Errorf("failed to compute indicators: %w", err)
	}

	snapshot := screener.Latest(rows)
	buckets := screener.Evaluate(snapshot, s.specs)

	bySymbol := make(map[string][]indicator.Row)
	for _, r := range rows {
		bySymbol[r.Symbol] = append(bySymbol[r.Symbol], r)
	}

	s.mu.Lock()
	s.enriched = rows
	s.bySymbol = bySymbol
	s.snapshot = snapshot
	s.buckets = buckets
	s.report = report
	s.refreshedAt = time.Now()
	summary := s.summaryLocked()
	s.mu.Unlock()

	if report.BenchmarkMissing {
		log.Printf("Refresh: benchmark %s has no rows, relative performance disabled", s.cfg.BenchmarkSymbol)
	}
	log.Printf("Refresh completed: %d symbols, %d rows in %v",
		summary.Symbols, summary.Rows, time.Since(started).Round(time.Millisecond))

	s.notify(summary)
	return nil
}

// Subscribe registers a callback for refresh summaries.
func (s *Service) Subscribe(fn Subscriber) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Service) notify(summary Summary) {
	s.subMu.Lock()
	subs := make([]Subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(summary)
	}
}

func (s *Service) summaryLocked() Summary {
	counts := make(map[string]int, len(s.buckets))
	for label, rows := range s.buckets {
		counts[label] = len(rows)
	}
	return Summary{
		RefreshedAt:      s.refreshedAt,
		Symbols:          len(s.snapshot),
		Rows:             len(s.enriched),
		BucketCounts:     counts,
		BenchmarkMissing: s.report.BenchmarkMissing,
	}
}

// Snapshot returns the latest-per-symbol rows of the current refresh.
func (s *Service) Snapshot() []indicator.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Series returns the enriched series for one symbol.
func (s *Service) Series(symbol string) []indicator.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bySymbol[symbol]
}

// Symbols returns the symbols present in the current snapshot, with
// their series lengths.
func (s *Service) Symbols() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.bySymbol))
	for sym, rows := range s.bySymbol {
		out[sym] = len(rows)
	}
	return out
}

// Buckets returns the preset bucket results of the current refresh.
func (s *Service) Buckets() map[string][]indicator.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buckets
}

// Presets returns the preset bucket definitions.
func (s *Service) Presets() []screener.FilterSpec {
	return s.specs
}

// Report returns the non-fatal warnings of the current refresh.
func (s *Service) Report() indicator.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// RefreshedAt returns when the current results were computed; zero
// before the first refresh.
func (s *Service) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

// Summary returns the summary of the current refresh.
func (s *Service) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaryLocked()
}

// Screen evaluates ad-hoc filter specs against the current snapshot.
func (s *Service) Screen(specs []screener.FilterSpec) (map[string][]indicator.Row, error) {
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
	}
	s.mu.RLock()
	snapshot := s.snapshot
	s.mu.RUnlock()
	return screener.Evaluate(snapshot, specs), nil
}

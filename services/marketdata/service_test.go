package marketdata

import (
	"context"
	"testing"
	"time"

	"nse_screener_backend/services/indicator"
	"nse_screener_backend/services/screener"
)

type staticSource struct {
	bars []indicator.Bar
}

func (s *staticSource) LoadBars(ctx context.Context) ([]indicator.Bar, error) {
	return s.bars, nil
}

func testBars() []indicator.Bar {
	var bars []indicator.Bar
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, sym := range []string{"INFY", "TCS", "^NSEI"} {
		for i := 0; i < 30; i++ {
			c := 100 + float64(i)
			bars = append(bars, indicator.Bar{
				Symbol: sym,
				Date:   base.AddDate(0, 0, i),
				Open:   c - 0.5,
				High:   c + 1,
				Low:    c - 1,
				Close:  c,
				Volume: 1000,
			})
		}
	}
	return bars
}

func testConfig() indicator.Config {
	cfg := indicator.DefaultConfig()
	cfg.SMAPeriods = []int{5, 20}
	return cfg
}

func TestRefreshPublishesConsistentState(t *testing.T) {
	svc := NewService(&staticSource{bars: testBars()}, testConfig())

	var got []Summary
	svc.Subscribe(func(s Summary) { got = append(got, s) })

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	snap := svc.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot has %d rows, want 3", len(snap))
	}
	if svc.RefreshedAt().IsZero() {
		t.Error("refreshed-at not set")
	}
	if len(got) != 1 || got[0].Symbols != 3 || got[0].Rows != 90 {
		t.Errorf("subscriber summary = %+v, want 3 symbols / 90 rows", got)
	}
	if series := svc.Series("TCS"); len(series) != 30 {
		t.Errorf("TCS series has %d rows, want 30", len(series))
	}
	if buckets := svc.Buckets(); len(buckets) != len(svc.Presets()) {
		t.Errorf("bucket count %d, want %d", len(buckets), len(svc.Presets()))
	}
}

func TestScreenValidatesSpecs(t *testing.T) {
	svc := NewService(&staticSource{bars: testBars()}, testConfig())
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if _, err := svc.Screen([]screener.FilterSpec{
		{Label: "bad", Predicates: []screener.Predicate{{Field: screener.Column("nope"), Op: screener.OpGT}}},
	}); err == nil {
		t.Fatal("invalid spec accepted")
	}

	buckets, err := svc.Screen([]screener.FilterSpec{
		{Label: "all", Predicates: nil},
		{Label: "pricey", Predicates: []screener.Predicate{
			{Field: screener.Column("close"), Op: screener.OpGTE, Value: 129},
		}},
	})
	if err != nil {
		t.Fatalf("screen: %v", err)
	}
	if len(buckets["all"]) != 3 {
		t.Errorf("identity bucket has %d rows, want 3", len(buckets["all"]))
	}
	if len(buckets["pricey"]) != 3 {
		t.Errorf("pricey bucket has %d rows, want 3 (all closes are 129)", len(buckets["pricey"]))
	}
}

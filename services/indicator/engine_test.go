package indicator

import (
	"math"
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// mkBars builds a daily series for one symbol from close prices, with
// a small synthetic range around each close.
func mkBars(symbol string, closes ...float64) []Bar {
	bars := make([]Bar, len(closes))
	for i, c := range closes {
		bars[i] = Bar{
			Symbol: symbol,
			Date:   day(i),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func ramp(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func testConfig() Config {
	return Config{
		SMAPeriods:      []int{5},
		EMAPeriods:      []int{5},
		RSIPeriod:       14,
		ADXPeriod:       14,
		VolAvgPeriod:    5,
		ChangeLookbacks: []int{1, 5, 21},
		BenchmarkSymbol: "^NSEI",
		EnableRelative:  false,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func symbolRows(rows []Row, symbol string) []Row {
	var out []Row
	for _, r := range rows {
		if r.Symbol == symbol {
			out = append(out, r)
		}
	}
	return out
}

func TestSMAWarmupAndValues(t *testing.T) {
	cfg := testConfig()
	cfg.SMAPeriods = []int{3}

	rows, _, err := Compute(mkBars("ABC", 10, 20, 30, 40, 50), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key := Key{KindSMA, 3}
	for i := 0; i < 2; i++ {
		if _, ok := rows[i].Value(key); ok {
			t.Errorf("row %d: sma3 should be undefined during warm-up", i)
		}
	}
	want := []float64{20, 30, 40}
	for i, w := range want {
		got, ok := rows[i+2].Value(key)
		if !ok || !almostEqual(got, w) {
			t.Errorf("row %d: sma3 = %v (defined=%v), want %v", i+2, got, ok, w)
		}
	}
}

func TestEMASeededByFirstClose(t *testing.T) {
	cfg := testConfig()
	cfg.EMAPeriods = []int{9}

	rows, _, err := Compute(mkBars("ABC", 100, 110, 120), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key := Key{KindEMA, 9}
	first, ok := rows[0].Value(key)
	if !ok || first != 100 {
		t.Fatalf("ema9 at row 0 = %v (defined=%v), want seed 100", first, ok)
	}
	alpha := 2.0 / 10.0
	second, _ := rows[1].Value(key)
	if !almostEqual(second, alpha*110+(1-alpha)*100) {
		t.Errorf("ema9 at row 1 = %v, want %v", second, alpha*110+(1-alpha)*100)
	}
}

func TestCrossSymbolIsolation(t *testing.T) {
	cfg := testConfig()

	target := mkBars("AAA", ramp(100, 1.5, 40)...)
	other := mkBars("ZZZ", ramp(500, -3, 40)...)

	interleaved := make([]Bar, 0, len(target)+len(other))
	for i := range target {
		interleaved = append(interleaved, target[i], other[i])
	}

	// Same rows with the other symbol's series scrambled into a
	// different position in the input table.
	reordered := make([]Bar, 0, len(target)+len(other))
	for i := len(other) - 1; i >= 0; i-- {
		reordered = append(reordered, other[i])
	}
	reordered = append(reordered, target...)

	a, _, err := Compute(interleaved, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _, err := Compute(reordered, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ra := symbolRows(a, "AAA")
	rb := symbolRows(b, "AAA")
	if len(ra) != len(rb) {
		t.Fatalf("row count mismatch: %d vs %d", len(ra), len(rb))
	}
	for i := range ra {
		if len(ra[i].Values) != len(rb[i].Values) {
			t.Fatalf("row %d: value count differs", i)
		}
		for k, v := range ra[i].Values {
			if w, ok := rb[i].Values[k]; !ok || v != w {
				t.Errorf("row %d %v: %v vs %v", i, k, v, w)
			}
		}
	}
}

func TestConstantCloseChangesAreZero(t *testing.T) {
	cfg := testConfig()
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}

	rows, _, err := Compute(mkBars("FLAT", closes...), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, k := range cfg.ChangeLookbacks {
		key := Key{KindChange, k}
		for i, r := range rows {
			v, ok := r.Value(key)
			if i < k {
				if ok {
					t.Errorf("chg%d defined at row %d during warm-up", k, i)
				}
				continue
			}
			if !ok || v != 0 {
				t.Errorf("chg%d at row %d = %v (defined=%v), want 0", k, i, v, ok)
			}
		}
	}
}

func TestRelativePerformanceAgainstEqualBenchmark(t *testing.T) {
	cfg := testConfig()
	cfg.EnableRelative = true

	closes := ramp(200, 2, 25)
	bars := append(mkBars("ABC", closes...), mkBars("^NSEI", closes...)...)

	rows, report, err := Compute(bars, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.BenchmarkMissing {
		t.Fatal("benchmark should have been found")
	}

	key := Key{Kind: KindRelPerf}
	for i, r := range symbolRows(rows, "ABC") {
		v, ok := r.Value(key)
		if !ok || !almostEqual(v, 100) {
			t.Errorf("row %d: relative_perf = %v (defined=%v), want 100", i, v, ok)
		}
	}
}

func TestRelativePerformanceLeftJoin(t *testing.T) {
	cfg := testConfig()
	cfg.EnableRelative = true

	target := mkBars("ABC", 100, 101, 102, 103)
	bench := mkBars("^NSEI", 50, 51)
	rows, _, err := Compute(append(target, bench...), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	abc := symbolRows(rows, "ABC")
	if len(abc) != 4 {
		t.Fatalf("target rows dropped: got %d, want 4", len(abc))
	}
	key := Key{Kind: KindRelPerf}
	if v, ok := abc[0].Value(key); !ok || !almostEqual(v, 200) {
		t.Errorf("day 0: relative_perf = %v (defined=%v), want 200", v, ok)
	}
	for i := 2; i < 4; i++ {
		if _, ok := abc[i].Value(key); ok {
			t.Errorf("day %d: relative_perf should be undefined without a benchmark close", i)
		}
	}
}

func TestBenchmarkUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.EnableRelative = true

	rows, report, err := Compute(mkBars("ABC", ramp(100, 1, 25)...), cfg)
	if err != nil {
		t.Fatalf("benchmark absence must not fail: %v", err)
	}
	if !report.BenchmarkMissing {
		t.Error("expected BenchmarkMissing in report")
	}
	key := Key{Kind: KindRelPerf}
	for i, r := range rows {
		if _, ok := r.Value(key); ok {
			t.Errorf("row %d: relative_perf should be undefined", i)
		}
	}
}

func TestSchemaErrorOnMissingColumns(t *testing.T) {
	cfg := testConfig()
	bars := []Bar{
		{Symbol: "", Date: day(0), Close: 10},
		{Symbol: "ABC", Close: 11},
	}

	_, _, err := Compute(bars, cfg)
	se, ok := err.(*SchemaError)
	if !ok {
		t.Fatalf("expected *SchemaError, got %v", err)
	}
	if len(se.Columns) != 2 || se.Columns[0] != "symbol" || se.Columns[1] != "date" {
		t.Errorf("unexpected columns: %v", se.Columns)
	}
}

func TestUnsortedInputMatchesSorted(t *testing.T) {
	cfg := testConfig()
	bars := mkBars("ABC", ramp(100, 1, 30)...)

	reversed := make([]Bar, len(bars))
	for i, b := range bars {
		reversed[len(bars)-1-i] = b
	}

	a, _, err := Compute(bars, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _, err := Compute(reversed, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range a {
		if !a[i].Date.Equal(b[i].Date) {
			t.Fatalf("row %d: order differs", i)
		}
		for k, v := range a[i].Values {
			if w, ok := b[i].Values[k]; !ok || v != w {
				t.Errorf("row %d %v: %v vs %v", i, k, v, w)
			}
		}
	}
}

func TestSupersetOfPeriodsIsStable(t *testing.T) {
	bars := mkBars("ABC", ramp(100, 0.7, 60)...)

	base := testConfig()
	base.SMAPeriods = []int{5}
	wide := testConfig()
	wide.SMAPeriods = []int{5, 10, 20}
	wide.EMAPeriods = []int{5, 9}

	a, _, err := Compute(bars, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _, err := Compute(bars, wide)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range a {
		for k, v := range a[i].Values {
			if w, ok := b[i].Values[k]; !ok || v != w {
				t.Errorf("row %d %v changed under superset config: %v vs %v", i, k, v, w)
			}
		}
	}
}

func TestRSIAllGains(t *testing.T) {
	cfg := testConfig()
	rows, _, err := Compute(mkBars("UP", ramp(100, 1, 20)...), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key := Key{KindRSI, cfg.RSIPeriod}
	for i := 0; i < cfg.RSIPeriod; i++ {
		if _, ok := rows[i].Value(key); ok {
			t.Errorf("rsi defined at row %d during warm-up", i)
		}
	}
	v, ok := rows[cfg.RSIPeriod].Value(key)
	if !ok || v != 100 {
		t.Errorf("rsi for gain-only series = %v (defined=%v), want 100", v, ok)
	}
}

func TestADXWarmupAndDirection(t *testing.T) {
	cfg := testConfig()
	cfg.ADXPeriod = 3
	p := cfg.ADXPeriod

	rows, _, err := Compute(mkBars("UP", ramp(100, 2, 12)...), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	plusKey := Key{KindPlusDI, p}
	adxKey := Key{KindADX, p}

	for i := 0; i < p; i++ {
		if _, ok := rows[i].Value(plusKey); ok {
			t.Errorf("+di defined at row %d during warm-up", i)
		}
	}
	for i := 0; i < 2*p-1; i++ {
		if _, ok := rows[i].Value(adxKey); ok {
			t.Errorf("adx defined at row %d during warm-up", i)
		}
	}

	last := rows[len(rows)-1]
	pdi, ok := last.Value(plusKey)
	if !ok {
		t.Fatal("+di undefined after warm-up")
	}
	mdi, _ := last.Value(Key{KindMinusDI, p})
	if pdi <= mdi {
		t.Errorf("uptrend should have +di (%v) above -di (%v)", pdi, mdi)
	}
	if adx, ok := last.Value(adxKey); !ok || adx <= 0 {
		t.Errorf("adx = %v (defined=%v), want positive trend strength", adx, ok)
	}
}

// The worked example from the dashboard: 25 days of closes rising
// 100..124 with flat volume.
func TestEndToEndRisingSeries(t *testing.T) {
	cfg := testConfig()
	cfg.SMAPeriods = []int{5}

	rows, _, err := Compute(mkBars("ABC", ramp(100, 1, 25)...), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := rows[len(rows)-1]
	if sma, ok := last.Value(Key{KindSMA, 5}); !ok || !almostEqual(sma, 122) {
		t.Errorf("sma5 on day 25 = %v (defined=%v), want 122", sma, ok)
	}
	chg, ok := last.Value(Key{KindChange, 1})
	if !ok || !almostEqual(chg, (124.0/123.0-1)*100) {
		t.Errorf("chg1 on day 25 = %v (defined=%v), want %v", chg, ok, (124.0/123.0-1)*100)
	}
	if vol, ok := last.Value(Key{KindVolAvg, 5}); !ok || !almostEqual(vol, 1000) {
		t.Errorf("vol_avg5 on day 25 = %v (defined=%v), want 1000", vol, ok)
	}
}

func TestShortHistoryReported(t *testing.T) {
	cfg := testConfig()
	bars := append(mkBars("TINY", 10, 11), mkBars("FULL", ramp(100, 1, 40)...)...)

	_, report, err := Compute(bars, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.ShortHistory) != 1 || report.ShortHistory[0] != "TINY" {
		t.Errorf("short history = %v, want [TINY]", report.ShortHistory)
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	cfg := testConfig()
	cfg.RSIPeriod = 0
	if _, _, err := Compute(mkBars("ABC", 1, 2, 3), cfg); err == nil {
		t.Fatal("expected config validation error")
	}
}

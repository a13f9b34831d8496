package indicator

import (
	"math"
	"sort"
)

const dateLayout = "2006-01-02"

// Compute enriches bars with the derived columns requested by cfg.
// The input is never mutated; bars may arrive unsorted and interleaved
// across symbols. Output rows are ordered by (symbol, date) and every
// derived value is computed strictly from the owning symbol's series,
// except the relative-performance join against the benchmark series.
//
// Identical input and config always produce identical output, and
// requesting a superset of periods never changes the values of columns
// that were already requested.
func Compute(bars []Bar, cfg Config) ([]Row, Report, error) {
	var report Report

	if err := cfg.Validate(); err != nil {
		return nil, report, err
	}
	if err := validateBars(bars); err != nil {
		return nil, report, err
	}

	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Symbol != sorted[j].Symbol {
			return sorted[i].Symbol < sorted[j].Symbol
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})

	// Resolve the benchmark series once, before any per-symbol work.
	var bench map[string]float64
	if cfg.EnableRelative {
		bench = benchmarkCloses(sorted, cfg.BenchmarkSymbol)
		if len(bench) == 0 {
			report.BenchmarkMissing = true
		}
	}

	minRows := minimumRows(cfg)
	rows := make([]Row, 0, len(sorted))

	for start := 0; start < len(sorted); {
		end := start
		for end < len(sorted) && sorted[end].Symbol == sorted[start].Symbol {
			end++
		}
		series := sorted[start:end]
		if len(series) < minRows {
			report.ShortHistory = append(report.ShortHistory, series[0].Symbol)
		}
		rows = append(rows, computeSeries(series, cfg, bench)...)
		start = end
	}

	return rows, report, nil
}

// validateBars rejects input whose identifying columns are absent.
// Blank symbols or zero dates mean the caller handed over a table
// without the columns the engine depends on.
func validateBars(bars []Bar) error {
	missingSymbol := false
	missingDate := false
	for _, b := range bars {
		if b.Symbol == "" {
			missingSymbol = true
		}
		if b.Date.IsZero() {
			missingDate = true
		}
	}
	if !missingSymbol && !missingDate {
		return nil
	}
	var cols []string
	if missingSymbol {
		cols = append(cols, "symbol")
	}
	if missingDate {
		cols = append(cols, "date")
	}
	return NewSchemaError(cols...)
}

func benchmarkCloses(sorted []Bar, symbol string) map[string]float64 {
	closes := make(map[string]float64)
	for _, b := range sorted {
		if b.Symbol == symbol {
			closes[b.Date.Format(dateLayout)] = b.Close
		}
	}
	return closes
}

// minimumRows is the largest warm-up any requested column needs; a
// series shorter than this leaves at least one column undefined on
// every one of its rows.
func minimumRows(cfg Config) int {
	min := cfg.VolAvgPeriod
	for _, p := range cfg.SMAPeriods {
		if p > min {
			min = p
		}
	}
	for _, p := range cfg.EMAPeriods {
		if p > min {
			min = p
		}
	}
	if cfg.RSIPeriod+1 > min {
		min = cfg.RSIPeriod + 1
	}
	if 2*cfg.ADXPeriod > min {
		min = 2 * cfg.ADXPeriod
	}
	for _, k := range cfg.ChangeLookbacks {
		if k+1 > min {
			min = k + 1
		}
	}
	return min
}

// computeSeries derives all columns for one symbol's date-ascending series.
func computeSeries(series []Bar, cfg Config, bench map[string]float64) []Row {
	rows := make([]Row, len(series))
	for i, b := range series {
		rows[i] = Row{Bar: b, Values: make(map[Key]float64)}
	}

	for _, p := range cfg.SMAPeriods {
		rollingMean(rows, Key{KindSMA, p}, func(b Bar) float64 { return b.Close })
	}
	rollingMean(rows, Key{KindVolAvg, cfg.VolAvgPeriod}, func(b Bar) float64 { return b.Volume })

	for _, p := range cfg.EMAPeriods {
		exponentialMean(rows, p)
	}

	for _, k := range cfg.ChangeLookbacks {
		percentChange(rows, k)
	}

	wilderRSI(rows, cfg.RSIPeriod)
	wilderADX(rows, cfg.ADXPeriod)

	if bench != nil {
		key := Key{Kind: KindRelPerf}
		for i := range rows {
			bc, ok := bench[rows[i].Date.Format(dateLayout)]
			if ok && bc != 0 {
				rows[i].Values[key] = rows[i].Close / bc * 100
			}
		}
	}

	return rows
}

// rollingMean writes the trailing mean of pick over key.Period rows,
// leaving the first period-1 rows undefined.
func rollingMean(rows []Row, key Key, pick func(Bar) float64) {
	p := key.Period
	sum := 0.0
	for i := range rows {
		sum += pick(rows[i].Bar)
		if i >= p {
			sum -= pick(rows[i-p].Bar)
		}
		if i >= p-1 {
			rows[i].Values[key] = sum / float64(p)
		}
	}
}

// exponentialMean seeds with the first close and applies the
// 2/(p+1) recurrence, so the column is defined from the first row.
func exponentialMean(rows []Row, p int) {
	if len(rows) == 0 {
		return
	}
	key := Key{KindEMA, p}
	alpha := 2.0 / float64(p+1)
	ema := rows[0].Close
	rows[0].Values[key] = ema
	for i := 1; i < len(rows); i++ {
		ema = alpha*rows[i].Close + (1-alpha)*ema
		rows[i].Values[key] = ema
	}
}

func percentChange(rows []Row, k int) {
	key := Key{KindChange, k}
	for i := k; i < len(rows); i++ {
		prev := rows[i-k].Close
		if prev != 0 {
			rows[i].Values[key] = (rows[i].Close/prev - 1) * 100
		}
	}
}

// wilderRSI computes the classic Wilder relative-strength index: the
// first value averages the first p deltas, later values use the
// (p-1)/p smoothing recurrence.
func wilderRSI(rows []Row, p int) {
	if len(rows) <= p {
		return
	}
	key := Key{KindRSI, p}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= p; i++ {
		delta := rows[i].Close - rows[i-1].Close
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss += -delta
		}
	}
	avgGain /= float64(p)
	avgLoss /= float64(p)
	rows[p].Values[key] = rsiValue(avgGain, avgLoss)

	for i := p + 1; i < len(rows); i++ {
		delta := rows[i].Close - rows[i-1].Close
		gain := 0.0
		loss := 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(p-1) + gain) / float64(p)
		avgLoss = (avgLoss*float64(p-1) + loss) / float64(p)
		rows[i].Values[key] = rsiValue(avgGain, avgLoss)
	}
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// wilderADX computes +DI, -DI and ADX with Wilder's true-range and
// directional-movement smoothing. +DI/-DI warm up after p deltas, ADX
// after a further p DX observations.
func wilderADX(rows []Row, p int) {
	n := len(rows)
	if n <= p {
		return
	}

	adxKey := Key{KindADX, p}
	plusKey := Key{KindPlusDI, p}
	minusKey := Key{KindMinusDI, p}

	tr := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		high := rows[i].High
		low := rows[i].Low
		prev := rows[i-1].Bar

		tr[i] = math.Max(high-low, math.Max(math.Abs(high-prev.Close), math.Abs(low-prev.Close)))

		up := high - prev.High
		down := prev.Low - low
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	// Seed the smoothed sums over the first p deltas.
	str := 0.0
	spdm := 0.0
	smdm := 0.0
	for i := 1; i <= p; i++ {
		str += tr[i]
		spdm += plusDM[i]
		smdm += minusDM[i]
	}

	adx := 0.0
	dxSum := 0.0
	dxCount := 0
	for i := p; i < n; i++ {
		if i > p {
			str = str - str/float64(p) + tr[i]
			spdm = spdm - spdm/float64(p) + plusDM[i]
			smdm = smdm - smdm/float64(p) + minusDM[i]
		}

		dx := 0.0
		if str > 0 {
			pdi := 100 * spdm / str
			mdi := 100 * smdm / str
			rows[i].Values[plusKey] = pdi
			rows[i].Values[minusKey] = mdi
			if pdi+mdi > 0 {
				dx = 100 * math.Abs(pdi-mdi) / (pdi + mdi)
			}
		}

		dxCount++
		if dxCount < p {
			dxSum += dx
			continue
		}
		if dxCount == p {
			dxSum += dx
			adx = dxSum / float64(p)
		} else {
			adx = (adx*float64(p-1) + dx) / float64(p)
		}
		rows[i].Values[adxKey] = adx
	}
}

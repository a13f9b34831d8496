package screener

import "nse_screener_backend/services/indicator"

// PresetBuckets returns the built-in strategy buckets. RSI and volume
// windows follow cfg; the Minervini trend template additionally needs
// 150- and 200-day SMAs in cfg.SMAPeriods, otherwise its SMA predicates
// match nothing.
func PresetBuckets(cfg indicator.Config) []FilterSpec {
	return []FilterSpec{
		{
			Label: "Minervini",
			Predicates: []Predicate{
				{Field: Column("close"), Op: OpGT, Ref: ref(Derived(indicator.KindSMA, 150))},
				{Field: Column("close"), Op: OpGT, Ref: ref(Derived(indicator.KindSMA, 200))},
				{Field: Derived(indicator.KindRelPerf, 0), Op: OpGTE, Value: 100},
				{Field: Column("close"), Op: OpGTE, Value: 80},
			},
		},
		{
			Label: "QullaMaggie",
			Predicates: []Predicate{
				{Field: Derived(indicator.KindChange, 1), Op: OpGTE, Value: 2},
				{Field: Column("volume"), Op: OpGT, Ref: ref(Derived(indicator.KindVolAvg, cfg.VolAvgPeriod)), Scale: 1.5},
			},
		},
		{
			Label: "StockBee",
			Predicates: []Predicate{
				{Field: Derived(indicator.KindChange, 1), Op: OpGTE, Value: 5},
				{Field: Derived(indicator.KindRSI, cfg.RSIPeriod), Op: OpLTE, Value: 70},
				{Field: Derived(indicator.KindRelPerf, 0), Op: OpGTE, Value: 100},
			},
		},
	}
}

func ref(f Field) *Field {
	return &f
}

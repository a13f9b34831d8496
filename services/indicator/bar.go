package indicator

import (
	"strconv"
	"time"
)

// Bar is one trading day for one symbol. At most one Bar exists per
// (symbol, date) pair.
type Bar struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Kind identifies a family of derived values.
type Kind string

const (
	KindSMA     Kind = "sma"
	KindEMA     Kind = "ema"
	KindRSI     Kind = "rsi"
	KindADX     Kind = "adx"
	KindPlusDI  Kind = "plus_di"
	KindMinusDI Kind = "minus_di"
	KindChange  Kind = "chg"      // % change over Period trading days
	KindVolAvg  Kind = "vol_avg"  // trailing average volume
	KindRelPerf Kind = "rel_perf" // close / benchmark close * 100
)

// Key addresses one derived column: an indicator kind plus its period.
// Kinds without a natural period (rel_perf) use Period 0.
type Key struct {
	Kind   Kind `json:"kind"`
	Period int  `json:"period"`
}

// String renders the key as a column name: sma20, chg5, rel_perf.
func (k Key) String() string {
	if k.Period == 0 {
		return string(k.Kind)
	}
	return string(k.Kind) + strconv.Itoa(k.Period)
}

// MarshalText lets a Values map serialize as a flat JSON object keyed
// by column name.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Row is a Bar enriched with derived values. A key absent from Values
// means the value is undefined for that row (insufficient history, or
// no benchmark close on that date).
type Row struct {
	Bar
	Values map[Key]float64 `json:"values"`
}

// Value returns the derived value for k, and whether it is defined.
func (r Row) Value(k Key) (float64, bool) {
	v, ok := r.Values[k]
	return v, ok
}

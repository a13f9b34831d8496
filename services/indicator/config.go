package indicator

import "fmt"

// Config controls which derived columns Compute produces.
type Config struct {
	SMAPeriods      []int  `json:"sma_periods"`
	EMAPeriods      []int  `json:"ema_periods"`
	RSIPeriod       int    `json:"rsi_period"`
	ADXPeriod       int    `json:"adx_period"`
	VolAvgPeriod    int    `json:"vol_avg_period"`
	ChangeLookbacks []int  `json:"change_lookbacks"`
	BenchmarkSymbol string `json:"benchmark_symbol"`
	EnableRelative  bool   `json:"enable_relative"`
}

// DefaultConfig mirrors the dashboard defaults: daily/weekly/monthly
// change lookbacks and the NIFTY 50 index as benchmark.
func DefaultConfig() Config {
	return Config{
		SMAPeriods:      []int{20, 50, 150, 200},
		EMAPeriods:      []int{10, 20},
		RSIPeriod:       14,
		ADXPeriod:       14,
		VolAvgPeriod:    20,
		ChangeLookbacks: []int{1, 5, 21},
		BenchmarkSymbol: "^NSEI",
		EnableRelative:  true,
	}
}

// Validate rejects non-positive periods.
func (c Config) Validate() error {
	for _, p := range c.SMAPeriods {
		if p <= 0 {
			return fmt.Errorf("invalid SMA period %d", p)
		}
	}
	for _, p := range c.EMAPeriods {
		if p <= 0 {
			return fmt.Errorf("invalid EMA period %d", p)
		}
	}
	if c.RSIPeriod <= 0 {
		return fmt.Errorf("invalid RSI period %d", c.RSIPeriod)
	}
	if c.ADXPeriod <= 0 {
		return fmt.Errorf("invalid ADX period %d", c.ADXPeriod)
	}
	if c.VolAvgPeriod <= 0 {
		return fmt.Errorf("invalid volume average period %d", c.VolAvgPeriod)
	}
	for _, k := range c.ChangeLookbacks {
		if k <= 0 {
			return fmt.Errorf("invalid change lookback %d", k)
		}
	}
	if c.EnableRelative && c.BenchmarkSymbol == "" {
		return fmt.Errorf("relative performance enabled but benchmark symbol is empty")
	}
	return nil
}

package model

import "time"

// AssetStats holds the summary statistics for one asset over the window.
type AssetStats struct {
	Asset      string  `json:"asset"`
	MeanPrice  float64 `json:"mean_price"`
	Volatility float64 `json:"volatility"` // coefficient of variation, percent
	ChangePct  float64 `json:"change_pct"` // first-to-last price change, percent
	AvgVolume  float64 `json:"avg_volume"`
	Days       int     `json:"days"`
}

// PairCorrelation is the Pearson correlation of two assets' prices,
// computed over their common dates.
type PairCorrelation struct {
	Base        string  `json:"base"`
	Quote       string  `json:"quote"`
	Coefficient float64 `json:"coefficient"`
	SampleSize  int     `json:"sample_size"`
}

// WeekdayStat holds average price and volume for one weekday.
type WeekdayStat struct {
	Weekday   string  `json:"weekday"`
	AvgPrice  float64 `json:"avg_price"`
	AvgVolume float64 `json:"avg_volume"`
}

// Analysis is the full output of one analyze run.
type Analysis struct {
	GeneratedAt   time.Time         `json:"generated_at"`
	WindowDays    int               `json:"window_days"`
	BaseAsset     string            `json:"base_asset"`
	Stats         []AssetStats      `json:"stats"`
	Correlations  []PairCorrelation `json:"correlations"`
	WeekdayTrends []WeekdayStat     `json:"weekday_trends"`
	Busiest       WeekdayStat       `json:"busiest_weekday"`
	Quietest      WeekdayStat       `json:"quietest_weekday"`
}

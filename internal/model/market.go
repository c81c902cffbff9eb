package model

import "time"

// DailyQuote is one day of market data for a single asset.
type DailyQuote struct {
	Date      time.Time `json:"date"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	MarketCap float64   `json:"market_cap"`
}

// QuoteSeries holds the daily series for one asset, oldest first.
type QuoteSeries struct {
	Asset     string       `json:"asset"`
	Quotes    []DailyQuote `json:"quotes"`
	FetchedAt time.Time    `json:"fetched_at"`
}

func (s *QuoteSeries) Len() int { return len(s.Quotes) }

// Prices returns the price column in date order.
func (s *QuoteSeries) Prices() []float64 {
	out := make([]float64, len(s.Quotes))
	for i, q := range s.Quotes {
		out[i] = q.Price
	}
	return out
}

// Volumes returns the volume column in date order.
func (s *QuoteSeries) Volumes() []float64 {
	out := make([]float64, len(s.Quotes))
	for i, q := range s.Quotes {
		out[i] = q.Volume
	}
	return out
}

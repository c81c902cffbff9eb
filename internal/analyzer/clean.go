package analyzer

import (
	"math"
	"sort"

	"CoinScope/internal/model"
)

// Clean sorts a series by date, linearly interpolates gaps (zero or NaN
// values) in each column, and drops any row whose price or volume is
// still non-positive afterwards.
func Clean(s model.QuoteSeries) model.QuoteSeries {
	quotes := make([]model.DailyQuote, len(s.Quotes))
	copy(quotes, s.Quotes)
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Date.Before(quotes[j].Date) })

	prices := make([]float64, len(quotes))
	volumes := make([]float64, len(quotes))
	caps := make([]float64, len(quotes))
	for i, q := range quotes {
		prices[i] = q.Price
		volumes[i] = q.Volume
		caps[i] = q.MarketCap
	}
	interpolate(prices)
	interpolate(volumes)
	interpolate(caps)

	cleaned := model.QuoteSeries{Asset: s.Asset, FetchedAt: s.FetchedAt}
	for i, q := range quotes {
		q.Price = prices[i]
		q.Volume = volumes[i]
		q.MarketCap = caps[i]
		if q.Price <= 0 || q.Volume <= 0 {
			continue
		}
		cleaned.Quotes = append(cleaned.Quotes, q)
	}
	return cleaned
}

// interpolate fills invalid entries (non-positive or NaN) linearly between
// the nearest valid neighbours. Gaps at either edge copy the nearest valid
// value. A column with no valid entries is left untouched.
func interpolate(xs []float64) {
	valid := func(v float64) bool { return v > 0 && !math.IsNaN(v) }

	first, last := -1, -1
	for i, v := range xs {
		if valid(v) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return
	}

	for i := 0; i < first; i++ {
		xs[i] = xs[first]
	}
	for i := last + 1; i < len(xs); i++ {
		xs[i] = xs[last]
	}

	prev := first
	for i := first + 1; i <= last; i++ {
		if !valid(xs[i]) {
			continue
		}
		if i > prev+1 {
			step := (xs[i] - xs[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				xs[j] = xs[prev] + step*float64(j-prev)
			}
		}
		prev = i
	}
}

package analyzer

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"CoinScope/internal/model"
)

var (
	// ErrNotEnoughData is returned when a series has fewer than two points.
	ErrNotEnoughData = errors.New("not enough data points")
	// ErrDegenerateSeries is returned when a correlation input has zero variance.
	ErrDegenerateSeries = errors.New("degenerate series: zero variance")
)

// Stats computes the per-asset summary over a cleaned series: mean price,
// volatility as coefficient of variation in percent, first-to-last price
// change in percent, and mean volume.
func Stats(s model.QuoteSeries) (model.AssetStats, error) {
	if s.Len() < 2 {
		return model.AssetStats{}, fmt.Errorf("stats %s: %w", s.Asset, ErrNotEnoughData)
	}

	prices := s.Prices()
	mean := stat.Mean(prices, nil)
	if mean == 0 {
		return model.AssetStats{}, fmt.Errorf("stats %s: zero mean price", s.Asset)
	}

	first := prices[0]
	last := prices[len(prices)-1]

	return model.AssetStats{
		Asset:      s.Asset,
		MeanPrice:  mean,
		Volatility: stat.StdDev(prices, nil) / mean * 100,
		ChangePct:  (last - first) / first * 100,
		AvgVolume:  stat.Mean(s.Volumes(), nil),
		Days:       s.Len(),
	}, nil
}

// Correlate computes the Pearson correlation of two assets' prices over
// their common dates. The coefficient is clamped to [-1, 1] against
// floating point drift.
func Correlate(a, b model.QuoteSeries) (model.PairCorrelation, error) {
	bByDay := make(map[int64]float64, b.Len())
	for _, q := range b.Quotes {
		bByDay[q.Date.Unix()] = q.Price
	}

	var xs, ys []float64
	for _, q := range a.Quotes {
		if p, ok := bByDay[q.Date.Unix()]; ok {
			xs = append(xs, q.Price)
			ys = append(ys, p)
		}
	}
	if len(xs) < 2 {
		return model.PairCorrelation{}, fmt.Errorf("correlate %s/%s: %w", a.Asset, b.Asset, ErrNotEnoughData)
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return model.PairCorrelation{}, fmt.Errorf("correlate %s/%s: %w", a.Asset, b.Asset, ErrDegenerateSeries)
	}
	r = math.Max(-1, math.Min(1, r))

	return model.PairCorrelation{
		Base:        a.Asset,
		Quote:       b.Asset,
		Coefficient: r,
		SampleSize:  len(xs),
	}, nil
}

package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"CoinScope/internal/metrics"
	"CoinScope/internal/model"
	"CoinScope/internal/store"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	BasePrice float64
	Series    map[string][]model.DailyQuote
	Err       error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyQuotes(_ context.Context, asset string, days int) ([]model.DailyQuote, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if q, ok := m.Series[asset]; ok {
		return q, nil
	}
	return generateMockQuotes(m.BasePrice, days), nil
}

func generateMockQuotes(basePrice float64, days int) []model.DailyQuote {
	if basePrice == 0 {
		basePrice = 100
	}
	quotes := make([]model.DailyQuote, days)
	start := time.Now().UTC().AddDate(0, 0, -days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		p := basePrice * (1 + 0.02*math.Sin(float64(i)/3))
		quotes[i] = model.DailyQuote{
			Date:      time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
			Price:     p,
			Volume:    basePrice * 1e6 * (1 + 0.1*math.Cos(float64(i)/2)),
			MarketCap: p * 1e7,
		}
	}
	return quotes
}

// Collector fetches each configured asset and persists the result.
type Collector struct {
	fetcher Fetcher
	store   store.Store
	assets  []string
	days    int
	pause   time.Duration
	metrics *metrics.Recorder
	log     zerolog.Logger
}

// New creates a Collector. pause is the courtesy delay between assets to
// stay under the data source's rate limit.
func New(fetcher Fetcher, st store.Store, assets []string, days int, rec *metrics.Recorder, log zerolog.Logger) *Collector {
	return &Collector{
		fetcher: fetcher,
		store:   st,
		assets:  assets,
		days:    days,
		pause:   time.Second,
		metrics: rec,
		log:     log.With().Str("component", "collector").Logger(),
	}
}

// Collect fetches and stores every asset. A failing asset does not stop
// the others; all failures are reported together.
func (c *Collector) Collect(ctx context.Context) error {
	stageStart := time.Now()
	var errs []error
	for i, asset := range c.assets {
		if i > 0 && c.pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.pause):
			}
		}

		start := time.Now()
		quotes, err := c.fetcher.FetchDailyQuotes(ctx, asset, c.days)
		if err != nil {
			c.metrics.RecordFetch(asset, "error")
			c.metrics.RecordError("collect")
			c.log.Error().Err(err).Str("asset", asset).Msg("fetch failed")
			errs = append(errs, fmt.Errorf("collect %s: %w", asset, err))
			continue
		}
		c.metrics.RecordFetch(asset, "ok")
		if n := len(quotes); n > 0 {
			c.metrics.RecordLastPrice(asset, quotes[n-1].Price)
		}

		if err := c.store.SaveQuotes(asset, quotes); err != nil {
			c.metrics.RecordError("store")
			c.log.Error().Err(err).Str("asset", asset).Msg("store failed")
			errs = append(errs, fmt.Errorf("store %s: %w", asset, err))
			continue
		}
		c.metrics.RecordRowsWritten(asset, len(quotes))
		c.log.Info().Str("asset", asset).Int("rows", len(quotes)).
			Dur("took", time.Since(start)).Msg("asset collected")
	}
	c.metrics.RecordStageDuration("collect", time.Since(stageStart).Seconds())
	return errors.Join(errs...)
}

package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"CoinScope/internal/metrics"
	"CoinScope/internal/model"
)

const maxAttempts = 3

// CoinGeckoFetcher implements Fetcher using the CoinGecko market_chart API.
type CoinGeckoFetcher struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	vsCurrency string
	retryDelay time.Duration
	metrics    *metrics.Recorder
	log        zerolog.Logger
}

// CoinGeckoConfig configures a CoinGeckoFetcher.
type CoinGeckoConfig struct {
	BaseURL    string
	APIKey     string
	VsCurrency string
	RetryDelay time.Duration
	Proxy      string
}

// NewCoinGeckoFetcher creates a CoinGecko fetcher.
func NewCoinGeckoFetcher(cfg CoinGeckoConfig, rec *metrics.Recorder, log zerolog.Logger) *CoinGeckoFetcher {
	transport := &http.Transport{}
	if cfg.Proxy != "" {
		if u, err := url.Parse(cfg.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}
	return &CoinGeckoFetcher{
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		vsCurrency: cfg.VsCurrency,
		retryDelay: retryDelay,
		metrics:    rec,
		log:        log.With().Str("component", "coingecko").Logger(),
	}
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

// marketChart is the response structure of /coins/{id}/market_chart.
// Each entry is a [unix_ms, value] pair.
type marketChart struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
	MarketCaps   [][2]float64 `json:"market_caps"`
}

// retryableError marks failures worth another attempt (rate limits,
// transport errors). Other HTTP failures abort immediately.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// FetchDailyQuotes fetches up to `days` daily quotes for the asset,
// retrying rate-limited and transport failures with a fixed delay.
func (f *CoinGeckoFetcher) FetchDailyQuotes(ctx context.Context, asset string, days int) ([]model.DailyQuote, error) {
	endpoint := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=%s&days=%d&interval=daily",
		f.baseURL, url.PathEscape(asset), url.QueryEscape(f.vsCurrency), days)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			f.metrics.RecordRetry()
			f.log.Warn().Str("asset", asset).Int("attempt", attempt).
				Dur("delay", f.retryDelay).Msg("retrying fetch")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.retryDelay):
			}
		}

		quotes, err := f.fetchOnce(ctx, endpoint)
		if err == nil {
			f.log.Info().Str("asset", asset).Int("rows", len(quotes)).Msg("fetched daily quotes")
			return quotes, nil
		}
		lastErr = err

		var re *retryableError
		if !errors.As(err, &re) {
			return nil, fmt.Errorf("fetch %s: %w", asset, err)
		}
	}
	return nil, fmt.Errorf("fetch %s: giving up after %d attempts: %w", asset, maxAttempts, lastErr)
}

func (f *CoinGeckoFetcher) fetchOnce(ctx context.Context, endpoint string) ([]model.DailyQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if f.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", f.apiKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &retryableError{fmt.Errorf("coingecko request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryableError{fmt.Errorf("coingecko read body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &retryableError{fmt.Errorf("coingecko: rate limit exceeded")}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("coingecko: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart marketChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("coingecko decode: %w", err)
	}
	if len(chart.Prices) == 0 {
		return nil, fmt.Errorf("coingecko: no data returned")
	}
	return zipChart(&chart), nil
}

// zipChart collapses the three parallel [ms, value] arrays into one quote
// per UTC calendar day. The API's trailing entry is the current partial
// day; last value for a date wins, matching upsert semantics downstream.
func zipChart(chart *marketChart) []model.DailyQuote {
	byDay := make(map[int64]model.DailyQuote, len(chart.Prices))
	for i, p := range chart.Prices {
		ts := time.UnixMilli(int64(p[0])).UTC()
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		q := model.DailyQuote{Date: day, Price: p[1]}
		if i < len(chart.TotalVolumes) {
			q.Volume = chart.TotalVolumes[i][1]
		}
		if i < len(chart.MarketCaps) {
			q.MarketCap = chart.MarketCaps[i][1]
		}
		byDay[day.Unix()] = q
	}

	quotes := make([]model.DailyQuote, 0, len(byDay))
	for _, q := range byDay {
		quotes = append(quotes, q)
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Date.Before(quotes[j].Date) })
	return quotes
}

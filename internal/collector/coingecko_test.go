package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func msFor(y int, m time.Month, d, hour int) int64 {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC).UnixMilli()
}

func chartBody() string {
	// Two full days plus the current partial day sharing a date with
	// the second entry; the partial entry must win.
	return fmt.Sprintf(`{
		"prices":        [[%d, 100.0], [%d, 110.0], [%d, 112.0]],
		"total_volumes": [[%d, 1000.0], [%d, 1100.0], [%d, 1150.0]],
		"market_caps":   [[%d, 9000.0], [%d, 9100.0], [%d, 9150.0]]
	}`,
		msFor(2024, 1, 1, 0), msFor(2024, 1, 2, 0), msFor(2024, 1, 2, 14),
		msFor(2024, 1, 1, 0), msFor(2024, 1, 2, 0), msFor(2024, 1, 2, 14),
		msFor(2024, 1, 1, 0), msFor(2024, 1, 2, 0), msFor(2024, 1, 2, 14))
}

func newTestFetcher(baseURL, apiKey string) *CoinGeckoFetcher {
	return NewCoinGeckoFetcher(CoinGeckoConfig{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		VsCurrency: "usd",
		RetryDelay: time.Millisecond,
	}, nil, zerolog.Nop())
}

func TestCoinGecko_FetchDailyQuotes(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("x-cg-demo-api-key")
		fmt.Fprint(w, chartBody())
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL, "test-key")
	quotes, err := f.FetchDailyQuotes(context.Background(), "bitcoin", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/coins/bitcoin/market_chart" {
		t.Errorf("path: got %q", gotPath)
	}
	for _, param := range []string{"vs_currency=usd", "days=30", "interval=daily"} {
		if !strings.Contains(gotQuery, param) {
			t.Errorf("query %q missing %q", gotQuery, param)
		}
	}
	if gotKey != "test-key" {
		t.Errorf("api key header: got %q", gotKey)
	}

	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes (partial day collapsed), got %d", len(quotes))
	}
	first := quotes[0]
	if first.Price != 100 || first.Volume != 1000 || first.MarketCap != 9000 {
		t.Errorf("first quote: %+v", first)
	}
	if !first.Date.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first date: %v", first.Date)
	}
	// Last value for the duplicated day wins.
	if quotes[1].Price != 112 || quotes[1].Volume != 1150 {
		t.Errorf("second quote: %+v", quotes[1])
	}
}

func TestCoinGecko_RetriesOnRateLimit(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, chartBody())
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL, "")
	quotes, err := f.FetchDailyQuotes(context.Background(), "bitcoin", 30)
	if err != nil {
		t.Fatalf("unexpected error after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if len(quotes) != 2 {
		t.Errorf("expected 2 quotes, got %d", len(quotes))
	}
}

func TestCoinGecko_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL, "")
	if _, err := f.FetchDailyQuotes(context.Background(), "bitcoin", 30); err == nil {
		t.Fatal("expected error")
	}
	if calls != maxAttempts {
		t.Errorf("expected %d attempts, got %d", maxAttempts, calls)
	}
}

func TestCoinGecko_HardErrorDoesNotRetry(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL, "")
	if _, err := f.FetchDailyQuotes(context.Background(), "nosuchcoin", 30); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt, got %d", calls)
	}
}

func TestCoinGecko_EmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"prices": [], "total_volumes": [], "market_caps": []}`)
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL, "")
	if _, err := f.FetchDailyQuotes(context.Background(), "bitcoin", 30); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

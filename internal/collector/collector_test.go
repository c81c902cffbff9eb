package collector

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"CoinScope/internal/metrics"
	"CoinScope/internal/model"
	"CoinScope/internal/store"
)

func testStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestCollector_Collect(t *testing.T) {
	st := testStore(t)
	fetcher := &MockFetcher{BasePrice: 100}
	c := New(fetcher, st, []string{"bitcoin"}, 7, nil, zerolog.Nop())

	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	series, err := st.LoadSeries("bitcoin")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if series.Len() != 7 {
		t.Fatalf("expected 7 rows, got %d", series.Len())
	}
}

func TestCollector_FixedSeries(t *testing.T) {
	st := testStore(t)
	fixed := []model.DailyQuote{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Price: 100, Volume: 10},
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Price: 110, Volume: 12},
	}
	fetcher := &MockFetcher{Series: map[string][]model.DailyQuote{"bitcoin": fixed}}
	c := New(fetcher, st, []string{"bitcoin"}, 30, nil, zerolog.Nop())

	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	series, err := st.LoadSeries("bitcoin")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if series.Len() != 2 || series.Quotes[1].Price != 110 {
		t.Fatalf("unexpected series: %+v", series.Quotes)
	}
}

// flakyFetcher fails for one asset and serves the rest.
type flakyFetcher struct {
	fail string
}

func (f *flakyFetcher) Name() string { return "flaky" }

func (f *flakyFetcher) FetchDailyQuotes(_ context.Context, asset string, days int) ([]model.DailyQuote, error) {
	if asset == f.fail {
		return nil, errors.New("boom")
	}
	return generateMockQuotes(100, days), nil
}

func TestCollector_PartialFailure(t *testing.T) {
	st := testStore(t)
	c := New(&flakyFetcher{fail: "ethereum"}, st, []string{"ethereum", "bitcoin"}, 5, nil, zerolog.Nop())

	err := c.Collect(context.Background())
	if err == nil {
		t.Fatal("expected error for failing asset")
	}

	// The healthy asset must still have been collected.
	series, loadErr := st.LoadSeries("bitcoin")
	if loadErr != nil {
		t.Fatalf("load: %v", loadErr)
	}
	if series.Len() != 5 {
		t.Errorf("expected 5 bitcoin rows, got %d", series.Len())
	}
}

// Only this test may call metrics.New: the default registry rejects
// duplicate registrations.
func TestCollector_StageDurationOncePerRun(t *testing.T) {
	st := testStore(t)
	rec := metrics.New()
	c := New(&MockFetcher{BasePrice: 100}, st, []string{"bitcoin", "ethereum"}, 3, rec, zerolog.Nop())

	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var found bool
	for _, mf := range families {
		if mf.GetName() != "coinscope_stage_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "stage" && l.GetValue() == "collect" {
					found = true
					if n := m.GetHistogram().GetSampleCount(); n != 1 {
						t.Errorf("collect stage observed %d times, want 1 per run", n)
					}
				}
			}
		}
	}
	if !found {
		t.Fatal("collect stage duration not recorded")
	}
}

func TestCollector_ContextCancelled(t *testing.T) {
	st := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(&MockFetcher{BasePrice: 100}, st, []string{"bitcoin", "ethereum"}, 5, nil, zerolog.Nop())
	if err := c.Collect(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

package collector

import (
	"context"

	"CoinScope/internal/model"
)

// Fetcher retrieves the daily market series for a single asset.
type Fetcher interface {
	FetchDailyQuotes(ctx context.Context, asset string, days int) ([]model.DailyQuote, error)
	Name() string
}

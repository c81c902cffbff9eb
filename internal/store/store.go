package store

import "CoinScope/internal/model"

// Store persists daily quotes and serves the aggregate queries the
// analyzer needs.
type Store interface {
	SaveQuotes(asset string, quotes []model.DailyQuote) error
	LoadSeries(asset string) (model.QuoteSeries, error)
	Assets() ([]string, error)
	WeekdayAverages(asset string) ([]model.WeekdayStat, error)
	RecordRun(windowDays int, reportPath string) error
	Close() error
}

package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"CoinScope/internal/model"
)

const dateLayout = "2006-01-02"

// SQLiteStore persists quotes to a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so the HTTP API can read while a collect run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, log: log.With().Str("component", "store").Logger()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s.log.Info().Str("path", dbPath).Msg("sqlite store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS quotes (
			asset      TEXT NOT NULL,
			date       TEXT NOT NULL,
			price      REAL,
			volume     REAL,
			market_cap REAL,
			PRIMARY KEY (asset, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_date ON quotes(date)`,

		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			window_days INTEGER,
			report_path TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON analysis_runs(timestamp)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// SaveQuotes upserts one row per day for the asset. Re-collecting the same
// window overwrites the partial last day rather than duplicating it.
func (s *SQLiteStore) SaveQuotes(asset string, quotes []model.DailyQuote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO quotes (asset, date, price, volume, market_cap)
		VALUES (?,?,?,?,?)
		ON CONFLICT(asset, date) DO UPDATE SET
			price=excluded.price, volume=excluded.volume, market_cap=excluded.market_cap`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, q := range quotes {
		if _, err := stmt.Exec(asset, q.Date.UTC().Format(dateLayout), q.Price, q.Volume, q.MarketCap); err != nil {
			return fmt.Errorf("upsert quote %s/%s: %w", asset, q.Date.Format(dateLayout), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.log.Debug().Str("asset", asset).Int("rows", len(quotes)).Msg("quotes saved")
	return nil
}

// LoadSeries returns the stored series for an asset in date order.
// An unknown asset yields an empty series, not an error.
func (s *SQLiteStore) LoadSeries(asset string) (model.QuoteSeries, error) {
	rows, err := s.db.Query(
		`SELECT date, price, volume, market_cap FROM quotes WHERE asset = ? ORDER BY date`, asset)
	if err != nil {
		return model.QuoteSeries{}, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	series := model.QuoteSeries{Asset: asset, FetchedAt: time.Now()}
	for rows.Next() {
		var dateStr string
		var q model.DailyQuote
		if err := rows.Scan(&dateStr, &q.Price, &q.Volume, &q.MarketCap); err != nil {
			return model.QuoteSeries{}, fmt.Errorf("scan quote: %w", err)
		}
		q.Date, err = time.ParseInLocation(dateLayout, dateStr, time.UTC)
		if err != nil {
			return model.QuoteSeries{}, fmt.Errorf("parse date %q: %w", dateStr, err)
		}
		series.Quotes = append(series.Quotes, q)
	}
	return series, rows.Err()
}

// Assets lists every asset present in the quotes table.
func (s *SQLiteStore) Assets() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT asset FROM quotes ORDER BY asset`)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	var assets []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// WeekdayAverages aggregates average price and volume per weekday in SQL.
// strftime('%w') numbers weekdays 0=Sunday..6=Saturday.
func (s *SQLiteStore) WeekdayAverages(asset string) ([]model.WeekdayStat, error) {
	rows, err := s.db.Query(`
		SELECT CASE strftime('%w', date)
		           WHEN '0' THEN 'Sunday'
		           WHEN '1' THEN 'Monday'
		           WHEN '2' THEN 'Tuesday'
		           WHEN '3' THEN 'Wednesday'
		           WHEN '4' THEN 'Thursday'
		           WHEN '5' THEN 'Friday'
		           WHEN '6' THEN 'Saturday'
		       END AS weekday,
		       AVG(price)  AS avg_price,
		       AVG(volume) AS avg_volume
		FROM quotes
		WHERE asset = ?
		GROUP BY strftime('%w', date)
		ORDER BY strftime('%w', date)`, asset)
	if err != nil {
		return nil, fmt.Errorf("query weekday averages: %w", err)
	}
	defer rows.Close()

	var stats []model.WeekdayStat
	for rows.Next() {
		var ws model.WeekdayStat
		if err := rows.Scan(&ws.Weekday, &ws.AvgPrice, &ws.AvgVolume); err != nil {
			return nil, fmt.Errorf("scan weekday stat: %w", err)
		}
		stats = append(stats, ws)
	}
	return stats, rows.Err()
}

// RecordRun appends an audit row for a completed analyze run.
func (s *SQLiteStore) RecordRun(windowDays int, reportPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO analysis_runs (timestamp, window_days, report_path) VALUES (?,?,?)`,
		time.Now().Unix(), windowDays, reportPath)
	return err
}

func (s *SQLiteStore) Close() error {
	s.log.Info().Msg("closing sqlite store")
	return s.db.Close()
}

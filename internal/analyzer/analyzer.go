package analyzer

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"CoinScope/internal/model"
	"CoinScope/internal/store"
)

// Analyzer loads stored series, cleans them, and produces a full Analysis.
type Analyzer struct {
	store      store.Store
	baseAsset  string
	windowDays int
	log        zerolog.Logger
}

// New creates an Analyzer. baseAsset is the asset whose weekday volume
// trends drive the report's Trends section.
func New(st store.Store, baseAsset string, windowDays int, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		store:      st,
		baseAsset:  baseAsset,
		windowDays: windowDays,
		log:        log.With().Str("component", "analyzer").Logger(),
	}
}

// Run analyzes the given assets. It returns the analysis together with
// the cleaned series so chart and export stages reuse the same data.
// Assets with too little stored data are skipped with a warning; at
// least one asset must survive.
func (a *Analyzer) Run(assets []string) (*model.Analysis, []model.QuoteSeries, error) {
	var (
		series []model.QuoteSeries
		stats  []model.AssetStats
	)
	for _, asset := range assets {
		raw, err := a.store.LoadSeries(asset)
		if err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", asset, err)
		}
		cleaned := Clean(raw)
		if dropped := raw.Len() - cleaned.Len(); dropped > 0 {
			a.log.Warn().Str("asset", asset).Int("dropped", dropped).Msg("anomalous rows removed")
		}

		st, err := Stats(cleaned)
		if err != nil {
			a.log.Warn().Err(err).Str("asset", asset).Msg("skipping asset")
			continue
		}
		series = append(series, cleaned)
		stats = append(stats, st)
	}
	if len(stats) == 0 {
		return nil, nil, fmt.Errorf("analyze: no asset has enough data")
	}

	var correlations []model.PairCorrelation
	for i := 0; i < len(series); i++ {
		for j := i + 1; j < len(series); j++ {
			pc, err := Correlate(series[i], series[j])
			if err != nil {
				a.log.Warn().Err(err).Msg("skipping pair")
				continue
			}
			correlations = append(correlations, pc)
		}
	}

	weekday, err := a.store.WeekdayAverages(a.baseAsset)
	if err != nil {
		return nil, nil, fmt.Errorf("weekday averages: %w", err)
	}

	analysis := &model.Analysis{
		GeneratedAt:   time.Now(),
		WindowDays:    a.windowDays,
		BaseAsset:     a.baseAsset,
		Stats:         stats,
		Correlations:  correlations,
		WeekdayTrends: weekday,
	}
	if len(weekday) > 0 {
		analysis.Busiest, analysis.Quietest = volumeExtremes(weekday)
	}

	a.log.Info().Int("assets", len(stats)).Int("pairs", len(correlations)).Msg("analysis complete")
	return analysis, series, nil
}

func volumeExtremes(stats []model.WeekdayStat) (busiest, quietest model.WeekdayStat) {
	busiest, quietest = stats[0], stats[0]
	for _, ws := range stats[1:] {
		if ws.AvgVolume > busiest.AvgVolume {
			busiest = ws
		}
		if ws.AvgVolume < quietest.AvgVolume {
			quietest = ws
		}
	}
	return busiest, quietest
}

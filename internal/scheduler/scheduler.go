package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"CoinScope/internal/analyzer"
	"CoinScope/internal/chart"
	"CoinScope/internal/collector"
	"CoinScope/internal/config"
	"CoinScope/internal/metrics"
	"CoinScope/internal/model"
	"CoinScope/internal/report"
	"CoinScope/internal/store"
)

// ErrBusy is returned when a run is requested while the same stage is
// already in progress.
var ErrBusy = errors.New("pipeline stage already running")

// Scheduler owns the collect and analyze pipelines and their cron jobs.
type Scheduler struct {
	cron      *cron.Cron
	collector *collector.Collector
	analyzer  *analyzer.Analyzer
	charts    *chart.Renderer
	reports   *report.Renderer
	store     store.Store
	cfg       *config.Config
	metrics   *metrics.Recorder
	log       zerolog.Logger
	ctx       context.Context

	collectBusy atomic.Bool
	analyzeBusy atomic.Bool

	mu           sync.RWMutex
	latest       *model.Analysis
	latestReport string
}

// New creates a Scheduler wired to all pipeline stages.
func New(ctx context.Context, cfg *config.Config, col *collector.Collector, ana *analyzer.Analyzer,
	charts *chart.Renderer, reports *report.Renderer, st store.Store,
	rec *metrics.Recorder, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		collector: col,
		analyzer:  ana,
		charts:    charts,
		reports:   reports,
		store:     st,
		cfg:       cfg,
		metrics:   rec,
		log:       log.With().Str("component", "scheduler").Logger(),
		ctx:       ctx,
	}
}

// Register adds the collect and analyze cron jobs.
func (s *Scheduler) Register() error {
	if _, err := s.cron.AddFunc(s.cfg.Schedule.CollectCron, func() {
		if err := s.RunCollectNow(); err != nil {
			s.log.Error().Err(err).Msg("scheduled collect failed")
		}
	}); err != nil {
		return fmt.Errorf("register collect job: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.Schedule.AnalyzeCron, func() {
		if _, err := s.RunAnalyzeNow(); err != nil {
			s.log.Error().Err(err).Msg("scheduled analyze failed")
		}
	}); err != nil {
		return fmt.Errorf("register analyze job: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Str("collect", s.cfg.Schedule.CollectCron).
		Str("analyze", s.cfg.Schedule.AnalyzeCron).Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("scheduler stopped")
}

// RunCollectNow runs the collect stage once. Concurrent calls are rejected
// with ErrBusy so overlapping cron fires cannot stack.
func (s *Scheduler) RunCollectNow() error {
	if !s.collectBusy.CompareAndSwap(false, true) {
		return fmt.Errorf("collect: %w", ErrBusy)
	}
	defer s.collectBusy.Store(false)

	s.log.Info().Msg("running collect")
	return s.collector.Collect(s.ctx)
}

// RunAnalyzeNow runs the analyze stage once: statistics, charts, excel
// export, markdown report, and the audit row. The result is cached for
// the HTTP API.
func (s *Scheduler) RunAnalyzeNow() (*model.Analysis, error) {
	if !s.analyzeBusy.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("analyze: %w", ErrBusy)
	}
	defer s.analyzeBusy.Store(false)

	s.log.Info().Msg("running analyze")
	start := time.Now()

	analysis, series, err := s.analyzer.Run(s.cfg.DataSource.Assets)
	if err != nil {
		s.metrics.RecordError("analyze")
		return nil, err
	}

	if s.cfg.Output.Charts {
		if err := s.renderCharts(analysis, series); err != nil {
			s.metrics.RecordError("chart")
			return nil, err
		}
	}

	excelPath := filepath.Join(s.cfg.Output.Dir, s.cfg.Output.ExcelFile)
	if err := report.ExportExcel(series, excelPath); err != nil {
		s.metrics.RecordError("export")
		return nil, err
	}

	md, err := s.reports.Render(analysis)
	if err != nil {
		s.metrics.RecordError("report")
		return nil, err
	}
	reportPath := filepath.Join(s.cfg.Output.Dir, s.cfg.Output.ReportFile)
	if err := s.reports.WriteFile(analysis, reportPath); err != nil {
		s.metrics.RecordError("report")
		return nil, err
	}

	if err := s.store.RecordRun(analysis.WindowDays, reportPath); err != nil {
		s.log.Error().Err(err).Msg("record run failed")
	}

	s.mu.Lock()
	s.latest = analysis
	s.latestReport = md
	s.mu.Unlock()

	s.metrics.RecordStageDuration("analyze", time.Since(start).Seconds())
	s.log.Info().Str("report", reportPath).Dur("took", time.Since(start)).Msg("analyze complete")
	return analysis, nil
}

// Refresh runs collect then analyze, for the manual trigger paths.
func (s *Scheduler) Refresh() (*model.Analysis, error) {
	if err := s.RunCollectNow(); err != nil {
		return nil, err
	}
	return s.RunAnalyzeNow()
}

// Latest returns the most recent analysis and rendered report, if any.
func (s *Scheduler) Latest() (*model.Analysis, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latestReport, s.latest != nil
}

func (s *Scheduler) renderCharts(analysis *model.Analysis, series []model.QuoteSeries) error {
	if _, err := s.charts.PriceTrend(series, "price_trend.png"); err != nil {
		return err
	}

	assets := make([]string, len(series))
	for i, sr := range series {
		assets[i] = sr.Asset
	}
	if _, err := s.charts.CorrelationHeatmap(assets, correlationMatrix(assets, analysis.Correlations), "correlation_heatmap.png"); err != nil {
		return err
	}

	if len(analysis.WeekdayTrends) > 0 {
		if _, err := s.charts.VolumeBars(analysis.WeekdayTrends, analysis.BaseAsset, "volume_bar.png"); err != nil {
			return err
		}
	}
	return nil
}

// correlationMatrix expands the pair list into a dense symmetric matrix
// with a unit diagonal, in the given asset order.
func correlationMatrix(assets []string, pairs []model.PairCorrelation) [][]float64 {
	idx := make(map[string]int, len(assets))
	for i, a := range assets {
		idx[a] = i
	}
	m := make([][]float64, len(assets))
	for i := range m {
		m[i] = make([]float64, len(assets))
		m[i][i] = 1
	}
	for _, pc := range pairs {
		i, iok := idx[pc.Base]
		j, jok := idx[pc.Quote]
		if !iok || !jok {
			continue
		}
		m[i][j] = pc.Coefficient
		m[j][i] = pc.Coefficient
	}
	return m
}

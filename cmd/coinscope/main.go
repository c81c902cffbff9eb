package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"CoinScope/internal/analyzer"
	"CoinScope/internal/chart"
	"CoinScope/internal/collector"
	"CoinScope/internal/config"
	"CoinScope/internal/logging"
	"CoinScope/internal/metrics"
	"CoinScope/internal/report"
	"CoinScope/internal/scheduler"
	"CoinScope/internal/server"
	"CoinScope/internal/store"
)

const usage = `usage: coinscope [-config path] <command>

commands:
  collect   fetch daily quotes and store them
  analyze   compute statistics, render charts, write the report
  run       collect then analyze, once
  serve     run on a schedule with the HTTP API (default)
`

func main() {
	configPath := flag.String("config", "", "config file path (default configs/config.yaml)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	path := *configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	log.Info().Str("config", path).Msg("coinscope starting")

	st, err := store.NewSQLiteStore(cfg.Database.SQLitePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer st.Close()

	var rec *metrics.Recorder
	if cfg.Metrics.Enabled {
		rec = metrics.New()
	}

	fetcher := collector.NewCoinGeckoFetcher(collector.CoinGeckoConfig{
		BaseURL:    cfg.DataSource.BaseURL,
		APIKey:     cfg.DataSource.APIKey,
		VsCurrency: cfg.DataSource.VsCurrency,
		RetryDelay: cfg.DataSource.RetryDelay,
		Proxy:      cfg.Proxy,
	}, rec, log)
	log.Info().Str("source", fetcher.Name()).Strs("assets", cfg.DataSource.Assets).
		Int("days", cfg.DataSource.Days).Msg("data source ready")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	col := collector.New(fetcher, st, cfg.DataSource.Assets, cfg.DataSource.Days, rec, log)
	ana := analyzer.New(st, cfg.DataSource.BaseAsset, cfg.DataSource.Days, log)
	charts := chart.NewRenderer(cfg.Output.Dir)
	reports := report.NewRenderer()
	sched := scheduler.New(ctx, cfg, col, ana, charts, reports, st, rec, log)

	command := flag.Arg(0)
	if command == "" {
		command = "serve"
	}

	switch command {
	case "collect":
		if err := sched.RunCollectNow(); err != nil {
			log.Fatal().Err(err).Msg("collect failed")
		}
	case "analyze":
		if _, err := sched.RunAnalyzeNow(); err != nil {
			log.Fatal().Err(err).Msg("analyze failed")
		}
	case "run":
		if _, err := sched.Refresh(); err != nil {
			log.Fatal().Err(err).Msg("run failed")
		}
	case "serve":
		serve(cfg, sched, st, log)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func serve(cfg *config.Config, sched *scheduler.Scheduler, st store.Store, log zerolog.Logger) {
	if err := sched.Register(); err != nil {
		log.Fatal().Err(err).Msg("register cron jobs")
	}
	sched.Start()
	defer sched.Stop()

	var srv *server.Server
	if cfg.Server.Enabled {
		srv = server.New(cfg, sched, st, log)
		srv.Start()
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, running pipeline now")
		go func() {
			if _, err := sched.Refresh(); err != nil {
				log.Error().Err(err).Msg("startup run failed")
			}
		}()
	}

	log.Info().Msg("coinscope is running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutdown signal received")

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}
	log.Info().Msg("coinscope stopped")
}

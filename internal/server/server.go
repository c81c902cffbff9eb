package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"CoinScope/internal/config"
	"CoinScope/internal/scheduler"
	"CoinScope/internal/store"
)

// Server exposes the latest analysis, stored quotes, and the markdown
// report over HTTP.
type Server struct {
	echo  *echo.Echo
	cfg   *config.Config
	sched *scheduler.Scheduler
	store store.Store
	log   zerolog.Logger
}

// New builds the echo server with middleware and routes registered.
func New(cfg *config.Config, sched *scheduler.Scheduler, st store.Store, log zerolog.Logger) *Server {
	s := &Server{
		cfg:   cfg,
		sched: sched,
		store: st,
		log:   log.With().Str("component", "server").Logger(),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Use(echomw.Recover())
	e.Use(s.requestLogger())

	api := e.Group("/api/v1")
	api.GET("/analysis", s.getAnalysis)
	api.GET("/assets/:asset/quotes", s.getQuotes)
	api.POST("/refresh", s.postRefresh)

	e.GET("/report", s.getReport)
	e.GET("/healthz", s.getHealth)
	if cfg.Metrics.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	s.echo = e
	return s
}

// Start starts serving in the background.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("http server error")
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.log.Info().Msg("http server stopped")
	return nil
}

func (s *Server) getAnalysis(c echo.Context) error {
	analysis, _, ok := s.sched.Latest()
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no analysis available yet"})
	}
	return c.JSON(http.StatusOK, analysis)
}

func (s *Server) getQuotes(c echo.Context) error {
	asset := c.Param("asset")
	series, err := s.store.LoadSeries(asset)
	if err != nil {
		s.log.Error().Err(err).Str("asset", asset).Msg("load series failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load series"})
	}
	if series.Len() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": fmt.Sprintf("no data for asset %q", asset)})
	}
	return c.JSON(http.StatusOK, series)
}

func (s *Server) postRefresh(c echo.Context) error {
	analysis, err := s.sched.Refresh()
	if err != nil {
		if errors.Is(err, scheduler.ErrBusy) {
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		s.log.Error().Err(err).Msg("refresh failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, analysis)
}

func (s *Server) getReport(c echo.Context) error {
	_, md, ok := s.sched.Latest()
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no report available yet"})
	}
	return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}

func (s *Server) getHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			s.log.Info().
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Msg("request")
			return err
		}
	}
}

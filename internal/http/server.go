// Package http serves the generated report artifact over HTTP and lets
// operators trigger a sync run on demand.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trustlogix-labs/atlan-sync/internal/config"
)

// SyncRunner triggers one sync run. Nil disables the trigger endpoint.
type SyncRunner interface {
	RunSync(ctx context.Context) error
}

// RunnerFunc adapts a function to SyncRunner.
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) RunSync(ctx context.Context) error { return f(ctx) }

type server struct {
	cfg    config.Config
	runner SyncRunner

	mu      sync.Mutex
	running bool
}

// NewEchoServer builds the HTTP surface: the report at /, liveness at
// /healthz, prometheus metrics at /metrics, and POST /sync to trigger a
// run.
func NewEchoServer(cfg config.Config, runner SyncRunner) *echo.Echo {
	s := &server{cfg: cfg, runner: runner}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/", s.report)
	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.POST("/sync", s.triggerSync)
	return e
}

func (s *server) report(c echo.Context) error {
	if _, err := os.Stat(s.cfg.ReportPath); err != nil {
		return c.String(http.StatusNotFound, "no report generated yet; run a sync first\n")
	}
	return c.File(s.cfg.ReportPath)
}

func (s *server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) triggerSync(c echo.Context) error {
	if s.runner == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "sync trigger disabled"})
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return c.JSON(http.StatusConflict, map[string]string{"error": "a sync run is already in progress"})
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()
		// The run outlives the HTTP request on purpose.
		if err := s.runner.RunSync(context.Background()); err != nil {
			slog.Error("triggered sync failed", "error", err)
		}
	}()
	return c.JSON(http.StatusAccepted, map[string]string{"status": "started"})
}

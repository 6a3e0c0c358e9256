// Package metrics exposes Prometheus instrumentation for sync runs.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trustlogix-labs/atlan-sync/internal/restclient"
)

const namespace = "atlansync"

var (
	runDurationBuckets = []float64{1, 2, 5, 10, 30, 60, 120, 300, 600, 1200, 1800, 3600}

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Completed sync runs by outcome.",
	}, []string{"status"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of a full sync run.",
		Buckets:   runDurationBuckets,
	})

	LastSuccessTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful run.",
	})

	AccountsScanned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_scanned_total",
		Help:      "Accounts scanned across all runs.",
	})

	AlertsCollected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_collected_total",
		Help:      "Risk alerts collected across all runs.",
	})

	AssetsMatched = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "assets_matched",
		Help:      "Catalog assets matched to scanned databases in the last run.",
	})

	WritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_writes_total",
		Help:      "Catalog write attempts by kind and outcome.",
	}, []string{"kind", "status"})

	PermissionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_failures_total",
		Help:      "Catalog writes rejected for missing permissions.",
	})
)

// ObserveWrite records one catalog write attempt. Wired into the
// reconciler's OnWrite hook.
func ObserveWrite(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		if restclient.IsPermission(err) {
			PermissionFailures.Inc()
		}
	}
	WritesTotal.WithLabelValues(kind, status).Inc()
}

const metricsReadHeaderTimeout = 5 * time.Second

// StartServer exposes /metrics on addr until ctx is cancelled. An empty
// or disabled addr returns nils and no server.
func StartServer(ctx context.Context, addr string) (*http.Server, <-chan error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, nil
	}
	switch strings.ToLower(addr) {
	case "off", "disabled", "false":
		return nil, nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return srv, errCh
}

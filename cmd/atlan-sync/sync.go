package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trustlogix-labs/atlan-sync/internal/config"
	"github.com/trustlogix-labs/atlan-sync/internal/logging"
	"github.com/trustlogix-labs/atlan-sync/internal/metrics"
	"github.com/trustlogix-labs/atlan-sync/internal/pipeline"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one scan-and-reconcile pass against TrustLogix and Atlan (report-only without Atlan credentials).",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync()
	},
}

func runSync() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.Bootstrap("sync")
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	_, metricsErrCh := metrics.StartServer(ctx, cfg.MetricsAddr)

	result, runErr := pipeline.Run(ctx, cfg)
	if runErr == nil {
		logger.Info("sync complete",
			"run_id", result.RunID,
			"accounts", result.AccountsScanned,
			"assets", result.AssetsMatched,
			"writes", result.Writes,
			"warnings", len(result.Warnings),
			"writes_enabled", result.WritesEnabled,
		)
		select {
		case err := <-metricsErrCh:
			return err
		default:
			return nil
		}
	}
	if errors.Is(runErr, context.Canceled) {
		return &exitError{code: 130, err: runErr, silent: true}
	}
	return &exitError{code: 1, err: runErr, silent: false}
}

// Package pipeline orchestrates one sync run: scan TrustLogix, snapshot
// the Atlan catalog, resolve accounts to assets and domains, derive the
// desired governance state, reconcile it into the catalog, and write the
// HTML report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/trustlogix-labs/atlan-sync/internal/atlan"
	"github.com/trustlogix-labs/atlan-sync/internal/config"
	"github.com/trustlogix-labs/atlan-sync/internal/governance"
	"github.com/trustlogix-labs/atlan-sync/internal/metrics"
	"github.com/trustlogix-labs/atlan-sync/internal/reconcile"
	"github.com/trustlogix-labs/atlan-sync/internal/report"
	"github.com/trustlogix-labs/atlan-sync/internal/resolve"
	"github.com/trustlogix-labs/atlan-sync/internal/risk"
	"github.com/trustlogix-labs/atlan-sync/internal/trustlogix"
)

// Result is what a run leaves behind besides the catalog writes.
type Result struct {
	RunID           string
	StartedAt       time.Time
	Report          *report.Report
	AccountsScanned int
	AssetsMatched   int
	WritesEnabled   bool
	Writes          int
	WriteErrors     int
	Warnings        []string
}

// accountState carries one account through the stages of a run.
type accountState struct {
	Account trustlogix.Account
	Scan    trustlogix.ScanResult
	Alerts  []risk.Alert
	Summary risk.Summary
	Assets  []atlan.Asset
	Domain  string
}

// Run executes one full sync. The report is written even when the write
// phase aborts; the returned error then reflects the aborted writes.
func Run(ctx context.Context, cfg config.Config) (*Result, error) {
	result := &Result{
		RunID:         uuid.NewString(),
		StartedAt:     time.Now().UTC(),
		WritesEnabled: cfg.AtlanEnabled(),
	}
	logger := slog.With("run_id", result.RunID)
	defer func() {
		metrics.RunDuration.Observe(time.Since(result.StartedAt).Seconds())
	}()

	tlx, err := trustlogix.New(cfg.TrustLogixBaseURL, cfg.TenantID, trustlogix.Credentials{
		Method:       cfg.AuthMethod,
		APIKey:       cfg.APIKey,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	})
	if err != nil {
		return result, err
	}
	if err := tlx.Authenticate(ctx); err != nil {
		return result, fmt.Errorf("trustlogix authentication: %w", err)
	}

	var catalog *atlan.Client
	if result.WritesEnabled {
		catalog, err = atlan.New(cfg.AtlanBaseURL, cfg.AtlanAPIKey)
		if err != nil {
			return result, err
		}
	} else {
		logger.Info("no catalog credentials configured, running report-only")
	}

	// Scanning and the catalog snapshot are independent; run them side by
	// side.
	var scans []outcome[trustlogix.Account, trustlogix.ScanResult]
	var index *atlan.Index
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		accounts, err := tlx.ListAccounts(groupCtx)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		logger.Info("scanning accounts", "count", len(accounts), "workers", cfg.SyncWorkers)
		collector := &trustlogix.Collector{Client: tlx, DatabaseFilter: cfg.DatabaseFilter}
		scans = forEach(groupCtx, accounts, cfg.SyncWorkers, collector.Scan)
		return nil
	})
	group.Go(func() error {
		if catalog == nil {
			return nil
		}
		var err error
		index, err = atlan.BuildIndex(groupCtx, catalog)
		if err != nil {
			return fmt.Errorf("catalog snapshot: %w", err)
		}
		logger.Info("catalog snapshot complete", "assets", index.AssetCount, "domains", len(index.Domains))
		return nil
	})
	if err := group.Wait(); err != nil {
		return result, err
	}
	if index == nil {
		index = &atlan.Index{ByDatabase: map[string][]atlan.Asset{}, Domains: map[string]atlan.Domain{}}
	}

	states := resolveAccounts(index, scans, result)
	for _, state := range states {
		metrics.AlertsCollected.Add(float64(state.Summary.Total))
	}
	metrics.AccountsScanned.Add(float64(result.AccountsScanned))
	metrics.AssetsMatched.Set(float64(result.AssetsMatched))

	var writeErr error
	if result.WritesEnabled && len(states) > 0 {
		writeErr = applyStates(ctx, catalog, index, states, cfg, result, logger)
	}

	result.Report = buildReport(result, states)
	if err := report.WriteHTML(cfg.ReportPath, result.Report); err != nil {
		if writeErr == nil {
			writeErr = err
		} else {
			result.Warnings = append(result.Warnings, fmt.Sprintf("report: %v", err))
		}
	} else {
		logger.Info("report written", "path", cfg.ReportPath)
	}

	if writeErr != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		return result, writeErr
	}
	metrics.RunsTotal.WithLabelValues("ok").Inc()
	metrics.LastSuccessTimestamp.SetToCurrentTime()
	return result, nil
}

// resolveAccounts turns raw scans into per-account state: normalized
// alerts, a merged summary, matched assets, and the resolved domain. Scan
// failures become warnings, not run failures.
func resolveAccounts(index *atlan.Index, scans []outcome[trustlogix.Account, trustlogix.ScanResult], result *Result) []*accountState {
	var states []*accountState
	for _, scan := range scans {
		if scan.Err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("account %s: %v", scan.Item.Name, scan.Err))
			continue
		}
		result.AccountsScanned++
		result.Warnings = append(result.Warnings, scan.Value.Warnings...)

		state := &accountState{Account: scan.Item, Scan: scan.Value}
		for _, payload := range scan.Value.Alerts {
			state.Alerts = append(state.Alerts, risk.FromPayload(payload))
		}
		state.Summary = risk.Summarize(state.Alerts)

		var databases []string
		for _, db := range scan.Value.Tree.Children {
			databases = append(databases, db.Name)
		}
		state.Assets = resolve.MatchAssets(index, databases)
		state.Domain = resolve.ResolveDomain(index, state.Assets)
		result.AssetsMatched += len(state.Assets)

		states = append(states, state)
	}
	return states
}

func applyStates(ctx context.Context, catalog *atlan.Client, index *atlan.Index, states []*accountState, cfg config.Config, result *Result, logger *slog.Logger) error {
	def, err := reconcile.EnsureDefinition(ctx, catalog)
	if err != nil {
		return err
	}

	var allTags []governance.Tag
	for _, state := range states {
		allTags = append(allTags, governance.DesiredTags(state.Summary)...)
	}
	if err := reconcile.EnsureTags(ctx, catalog, allTags); err != nil {
		return err
	}
	if err := reconcile.EnsureBadges(ctx, catalog, def); err != nil {
		return err
	}

	var writeOK, writeFailed atomic.Int64
	writer := &reconcile.Writer{
		Client:  catalog,
		Def:     def,
		Breaker: reconcile.NewBreaker(),
		OnWrite: func(kind string, err error) {
			metrics.ObserveWrite(kind, err)
			if err != nil {
				writeFailed.Add(1)
			} else {
				writeOK.Add(1)
			}
		},
	}
	defer func() {
		result.Writes = int(writeOK.Load())
		result.WriteErrors = int(writeFailed.Load())
	}()

	for _, state := range states {
		desired := governance.Desired(state.Summary, state.Alerts, result.StartedAt)
		logger.Info("reconciling account", "account", state.Account.Name, "assets", len(state.Assets), "domain", state.Domain)

		outcomes := forEach(ctx, state.Assets, cfg.WriteWorkers, func(ctx context.Context, asset atlan.Asset) (struct{}, error) {
			return struct{}{}, writer.ApplyAsset(ctx, asset, desired)
		})
		for _, o := range outcomes {
			if o.Err == nil {
				continue
			}
			if errors.Is(o.Err, reconcile.ErrBreakerTripped) {
				return fmt.Errorf("account %s: %w", state.Account.Name, reconcile.ErrBreakerTripped)
			}
			result.Warnings = append(result.Warnings, fmt.Sprintf("write %s: %v", o.Item.QualifiedName, o.Err))
		}
	}

	if err := applyDomains(ctx, writer, index, states, result); err != nil {
		return err
	}

	result.Warnings = append(result.Warnings, reconcile.EnsureMetadataPolicy(ctx, catalog, cfg.PersonaName)...)
	return nil
}

// applyDomains aggregates account postures per resolved domain and writes
// them onto the domain entities. Unassigned has no entity to write to.
func applyDomains(ctx context.Context, writer *reconcile.Writer, index *atlan.Index, states []*accountState, result *Result) error {
	type rollup struct {
		summary risk.Summary
		alerts  []risk.Alert
	}
	rollups := make(map[string]*rollup)
	for _, state := range states {
		if state.Domain == resolve.UnassignedDomain {
			continue
		}
		r, ok := rollups[state.Domain]
		if !ok {
			r = &rollup{}
			rollups[state.Domain] = r
		}
		r.summary.Merge(state.Summary)
		r.alerts = append(r.alerts, state.Alerts...)
	}

	for _, domain := range index.Domains {
		r, ok := rollups[domain.Name]
		if !ok {
			continue
		}
		desired := governance.Desired(r.summary, r.alerts, result.StartedAt)
		if err := writer.ApplyDomain(ctx, domain, desired); err != nil {
			if errors.Is(err, reconcile.ErrBreakerTripped) {
				return err
			}
			result.Warnings = append(result.Warnings, fmt.Sprintf("domain %s: %v", domain.Name, err))
		}
	}
	return nil
}

func buildReport(result *Result, states []*accountState) *report.Report {
	r := &report.Report{
		RunID:       result.RunID,
		GeneratedAt: time.Now().UTC(),
		ReportOnly:  !result.WritesEnabled,
		Warnings:    result.Warnings,
	}
	for _, state := range states {
		r.Add(report.Account{
			Name:          state.Account.Name,
			Platform:      state.Account.Platform,
			Domain:        state.Domain,
			Summary:       state.Summary,
			MatchedAssets: len(state.Assets),
			Tree:          state.Scan.Tree,
		})
	}
	r.Sort()
	return r
}

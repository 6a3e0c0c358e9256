// Package report renders the run summary as a self-contained HTML file.
// The report is the only output that survives a report-only run, so it
// carries everything: per-domain rollups, per-account hierarchies with
// entitlements, and the warnings collected along the way.
package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/trustlogix-labs/atlan-sync/internal/governance"
	"github.com/trustlogix-labs/atlan-sync/internal/resolve"
	"github.com/trustlogix-labs/atlan-sync/internal/risk"
	"github.com/trustlogix-labs/atlan-sync/internal/trustlogix"
)

// Account is one scanned account's section of the report.
type Account struct {
	Name          string
	Platform      string
	Domain        string
	Summary       risk.Summary
	MatchedAssets int
	Tree          *trustlogix.Node
}

// Domain groups accounts under their resolved data domain.
type Domain struct {
	Name     string
	Summary  risk.Summary
	Accounts []Account
}

// Report is the full run artifact.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	ReportOnly  bool
	Domains     []Domain
	Warnings    []string
}

// Add files an account under its domain, creating the section on first
// use.
func (r *Report) Add(account Account) {
	for i := range r.Domains {
		if r.Domains[i].Name == account.Domain {
			r.Domains[i].Accounts = append(r.Domains[i].Accounts, account)
			r.Domains[i].Summary.Merge(account.Summary)
			return
		}
	}
	domain := Domain{Name: account.Domain, Accounts: []Account{account}}
	domain.Summary.Merge(account.Summary)
	r.Domains = append(r.Domains, domain)
}

// Sort orders domains alphabetically with Unassigned last, and accounts
// by name within each domain.
func (r *Report) Sort() {
	sort.SliceStable(r.Domains, func(i, j int) bool {
		a, b := r.Domains[i].Name, r.Domains[j].Name
		if a == resolve.UnassignedDomain {
			return false
		}
		if b == resolve.UnassignedDomain {
			return true
		}
		return a < b
	})
	for i := range r.Domains {
		accounts := r.Domains[i].Accounts
		sort.SliceStable(accounts, func(a, b int) bool {
			return accounts[a].Name < accounts[b].Name
		})
	}
}

// Totals is the overall summary across every domain.
func (r *Report) Totals() risk.Summary {
	var total risk.Summary
	for _, domain := range r.Domains {
		total.Merge(domain.Summary)
	}
	return total
}

// WriteHTML renders the report to path, creating parent directories as
// needed. The write goes through a temp file and rename so a reader
// never sees a half-written report.
func WriteHTML(path string, r *Report) error {
	r.Sort()
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".report-*.html")
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := reportTemplate.Execute(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("render report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	return nil
}

var templateFuncs = template.FuncMap{
	"status":   governance.ScanStatus,
	"category": risk.DisplayCategory,
	"statusClass": func(s risk.Summary) string {
		switch {
		case s.Total == 0:
			return "ok"
		case s.High == 0:
			return "warn"
		default:
			return "bad"
		}
	},
}

var reportTemplate = template.Must(template.New("report").Funcs(templateFuncs).Parse(reportHTML))

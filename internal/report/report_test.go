package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/trustlogix-labs/atlan-sync/internal/risk"
	"github.com/trustlogix-labs/atlan-sync/internal/trustlogix"
)

func sampleReport() *Report {
	r := &Report{
		RunID:       "run-1",
		GeneratedAt: time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC),
	}
	r.Add(Account{
		Name:    "prod-snowflake",
		Domain:  "Unassigned",
		Summary: risk.Summary{Total: 1, Low: 1, Categories: []string{"stale_access"}},
	})
	r.Add(Account{
		Name:          "prod-databricks",
		Platform:      "databricks",
		Domain:        "Healthcare",
		MatchedAssets: 12,
		Summary:       risk.Summary{Total: 3, High: 2, Medium: 1, Categories: []string{"shadow_it"}},
		Tree: &trustlogix.Node{
			Level: trustlogix.LevelAccount,
			Name:  "prod-databricks",
			Children: []*trustlogix.Node{
				{
					Level: trustlogix.LevelDatabase,
					Name:  "HEALTH_CARE",
					Entitlements: []trustlogix.Entitlement{
						{PrincipalName: "bob<script>", PrincipalKind: trustlogix.KindUser, Privileges: []string{"SELECT"}},
					},
				},
			},
		},
	})
	r.Add(Account{
		Name:    "dev-snowflake",
		Domain:  "Healthcare",
		Summary: risk.Summary{},
	})
	return r
}

func TestReport_SortPutsUnassignedLast(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.Sort()

	if len(r.Domains) != 2 {
		t.Fatalf("domains = %d, want 2", len(r.Domains))
	}
	if r.Domains[0].Name != "Healthcare" || r.Domains[1].Name != "Unassigned" {
		t.Fatalf("domain order = %s, %s", r.Domains[0].Name, r.Domains[1].Name)
	}
	accounts := r.Domains[0].Accounts
	if accounts[0].Name != "dev-snowflake" || accounts[1].Name != "prod-databricks" {
		t.Fatalf("account order = %s, %s", accounts[0].Name, accounts[1].Name)
	}
}

func TestReport_Totals(t *testing.T) {
	t.Parallel()

	total := sampleReport().Totals()
	if total.Total != 4 || total.High != 2 || total.Medium != 1 || total.Low != 1 {
		t.Fatalf("Totals() = %+v", total)
	}
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reports", "out.html")
	if err := WriteHTML(path, sampleReport()); err != nil {
		t.Fatalf("WriteHTML() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	html := string(raw)

	for _, want := range []string{
		"TrustLogix Access Governance Report",
		"Healthcare",
		"prod-databricks",
		"12 catalog asset(s) matched",
		"HEALTH_CARE",
		"Shadow IT",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Error("principal name not HTML-escaped")
	}
	if strings.Index(html, "Healthcare") > strings.Index(html, "Unassigned") {
		t.Error("Unassigned domain rendered before named domains")
	}
}

package config

import (
	"strings"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TRUSTLOGIX_BASE_URL", "https://scanner.example.com/")
	t.Setenv("TRUSTLOGIX_TENANT_ID", "tenant-1")
	t.Setenv("AUTH_METHOD", "bearer")
	t.Setenv("TRUSTLOGIX_API_KEY", "token")
	t.Setenv("ATLAN_BASE_URL", "")
	t.Setenv("ATLAN_API_KEY", "")
	t.Setenv("DATABASE_FILTER", "")
	t.Setenv("SYNC_WORKERS", "")
	t.Setenv("WRITE_WORKERS", "")
}

func TestLoad_RequiredSettings(t *testing.T) {
	setRequired(t)
	t.Setenv("TRUSTLOGIX_BASE_URL", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "TRUSTLOGIX_BASE_URL") {
		t.Fatalf("Load() error = %v, want missing base URL", err)
	}
}

func TestLoad_BearerRequiresAPIKey(t *testing.T) {
	setRequired(t)
	t.Setenv("TRUSTLOGIX_API_KEY", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "TRUSTLOGIX_API_KEY") {
		t.Fatalf("Load() error = %v, want missing api key", err)
	}
}

func TestLoad_CredentialsRequirePair(t *testing.T) {
	setRequired(t)
	t.Setenv("AUTH_METHOD", "credentials")
	t.Setenv("CLIENT_ID", "svc")
	t.Setenv("CLIENT_SECRET", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "CLIENT_ID or CLIENT_SECRET") {
		t.Fatalf("Load() error = %v, want missing credentials", err)
	}
}

func TestLoad_HalfConfiguredAtlanRejected(t *testing.T) {
	setRequired(t)
	t.Setenv("ATLAN_BASE_URL", "https://tenant.atlan.com")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "ATLAN_BASE_URL and ATLAN_API_KEY") {
		t.Fatalf("Load() error = %v, want paired atlan settings", err)
	}
}

func TestLoad_ReportOnlyWhenAtlanAbsent(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AtlanEnabled() {
		t.Fatal("AtlanEnabled() = true, want report-only mode")
	}
	if cfg.TrustLogixBaseURL != "https://scanner.example.com" {
		t.Fatalf("TrustLogixBaseURL = %q, want trailing slash trimmed", cfg.TrustLogixBaseURL)
	}
	if cfg.SyncWorkers != defaultSyncWorkers || cfg.WriteWorkers != defaultWriteWorkers {
		t.Fatalf("workers = %d/%d, want defaults", cfg.SyncWorkers, cfg.WriteWorkers)
	}
}

func TestLoad_DatabaseFilterCSV(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_FILTER", "HEALTH_CARE, CRM,,HEALTH_CARE_PAYMENT ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"HEALTH_CARE", "CRM", "HEALTH_CARE_PAYMENT"}
	if len(cfg.DatabaseFilter) != len(want) {
		t.Fatalf("DatabaseFilter = %v, want %v", cfg.DatabaseFilter, want)
	}
	for i := range want {
		if cfg.DatabaseFilter[i] != want[i] {
			t.Fatalf("DatabaseFilter[%d] = %q, want %q", i, cfg.DatabaseFilter[i], want[i])
		}
	}
}

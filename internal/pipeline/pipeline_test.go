package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/trustlogix-labs/atlan-sync/internal/config"
)

func TestForEach_PreservesOrderAndIsolatesErrors(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5}
	out := forEach(context.Background(), items, 3, func(ctx context.Context, n int) (int, error) {
		if n == 3 {
			return 0, context.DeadlineExceeded
		}
		return n * 10, nil
	})

	if len(out) != len(items) {
		t.Fatalf("outcomes = %d, want %d", len(out), len(items))
	}
	for i, o := range out {
		if o.Item != items[i] {
			t.Fatalf("outcome %d item = %d, want input order preserved", i, o.Item)
		}
	}
	if out[2].Err == nil {
		t.Fatal("failing item reported no error")
	}
	if out[1].Value != 20 || out[4].Value != 50 {
		t.Fatalf("sibling values = %d, %d", out[1].Value, out[4].Value)
	}
}

// trustlogixDouble serves one snowflake account with one database tree
// and two alerts, one of them critical.
func trustlogixDouble(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"token": "tok"}})
	})
	mux.HandleFunc("GET /api/account", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"items": []map[string]string{
			{"id": "a1", "name": "prod-snowflake", "type": "Snowflake"},
		}})
	})
	mux.HandleFunc("GET /api/metadata/a1/databases", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]string{{"name": "HEALTH_CARE"}})
	})
	mux.HandleFunc("GET /api/metadata/a1/schemas", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]string{{"name": "PUBLIC", "fullyQualifiedName": "HEALTH_CARE.PUBLIC"}})
	})
	mux.HandleFunc("GET /api/metadata/a1/tables", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]string{{"name": "PATIENTS", "fullyQualifiedName": "HEALTH_CARE.PUBLIC.PATIENTS"}})
	})
	mux.HandleFunc("GET /api/account/a1/entitlements", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"users":      []map[string]any{{"principalName": "bob@corp.com", "privileges": []string{"SELECT"}}},
			"totalPages": 1,
		})
	})
	mux.HandleFunc("GET /api/account/a1/risks", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"severity": "1", "category": "shadow_it", "details": "unmanaged share"},
				{"severity": "4", "category": "stale_access"},
			},
			"total": 2,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// atlanDouble is a stateful catalog: empty typedefs until created, two
// assets in HEALTH_CARE assigned to one domain, no personas.
type atlanDouble struct {
	srv *httptest.Server

	mu         sync.Mutex
	defCreated bool
	tagsMade   []string
	bmWrites   []string
	banners    []string
	bulkSaves  int
}

func newAtlanDouble(t *testing.T) *atlanDouble {
	t.Helper()
	d := &atlanDouble{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/meta/search/indexsearch", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			DSL struct {
				Query struct {
					Bool struct {
						Filter []struct {
							Terms map[string][]string `json:"terms"`
						} `json:"filter"`
					} `json:"bool"`
				} `json:"query"`
			} `json:"dsl"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		typeNames := req.DSL.Query.Bool.Filter[0].Terms["__typeName.keyword"]

		switch typeNames[0] {
		case "DataDomain":
			json.NewEncoder(w).Encode(map[string]any{
				"approximateCount": 1,
				"entities": []map[string]any{
					{"guid": "dom-1", "typeName": "DataDomain", "attributes": map[string]any{"name": "Finance", "qualifiedName": "default/domain/finance"}},
				},
			})
		case "Persona", "Connection":
			json.NewEncoder(w).Encode(map[string]any{"approximateCount": 0, "entities": []map[string]any{}})
		default:
			json.NewEncoder(w).Encode(map[string]any{
				"approximateCount": 2,
				"entities": []map[string]any{
					{"guid": "g1", "typeName": "Database", "attributes": map[string]any{
						"name": "HEALTH_CARE", "qualifiedName": "default/snowflake/1/HEALTH_CARE", "domainGUIDs": []any{"dom-1"},
					}},
					{"guid": "g2", "typeName": "Table", "attributes": map[string]any{
						"name": "PATIENTS", "qualifiedName": "default/snowflake/1/HEALTH_CARE/PUBLIC/PATIENTS",
						"databaseName": "HEALTH_CARE", "connectionName": "snowflake-prod", "domainGUIDs": []any{"dom-1"},
					}},
				},
			})
		}
	})

	mux.HandleFunc("GET /api/meta/types/typedefs", func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()
		defer d.mu.Unlock()
		if r.URL.Query().Get("type") == "classification" {
			json.NewEncoder(w).Encode(map[string]any{"classificationDefs": []map[string]any{}})
			return
		}
		if !d.defCreated {
			json.NewEncoder(w).Encode(map[string]any{"businessMetadataDefs": []map[string]any{}})
			return
		}
		attrs := []map[string]any{}
		for _, name := range []string{
			"Total Risks", "High Severity", "Medium Severity", "Low Severity",
			"Risk Categories", "Last Scanned", "Scan Status", "Risk Details",
		} {
			attrs = append(attrs, map[string]any{"name": "h_" + name, "displayName": name, "typeName": "string"})
		}
		json.NewEncoder(w).Encode(map[string]any{"businessMetadataDefs": []map[string]any{
			{"category": "BUSINESS_METADATA", "guid": "bm-1", "name": "bmHash", "displayName": "TrustLogix Governance", "attributeDefs": attrs},
		}})
	})
	mux.HandleFunc("POST /api/meta/types/typedefs", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			BM  []map[string]any `json:"businessMetadataDefs"`
			Cls []map[string]any `json:"classificationDefs"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		d.mu.Lock()
		defer d.mu.Unlock()
		if len(body.BM) > 0 {
			d.defCreated = true
		}
		for _, cls := range body.Cls {
			d.tagsMade = append(d.tagsMade, cls["name"].(string))
		}
		json.NewEncoder(w).Encode(map[string]any{"classificationDefs": body.Cls})
	})

	mux.HandleFunc("POST /api/meta/entity/guid/{guid}/businessmetadata", func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.bmWrites = append(d.bmWrites, r.PathValue("guid"))
	})
	mux.HandleFunc("GET /api/meta/entity/guid/{guid}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"entity": map[string]any{"classifications": []map[string]any{}}})
	})
	mux.HandleFunc("POST /api/meta/entity/guid/{guid}/classifications", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("DELETE /api/meta/entity/guid/{guid}/classification/{name}", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("POST /api/meta/entity", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Entity struct {
				GUID string `json:"guid"`
			} `json:"entity"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		d.mu.Lock()
		defer d.mu.Unlock()
		d.banners = append(d.banners, body.Entity.GUID)
	})
	mux.HandleFunc("POST /api/meta/entity/bulk", func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.bulkSaves++
	})

	d.srv = httptest.NewServer(mux)
	t.Cleanup(d.srv.Close)
	return d
}

func baseConfig(t *testing.T, tlxURL string) config.Config {
	t.Helper()
	return config.Config{
		TrustLogixBaseURL: tlxURL,
		TenantID:          "tenant-1",
		AuthMethod:        config.AuthMethodCredentials,
		ClientID:          "svc",
		ClientSecret:      "secret",
		SyncWorkers:       2,
		WriteWorkers:      2,
		ReportPath:        filepath.Join(t.TempDir(), "report.html"),
	}
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	tlx := trustlogixDouble(t)
	catalog := newAtlanDouble(t)

	cfg := baseConfig(t, tlx.URL)
	cfg.AtlanBaseURL = catalog.srv.URL
	cfg.AtlanAPIKey = "key-1"
	cfg.PersonaName = "TrustLogix Reviewers"

	result, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run() error = %v (warnings: %v)", err, result.Warnings)
	}

	if result.AccountsScanned != 1 {
		t.Fatalf("AccountsScanned = %d", result.AccountsScanned)
	}
	if result.AssetsMatched != 2 {
		t.Fatalf("AssetsMatched = %d", result.AssetsMatched)
	}
	if result.Writes == 0 || result.WriteErrors != 0 {
		t.Fatalf("writes = %d ok / %d failed", result.Writes, result.WriteErrors)
	}

	catalog.mu.Lock()
	defer catalog.mu.Unlock()
	if !catalog.defCreated {
		t.Fatal("governance definition was not created")
	}
	// shadow_it, stale_access, and the high-risk rollup.
	if len(catalog.tagsMade) != 3 {
		t.Fatalf("classification defs created = %v", catalog.tagsMade)
	}
	// Two matched assets plus the Finance domain entity.
	if len(catalog.bmWrites) != 3 {
		t.Fatalf("businessmetadata writes = %v", catalog.bmWrites)
	}
	if len(catalog.banners) != 3 {
		t.Fatalf("banner writes = %v", catalog.banners)
	}
	if catalog.bulkSaves == 0 {
		t.Fatal("badges were never saved")
	}

	domainWritten := false
	for _, guid := range catalog.bmWrites {
		if guid == "dom-1" {
			domainWritten = true
		}
	}
	if !domainWritten {
		t.Fatalf("domain entity missing from writes: %v", catalog.bmWrites)
	}

	personaWarned := false
	for _, warning := range result.Warnings {
		if strings.Contains(warning, "TrustLogix Reviewers") {
			personaWarned = true
		}
	}
	if !personaWarned {
		t.Fatalf("Warnings = %v, want missing-persona warning", result.Warnings)
	}

	raw, err := os.ReadFile(cfg.ReportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	html := string(raw)
	if !strings.Contains(html, "prod-snowflake") || !strings.Contains(html, "Finance") {
		t.Fatal("report missing account or domain section")
	}
	if strings.Contains(html, "Report-only run") {
		t.Fatal("write-enabled run rendered the report-only notice")
	}
}

func TestRun_ReportOnlyWithoutCatalogCredentials(t *testing.T) {
	t.Parallel()

	tlx := trustlogixDouble(t)
	cfg := baseConfig(t, tlx.URL)

	result, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.WritesEnabled {
		t.Fatal("WritesEnabled without catalog credentials")
	}
	if result.AccountsScanned != 1 {
		t.Fatalf("AccountsScanned = %d", result.AccountsScanned)
	}
	// No catalog means no index: everything lands in Unassigned.
	if result.AssetsMatched != 0 {
		t.Fatalf("AssetsMatched = %d", result.AssetsMatched)
	}

	raw, err := os.ReadFile(cfg.ReportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	html := string(raw)
	if !strings.Contains(html, "Report-only run") {
		t.Fatal("report-only notice missing")
	}
	if !strings.Contains(html, "Unassigned") {
		t.Fatal("account not grouped under Unassigned")
	}
}

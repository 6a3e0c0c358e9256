package http

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
	"time"

	"github.com/trustlogix-labs/atlan-sync/internal/config"
)

func TestReportRoute(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.html")
	e := NewEchoServer(config.Config{ReportPath: path}, nil)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET / before any run = %d, want 404", rec.Code)
	}

	if err := os.WriteFile(path, []byte("<html>report body</html>"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "report body") {
		t.Fatalf("GET / = %d %q", rec.Code, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	e := NewEchoServer(config.Config{ReportPath: "/nonexistent"}, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["status"] != "ok" {
		t.Fatalf("healthz body = %q", rec.Body.String())
	}
}

func TestTriggerSync(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var runs int
	var mu sync.Mutex

	runner := RunnerFunc(func(ctx context.Context) error {
		mu.Lock()
		runs++
		mu.Unlock()
		close(started)
		<-release
		return nil
	})
	e := NewEchoServer(config.Config{ReportPath: "/nonexistent"}, runner)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST /sync = %d, want 202", rec.Code)
	}

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("sync run never started")
	}

	// Second trigger while the first is still running.
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("concurrent POST /sync = %d, want 409", rec.Code)
	}
	close(release)

	mu.Lock()
	defer mu.Unlock()
	if runs != 1 {
		t.Fatalf("runs = %d, want 1", runs)
	}
}

func TestTriggerSync_DisabledWithoutRunner(t *testing.T) {
	t.Parallel()

	e := NewEchoServer(config.Config{ReportPath: "/nonexistent"}, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("POST /sync without runner = %d, want 404", rec.Code)
	}
}

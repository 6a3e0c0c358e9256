package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	AuthMethodBearer      = "bearer"
	AuthMethodCredentials = "credentials"

	defaultHTTPAddr     = ":8080"
	defaultReportPath   = "/tmp/trustlogix_report.html"
	defaultSyncWorkers  = 3
	defaultWriteWorkers = 4
)

// Config is the full configuration surface. Missing required settings are
// rejected here, before any network call is made.
type Config struct {
	TrustLogixBaseURL string
	TenantID          string
	AuthMethod        string
	APIKey            string
	ClientID          string
	ClientSecret      string

	AtlanBaseURL string
	AtlanAPIKey  string

	PersonaName    string
	DatabaseFilter []string

	SyncWorkers  int
	WriteWorkers int
	ReportPath   string
	HTTPAddr     string
	MetricsAddr  string
}

// AtlanEnabled reports whether catalog credentials are present. When false
// the run is report-only: no write call is ever issued.
func (c Config) AtlanEnabled() bool {
	return c.AtlanBaseURL != "" && c.AtlanAPIKey != ""
}

func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		TrustLogixBaseURL: strings.TrimRight(strings.TrimSpace(os.Getenv("TRUSTLOGIX_BASE_URL")), "/"),
		TenantID:          strings.TrimSpace(os.Getenv("TRUSTLOGIX_TENANT_ID")),
		AuthMethod:        strings.ToLower(strings.TrimSpace(getenvDefault("AUTH_METHOD", AuthMethodCredentials))),
		APIKey:            strings.TrimSpace(os.Getenv("TRUSTLOGIX_API_KEY")),
		ClientID:          strings.TrimSpace(os.Getenv("CLIENT_ID")),
		ClientSecret:      os.Getenv("CLIENT_SECRET"),
		AtlanBaseURL:      strings.TrimRight(strings.TrimSpace(os.Getenv("ATLAN_BASE_URL")), "/"),
		AtlanAPIKey:       strings.TrimSpace(os.Getenv("ATLAN_API_KEY")),
		PersonaName:       strings.TrimSpace(os.Getenv("PERSONA_NAME")),
		DatabaseFilter:    splitCSV(os.Getenv("DATABASE_FILTER")),
		SyncWorkers:       getenvIntDefault("SYNC_WORKERS", defaultSyncWorkers),
		WriteWorkers:      getenvIntDefault("WRITE_WORKERS", defaultWriteWorkers),
		ReportPath:        getenvDefault("REPORT_PATH", defaultReportPath),
		HTTPAddr:          getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr:       strings.TrimSpace(os.Getenv("METRICS_ADDR")),
	}

	if cfg.TrustLogixBaseURL == "" {
		return cfg, errors.New("TRUSTLOGIX_BASE_URL is required")
	}
	if cfg.TenantID == "" {
		return cfg, errors.New("TRUSTLOGIX_TENANT_ID is required")
	}

	switch cfg.AuthMethod {
	case AuthMethodBearer:
		if cfg.APIKey == "" {
			return cfg, errors.New("AUTH_METHOD is 'bearer' but TRUSTLOGIX_API_KEY is missing")
		}
	case AuthMethodCredentials:
		if cfg.ClientID == "" || cfg.ClientSecret == "" {
			return cfg, errors.New("AUTH_METHOD is 'credentials' but CLIENT_ID or CLIENT_SECRET is missing")
		}
	default:
		return cfg, fmt.Errorf("AUTH_METHOD must be one of: %s, %s", AuthMethodBearer, AuthMethodCredentials)
	}

	// Half-configured catalog credentials are a config error, not a silent
	// fallback into report-only mode.
	if (cfg.AtlanBaseURL == "") != (cfg.AtlanAPIKey == "") {
		return cfg, errors.New("ATLAN_BASE_URL and ATLAN_API_KEY must be set together")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

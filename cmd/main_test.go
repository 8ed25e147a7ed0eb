package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// setupCLI points the configuration at a temp database and a provider stub
func setupCLI(t *testing.T) *atomic.Int32 {
	t.Helper()

	calls := &atomic.Int32{}
	mux := http.NewServeMux()
	mux.HandleFunc("/site", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, `{"rating":"A","cleanerThan":0.9,"statistics":{"adjustedBytes":1024,"energy":0.0001,"co2":0.05}}`)
	})
	mux.HandleFunc("/greencheck/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, `{"green":false}`)
	})
	stub := httptest.NewServer(mux)
	t.Cleanup(stub.Close)

	t.Setenv("CO2_DB_PATH", filepath.Join(t.TempDir(), "co2bunny.db"))
	t.Setenv("CO2_WEBSITE_CARBON_URL", stub.URL)
	t.Setenv("CO2_GREEN_WEB_URL", stub.URL)
	t.Setenv("CO2_CONFIG_FILE", "")
	t.Setenv("CO2_LOG_LEVEL", "error")

	return calls
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCalculateCommand(t *testing.T) {
	calls := setupCLI(t)

	stdout, _, err := run(t, "calculate", "--url", "example.com", "--views", "100000")
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}

	var analysis map[string]any
	if err := json.Unmarshal([]byte(stdout), &analysis); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if analysis["totalAnnualEmissionsKg"] != 30.0 || analysis["greenHosting"] != false || analysis["provider"] != "Unknown" {
		t.Errorf("unexpected analysis: %v", analysis)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 provider calls, got %d", calls.Load())
	}

	stdout, stderr, err := run(t, "calculate", "--url", "example.com", "--views", "100000")
	if err != nil {
		t.Fatalf("second calculate failed: %v", err)
	}
	if !strings.Contains(stderr, "Using cached analysis from the last 24 hours") {
		t.Errorf("stderr = %q, want the cache message", stderr)
	}
	if calls.Load() != 2 {
		t.Errorf("cache hit must not call providers, got %d calls", calls.Load())
	}

	stdout, _, err = run(t, "history", "--url", "example.com")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	var analyses []map[string]any
	if err := json.Unmarshal([]byte(stdout), &analyses); err != nil {
		t.Fatalf("history output is not JSON: %v\n%s", err, stdout)
	}
	if len(analyses) != 1 {
		t.Errorf("expected one stored analysis, got %d", len(analyses))
	}
}

func TestCalculateCommandRejectsInput(t *testing.T) {
	calls := setupCLI(t)

	for _, views := range []string{"-5", "abc"} {
		if _, _, err := run(t, "calculate", "--url", "example.com", "--views", views); err == nil {
			t.Errorf("calculate --views %s succeeded, want an error", views)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("invalid input must not call providers, got %d calls", calls.Load())
	}

	if _, _, err := run(t, "calculate", "--url", "example.com"); err == nil {
		t.Error("calculate without --views succeeded")
	}
}

func TestHistoryCommandLimit(t *testing.T) {
	setupCLI(t)

	stdout, _, err := run(t, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if strings.TrimSpace(stdout) != "[]" {
		t.Errorf("empty history output = %q, want []", stdout)
	}

	for _, limit := range []string{"0", "101", "abc"} {
		if _, _, err := run(t, "history", "--limit", limit); err == nil {
			t.Errorf("history --limit %s succeeded, want an error", limit)
		}
	}

	if _, _, err := run(t, "history", "--url", "a.com", "--limit", "5"); err == nil {
		t.Error("--url and --limit together should be rejected")
	}
}

func TestMigrateCommands(t *testing.T) {
	setupCLI(t)

	stdout, _, err := run(t, "migrate")
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if !strings.Contains(stdout, "Migrations up to date") {
		t.Errorf("migrate output = %q", stdout)
	}

	stdout, _, err = run(t, "migrate", "status")
	if err != nil {
		t.Fatalf("migrate status failed: %v", err)
	}
	if !strings.Contains(stdout, "applied: 1") || !strings.Contains(stdout, "001 create_website_analyses") || !strings.Contains(stdout, "pending: 0") {
		t.Errorf("migrate status output = %q", stdout)
	}

	if _, _, err := run(t, "migrate", "down"); err != nil {
		t.Fatalf("migrate down failed: %v", err)
	}

	stdout, _, err = run(t, "migrate", "status")
	if err != nil {
		t.Fatalf("migrate status failed: %v", err)
	}
	if !strings.Contains(stdout, "applied: 0") || !strings.Contains(stdout, "pending: 1") {
		t.Errorf("migrate status after down = %q", stdout)
	}
}

func TestInvalidConfiguration(t *testing.T) {
	setupCLI(t)
	t.Setenv("CO2_CACHE_TTL", "0")

	if _, _, err := run(t, "history"); err == nil || !strings.Contains(err.Error(), "configuration") {
		t.Errorf("error = %v, want a configuration error", err)
	}
}

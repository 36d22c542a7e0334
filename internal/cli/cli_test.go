package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cokovskak/workloadgenerator/internal/dummy"
	"github.com/cokovskak/workloadgenerator/internal/runner"
)

func TestRunHeadless(t *testing.T) {
	srv := httptest.NewServer(dummy.NewRouter())
	defer srv.Close()

	dir := t.TempDir()
	cfg := runner.DefaultConfig()
	cfg.URL = srv.URL + "/compute"
	cfg.Levels = []int{1, 3}
	cfg.Timeout = 5 * time.Second

	opts := Options{
		Config:    cfg,
		PlotPath:  filepath.Join(dir, "sweep.png"),
		OutPrefix: filepath.Join(dir, "sweep"),
	}

	var out bytes.Buffer
	if err := Run(context.Background(), opts, &out); err != nil {
		t.Fatalf("Run: %v\n%s", err, out.String())
	}

	log := out.String()
	for _, want := range []string{
		"STARTING CONCURRENCY SWEEP",
		"[BASELINE] Execution Time:",
		"[TEST] Running load test with 3 requests per second...",
		"[RESULT] 3 RPS",
		"SWEEP RESULTS",
		"Sweep Charts",
	} {
		if !strings.Contains(log, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(log, "Request failed") {
		t.Errorf("unexpected probe failure:\n%s", log)
	}

	for _, name := range []string{"sweep.png", "sweep.csv", "sweep.json", "sweep_probes.parquet"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestRunFailingTargetCompletes(t *testing.T) {
	srv := httptest.NewServer(dummy.NewRouter())
	defer srv.Close()

	cfg := runner.DefaultConfig()
	cfg.URL = srv.URL + "/status/500"
	cfg.Levels = []int{2}
	cfg.Timeout = 5 * time.Second

	var out bytes.Buffer
	if err := Run(context.Background(), Options{Config: cfg}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	log := out.String()
	if n := strings.Count(log, "Request failed"); n != 3 {
		t.Errorf("failure lines = %d, want 3 (baseline + 2)", n)
	}
	if !strings.Contains(log, "inf") {
		t.Errorf("summary does not show infinite latency:\n%s", log)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := runner.DefaultConfig()
	cfg.Levels = []int{0}

	var out bytes.Buffer
	if err := Run(context.Background(), Options{Config: cfg}, &out); err == nil {
		t.Fatal("Run succeeded with level 0")
	}
	if out.Len() != 0 {
		t.Errorf("output before validation failure: %q", out.String())
	}
}

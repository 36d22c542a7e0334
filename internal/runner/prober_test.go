package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/cokovskak/workloadgenerator/internal/dummy"
)

func newTestProber(t *testing.T, target string, log io.Writer) *Prober {
	t.Helper()
	cfg := DefaultConfig()
	cfg.URL = target
	cfg.Levels = []int{1, 4}
	cfg.Timeout = 5 * time.Second
	p, err := NewProber(cfg, log)
	if err != nil {
		t.Fatalf("NewProber: %v", err)
	}
	return p
}

func TestProberURL(t *testing.T) {
	p := newTestProber(t, "http://example.com/compute?region=eu", nil)

	u, err := url.Parse(p.URL("abc-123"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("n") != "62340" || q.Get("req_id") != "abc-123" || q.Get("region") != "eu" {
		t.Errorf("query = %v", q)
	}
	if u.Path != "/compute" {
		t.Errorf("path = %q, want /compute", u.Path)
	}
}

func TestProbeSuccess(t *testing.T) {
	srv := httptest.NewServer(dummy.NewRouter())
	defer srv.Close()

	var log bytes.Buffer
	p := newTestProber(t, srv.URL+"/compute", &log)

	res := p.Probe(context.Background(), "req-1")
	if !res.OK() {
		t.Fatalf("Probe failed: %v", res.Err)
	}
	if res.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", res.Status)
	}
	if res.Duration < 0 {
		t.Errorf("Duration = %s, want non-negative", res.Duration)
	}
	if res.Bytes == 0 {
		t.Error("response body was not drained")
	}
	if log.Len() != 0 {
		t.Errorf("unexpected log output: %q", log.String())
	}
}

func TestProbeStatusFailure(t *testing.T) {
	srv := httptest.NewServer(dummy.NewRouter())
	defer srv.Close()

	var log bytes.Buffer
	p := newTestProber(t, srv.URL+"/status/503", &log)

	res := p.Probe(context.Background(), "req-2")
	if res.OK() {
		t.Fatal("Probe succeeded on 503")
	}
	var se *StatusError
	if !errors.As(res.Err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Errorf("Err = %v, want StatusError 503", res.Err)
	}
	if !strings.Contains(log.String(), "Request failed: 503 Service Unavailable") {
		t.Errorf("log = %q", log.String())
	}
}

func TestProbeTransportFailure(t *testing.T) {
	srv := httptest.NewServer(dummy.NewRouter())
	target := srv.URL + "/compute"
	srv.Close()

	var log bytes.Buffer
	p := newTestProber(t, target, &log)

	res := p.Probe(context.Background(), "req-3")
	if res.OK() {
		t.Fatal("Probe succeeded against a closed server")
	}
	if strings.Count(log.String(), "Request failed") != 1 {
		t.Errorf("want exactly one failure line, got %q", log.String())
	}
}

func TestProbeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = srv.URL
	cfg.Timeout = 50 * time.Millisecond
	p, err := NewProber(cfg, nil)
	if err != nil {
		t.Fatalf("NewProber: %v", err)
	}

	if res := p.Probe(context.Background(), "req-4"); res.OK() {
		t.Error("Probe succeeded past its timeout")
	}
}

func TestDriverAgainstDummyServer(t *testing.T) {
	srv := httptest.NewServer(dummy.NewRouter())
	defer srv.Close()

	var log bytes.Buffer
	p := newTestProber(t, srv.URL+"/compute", &log)
	d := NewDriver(p.Cfg, p.Probe, &log)

	report, err := d.RunSweep(context.Background(), []int{1, 4})
	if err != nil {
		t.Fatalf("RunSweep: %v", err)
	}
	for _, pt := range report.Points {
		if pt.Succeeded != pt.Level || pt.Throughput <= 0 {
			t.Errorf("point %+v, want all probes successful", pt)
		}
	}
	if report.Target != srv.URL+"/compute" {
		t.Errorf("Target = %q", report.Target)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"default", func(c *Config) {}, true},
		{"bad scheme", func(c *Config) { c.URL = "ftp://host/x" }, false},
		{"no host", func(c *Config) { c.URL = "http:///compute" }, false},
		{"negative n", func(c *Config) { c.Workload = -1 }, false},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, false},
		{"no levels", func(c *Config) { c.Levels = nil }, false},
		{"zero level", func(c *Config) { c.Levels = []int{1, 0} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestParseLevels(t *testing.T) {
	got, err := ParseLevels(" 1, 10,50 ,")
	if err != nil {
		t.Fatalf("ParseLevels: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 10 || got[2] != 50 {
		t.Errorf("ParseLevels = %v, want [1 10 50]", got)
	}
	for _, bad := range []string{"", "1,x", "0", "5,-2"} {
		if _, err := ParseLevels(bad); err == nil {
			t.Errorf("ParseLevels(%q) succeeded, want error", bad)
		}
	}
}

package runner

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// ProbeFunc issues one request tagged with reqID and reports how it went.
type ProbeFunc func(ctx context.Context, reqID string) ProbeResult

// StatusError is returned for responses with a 4xx or 5xx status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s for url: %s", e.Code, http.StatusText(e.Code), e.URL)
}

type Prober struct {
	Cfg    Config
	Client *http.Client

	target *url.URL
	log    io.Writer
}

func NewProber(cfg Config, log io.Writer) (*Prober, error) {
	target, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", cfg.URL, err)
	}

	// One connection per concurrent probe at the largest level.
	conns := cfg.MaxLevel()
	if cfg.MaxWorkers > 0 && cfg.MaxWorkers < conns {
		conns = cfg.MaxWorkers
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = conns
	t.MaxConnsPerHost = conns
	t.MaxIdleConnsPerHost = conns

	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: t,
	}

	return &Prober{
		Cfg:    cfg,
		Client: client,
		target: target,
		log:    SyncWriter(log),
	}, nil
}

// URL returns the request URL for reqID. Query parameters already present
// on the configured URL are kept.
func (p *Prober) URL(reqID string) string {
	u := *p.target
	q := u.Query()
	q.Set("n", strconv.Itoa(p.Cfg.Workload))
	q.Set("req_id", reqID)
	u.RawQuery = q.Encode()
	return u.String()
}

// Probe sends one GET and times it until the body has been fully read.
// Failures are logged and returned in the result, never retried.
func (p *Prober) Probe(ctx context.Context, reqID string) ProbeResult {
	target := p.URL(reqID)
	res := ProbeResult{ReqID: reqID, Start: time.Now()}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err == nil {
		var resp *http.Response
		resp, err = p.Client.Do(req)
		if err == nil {
			res.Status = resp.StatusCode
			res.Bytes, err = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if err == nil && resp.StatusCode >= 400 {
				err = &StatusError{Code: resp.StatusCode, URL: target}
			}
		}
	}
	res.Duration = time.Since(res.Start)

	if err != nil {
		res.Err = err
		fmt.Fprintf(p.log, "❌ Request failed: %v\n", err)
	}
	return res
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// SyncWriter serialises writes to w so concurrent probes can share a sink.
// A nil writer discards everything.
func SyncWriter(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	if sw, ok := w.(*syncWriter); ok {
		return sw
	}
	return &syncWriter{w: w}
}

func (s *syncWriter) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(b)
}

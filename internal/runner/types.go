package runner

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Reference configuration of the sweep.
const (
	DefaultURL        = "https://serverless-app-1070589510446.europe-west8.run.app/compute"
	DefaultWorkload   = 62340
	DefaultTimeout    = 650 * time.Second
	DefaultMaxWorkers = 1000
)

// DefaultLevels is the concurrency sweep run when nothing else is configured.
var DefaultLevels = []int{1, 10, 50, 100, 200, 300, 400, 500, 600, 700, 800, 900, 1000}

var ErrInvalidLevel = errors.New("concurrency level must be at least 1")

type Config struct {
	URL      string
	Workload int // value of the "n" query parameter
	Levels   []int
	Timeout  time.Duration

	// MaxWorkers caps the goroutines running probes of a single level.
	// Zero or less means one worker per probe.
	MaxWorkers int
}

func DefaultConfig() Config {
	return Config{
		URL:        DefaultURL,
		Workload:   DefaultWorkload,
		Levels:     append([]int(nil), DefaultLevels...),
		Timeout:    DefaultTimeout,
		MaxWorkers: DefaultMaxWorkers,
	}
}

func (c Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", c.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", c.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", c.URL)
	}
	if c.Workload < 0 {
		return fmt.Errorf("workload n must not be negative, got %d", c.Workload)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return validateLevels(c.Levels)
}

// MaxLevel returns the largest configured level, or 1 if none are set.
func (c Config) MaxLevel() int {
	max := 1
	for _, l := range c.Levels {
		if l > max {
			max = l
		}
	}
	return max
}

func validateLevels(levels []int) error {
	if len(levels) == 0 {
		return errors.New("no concurrency levels configured")
	}
	for _, l := range levels {
		if l < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidLevel, l)
		}
	}
	return nil
}

// ParseLevels parses a comma separated list such as "1,10,50".
func ParseLevels(s string) ([]int, error) {
	var levels []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		l, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid concurrency level %q: %w", part, err)
		}
		levels = append(levels, l)
	}
	if err := validateLevels(levels); err != nil {
		return nil, err
	}
	return levels, nil
}

// ProbeResult is the outcome of one request. A nil Err means success.
type ProbeResult struct {
	ReqID    string
	Start    time.Time
	Duration time.Duration
	Status   int
	Bytes    int64
	Err      error
}

func (r ProbeResult) OK() bool {
	return r.Err == nil
}

// SweepPoint aggregates one concurrency level. Latencies are in seconds.
type SweepPoint struct {
	Level     int
	Succeeded int
	Failed    int

	MeanLatency float64 // +Inf when no probe succeeded
	MinLatency  float64
	MaxLatency  float64

	Throughput float64 // successful probes per second of batch span
	Speedup    float64
	Span       time.Duration
}

type Report struct {
	Target   string
	Workload int

	Baseline SweepPoint
	Points   []SweepPoint

	StartedAt  time.Time
	FinishedAt time.Time
}

func (r *Report) Levels() []int {
	out := make([]int, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Level
	}
	return out
}

func (r *Report) Latencies() []float64 {
	return r.column(func(p SweepPoint) float64 { return p.MeanLatency })
}

func (r *Report) Throughputs() []float64 {
	return r.column(func(p SweepPoint) float64 { return p.Throughput })
}

func (r *Report) Speedups() []float64 {
	return r.column(func(p SweepPoint) float64 { return p.Speedup })
}

func (r *Report) column(f func(SweepPoint) float64) []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = f(p)
	}
	return out
}

package runner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cokovskak/workloadgenerator/internal/stats"
)

// Driver runs concurrency sweeps. It keeps no state between sweeps.
type Driver struct {
	Cfg Config

	// Now is the clock used to measure batch spans.
	Now func() time.Time

	probe     ProbeFunc
	log       io.Writer
	observers Observers
}

func NewDriver(cfg Config, probe ProbeFunc, log io.Writer, observers ...Observer) *Driver {
	return &Driver{
		Cfg:       cfg,
		Now:       time.Now,
		probe:     probe,
		log:       SyncWriter(log),
		observers: observers,
	}
}

func (d *Driver) workers(level int) int {
	if d.Cfg.MaxWorkers > 0 && d.Cfg.MaxWorkers < level {
		return d.Cfg.MaxWorkers
	}
	return level
}

// MeasureLevel fires level probes at once and waits for every one of them.
// A level where nothing succeeds reports +Inf latency and zero throughput.
// The returned point has no speedup; that needs a baseline.
func (d *Driver) MeasureLevel(ctx context.Context, level int) (SweepPoint, error) {
	if level < 1 {
		return SweepPoint{}, fmt.Errorf("%w: got %d", ErrInvalidLevel, level)
	}

	ids := make([]string, level)
	for i := range ids {
		ids[i] = uuid.NewString()
	}
	results := make([]ProbeResult, level)

	d.observers.LevelStarted(level)

	var g errgroup.Group
	g.SetLimit(d.workers(level))

	start := d.Now()
	for i, id := range ids {
		g.Go(func() error {
			res := d.probe(ctx, id)
			results[i] = res
			d.observers.ProbeDone(level, res)
			return nil
		})
	}
	g.Wait()
	span := d.Now().Sub(start)

	return summarize(level, results, span), ctx.Err()
}

func summarize(level int, results []ProbeResult, span time.Duration) SweepPoint {
	sample := stats.NewSample(len(results))
	for _, r := range results {
		if r.OK() {
			sample.Add(r.Duration)
		}
	}

	return SweepPoint{
		Level:       level,
		Succeeded:   sample.Count(),
		Failed:      len(results) - sample.Count(),
		MeanLatency: sample.Mean(),
		MinLatency:  sample.Min(),
		MaxLatency:  sample.Max(),
		Throughput:  stats.Throughput(sample.Count(), span),
		Span:        span,
	}
}

// RunSweep measures a single-request baseline, then each level in order.
// Levels never overlap. Probe failures are absorbed; only an invalid level
// list or a cancelled context ends the sweep early, in which case the points
// finished so far are returned along with the error.
func (d *Driver) RunSweep(ctx context.Context, levels []int) (*Report, error) {
	if err := validateLevels(levels); err != nil {
		return nil, err
	}

	report := &Report{
		Target:    d.Cfg.URL,
		Workload:  d.Cfg.Workload,
		Points:    make([]SweepPoint, 0, len(levels)),
		StartedAt: time.Now(),
	}

	baseline, err := d.MeasureLevel(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	baseline.Speedup = stats.Speedup(baseline.Throughput, baseline.Throughput)
	report.Baseline = baseline
	fmt.Fprintf(d.log, "[BASELINE] Execution Time: %.2fs, Throughput: %.2f req/s\n",
		baseline.MeanLatency, baseline.Throughput)
	d.observers.BaselineDone(baseline)

	for _, level := range levels {
		fmt.Fprintf(d.log, "\n[TEST] Running load test with %d requests per second...\n", level)

		p, err := d.MeasureLevel(ctx, level)
		if err != nil {
			return report, fmt.Errorf("level %d: %w", level, err)
		}
		p.Speedup = stats.Speedup(p.Throughput, baseline.Throughput)
		report.Points = append(report.Points, p)

		fmt.Fprintf(d.log, "[RESULT] %d RPS -> Execution Time: %.2fs, Throughput: %.2f req/s\n",
			level, p.MeanLatency, p.Throughput)
		d.observers.LevelDone(p)
	}

	report.FinishedAt = time.Now()
	return report, nil
}

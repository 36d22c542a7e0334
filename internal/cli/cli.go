package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/cokovskak/workloadgenerator/internal/banner"
	"github.com/cokovskak/workloadgenerator/internal/chart"
	"github.com/cokovskak/workloadgenerator/internal/export"
	"github.com/cokovskak/workloadgenerator/internal/metrics"
	"github.com/cokovskak/workloadgenerator/internal/runner"
	"github.com/cokovskak/workloadgenerator/internal/tui"
	"github.com/cokovskak/workloadgenerator/internal/tui/styles"
)

type Options struct {
	Config runner.Config

	PlotPath    string // PNG chart, skipped when empty
	OutPrefix   string // CSV/JSON/Parquet reports, skipped when empty
	TUI         bool
	MetricsAddr string // Prometheus listener, skipped when empty
}

// Run executes one sweep and reports it. Probe failures are only logged;
// the returned error is about configuration or an interrupted sweep.
func Run(ctx context.Context, opts Options, out io.Writer) error {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return err
	}

	fmt.Fprintln(out, banner.GetString())
	printHeader(out, opts)

	var observers runner.Observers

	probeLog := export.NewProbeLog()
	if opts.OutPrefix != "" {
		observers = append(observers, probeLog)
	}

	if opts.MetricsAddr != "" {
		exp := metrics.NewExporter()
		observers = append(observers, exp)
		go func() {
			if err := exp.Serve(ctx, opts.MetricsAddr); err != nil {
				fmt.Fprintf(out, "⚠️  Metrics server failed: %v\n", err)
			}
		}()
		fmt.Fprintf(out, "📡 Metrics at http://%s/metrics\n\n", opts.MetricsAddr)
	}

	var (
		report *runner.Report
		err    error
	)
	if opts.TUI {
		report, err = runTUI(ctx, cfg, observers, out)
	} else {
		report, err = runHeadless(ctx, cfg, observers, out)
	}
	if report == nil {
		return err
	}
	if err != nil {
		fmt.Fprintf(out, "\n⚠️  Sweep stopped early: %v\n", err)
	}

	printSummary(out, report)
	renderCharts(out, opts, report)
	handleAutoReport(out, opts, report, probeLog)
	return err
}

func runHeadless(ctx context.Context, cfg runner.Config, observers runner.Observers, out io.Writer) (*runner.Report, error) {
	log := runner.SyncWriter(out)
	prober, err := runner.NewProber(cfg, log)
	if err != nil {
		return nil, err
	}
	driver := runner.NewDriver(cfg, prober.Probe, log, observers...)
	return driver.RunSweep(ctx, cfg.Levels)
}

// runTUI holds the console lines back while the live view owns the screen
// and prints them once it exits.
func runTUI(ctx context.Context, cfg runner.Config, observers runner.Observers, out io.Writer) (*runner.Report, error) {
	var buf bytes.Buffer
	log := runner.SyncWriter(&buf)

	prober, err := runner.NewProber(cfg, log)
	if err != nil {
		return nil, err
	}
	sink := tui.NewEventSink(1024)
	driver := runner.NewDriver(cfg, prober.Probe, log, append(observers, sink)...)

	report, err := tui.Run(ctx, driver, sink, cfg.Levels)
	out.Write(buf.Bytes())
	return report, err
}

func printHeader(out io.Writer, opts Options) {
	cfg := opts.Config
	workers := "one per request"
	if cfg.MaxWorkers > 0 {
		workers = fmt.Sprintf("max %d", cfg.MaxWorkers)
	}

	fmt.Fprintf(out, "\n🚀 STARTING CONCURRENCY SWEEP\n")
	fmt.Fprintf(out, "======================================================================\n")
	fmt.Fprintf(out, "Target URL : %s\n", cfg.URL)
	fmt.Fprintf(out, "Workload   : n=%d\n", cfg.Workload)
	fmt.Fprintf(out, "Levels     : %s\n", joinInts(cfg.Levels))
	fmt.Fprintf(out, "Workers    : %s\n", workers)
	fmt.Fprintf(out, "Timeout    : %s\n", cfg.Timeout)
	fmt.Fprintf(out, "======================================================================\n\n")
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}

func formatLatency(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2fs", v)
}

func printSummary(out io.Writer, r *runner.Report) {
	fmt.Fprintf(out, "\n\n📊 SWEEP RESULTS\n")
	fmt.Fprintf(out, "======================================================================\n")
	fmt.Fprintf(out, "Total Duration : %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(out, "Baseline       : %s, %.2f req/s\n", formatLatency(r.Baseline.MeanLatency), r.Baseline.Throughput)
	fmt.Fprintln(out)

	fmt.Fprintln(out, styles.TableHeader.Render(fmt.Sprintf("%8s %10s %12s %9s %6s %6s",
		"LEVEL", "LATENCY", "THROUGHPUT", "SPEEDUP", "OK", "FAIL")))
	for _, p := range r.Points {
		line := fmt.Sprintf("%8d %10s %12.2f %8.2fx %6d %6d",
			p.Level, formatLatency(p.MeanLatency), p.Throughput, p.Speedup, p.Succeeded, p.Failed)
		if p.Succeeded == 0 {
			line = styles.Error.Render(line)
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "======================================================================\n")
}

func renderCharts(out io.Writer, opts Options, r *runner.Report) {
	renderers := []chart.Renderer{&chart.Terminal{Out: out}}
	if opts.PlotPath != "" {
		renderers = append(renderers, chart.NewPNG(opts.PlotPath))
	}
	for _, rd := range renderers {
		if err := rd.Render(r); err != nil {
			fmt.Fprintf(out, "⚠️  Chart rendering failed: %v\n", err)
		}
	}
	if opts.PlotPath != "" {
		fmt.Fprintf(out, "\n🖼️  Charts saved to %s\n", opts.PlotPath)
	}
}

func handleAutoReport(out io.Writer, opts Options, r *runner.Report, probes *export.ProbeLog) {
	if opts.OutPrefix == "" || len(r.Points) == 0 {
		return
	}

	fmt.Fprintf(out, "\n💾 Generating reports with prefix: %s\n", opts.OutPrefix)
	if err := export.WriteCSV(r, opts.OutPrefix+".csv"); err != nil {
		fmt.Fprintf(out, "Error writing CSV: %v\n", err)
	}
	if err := export.WriteJSON(r, opts.OutPrefix+".json"); err != nil {
		fmt.Fprintf(out, "Error writing JSON: %v\n", err)
	}
	if err := probes.WriteParquet(opts.OutPrefix + "_probes.parquet"); err != nil {
		fmt.Fprintf(out, "Error writing Parquet: %v\n", err)
	}
	fmt.Fprintf(out, "✅ Reports saved to %s.{csv,json} and %s_probes.parquet\n", opts.OutPrefix, opts.OutPrefix)
}

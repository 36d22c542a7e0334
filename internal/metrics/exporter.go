package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cokovskak/workloadgenerator/internal/runner"
)

// Exporter publishes sweep progress as Prometheus metrics. It implements
// runner.Observer and registers into its own registry, so several
// exporters can coexist in one process.
type Exporter struct {
	registry *prometheus.Registry

	probes        *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	currentLevel  prometheus.Gauge
	throughput    *prometheus.GaugeVec
	meanLatency   *prometheus.GaugeVec
	speedup       *prometheus.GaugeVec
	baselineGauge prometheus.Gauge
}

func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		probes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workloadgen_probes_total",
				Help: "Probes completed, by concurrency level and outcome",
			},
			[]string{"level", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workloadgen_probe_latency_seconds",
				Help:    "Latency of successful probes",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 15), // 50ms to ~13min
			},
			[]string{"level"},
		),
		currentLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "workloadgen_concurrency_level",
			Help: "Concurrency level currently being measured",
		}),
		throughput: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "workloadgen_throughput_rps",
				Help: "Successful probes per second of batch span",
			},
			[]string{"level"},
		),
		meanLatency: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "workloadgen_mean_latency_seconds",
				Help: "Mean latency of successful probes, +Inf if none succeeded",
			},
			[]string{"level"},
		),
		speedup: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "workloadgen_speedup",
				Help: "Throughput relative to the single request baseline",
			},
			[]string{"level"},
		),
		baselineGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "workloadgen_baseline_throughput_rps",
			Help: "Throughput of the single request baseline",
		}),
	}

	e.registry.MustRegister(
		e.probes,
		e.latency,
		e.currentLevel,
		e.throughput,
		e.meanLatency,
		e.speedup,
		e.baselineGauge,
	)
	return e
}

func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (e *Exporter) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (e *Exporter) LevelStarted(level int) {
	e.currentLevel.Set(float64(level))
}

func (e *Exporter) ProbeDone(level int, res runner.ProbeResult) {
	l := strconv.Itoa(level)
	if !res.OK() {
		e.probes.WithLabelValues(l, "failure").Inc()
		return
	}
	e.probes.WithLabelValues(l, "success").Inc()
	e.latency.WithLabelValues(l).Observe(res.Duration.Seconds())
}

func (e *Exporter) BaselineDone(p runner.SweepPoint) {
	e.baselineGauge.Set(p.Throughput)
}

func (e *Exporter) LevelDone(p runner.SweepPoint) {
	l := strconv.Itoa(p.Level)
	e.throughput.WithLabelValues(l).Set(p.Throughput)
	e.meanLatency.WithLabelValues(l).Set(p.MeanLatency)
	e.speedup.WithLabelValues(l).Set(p.Speedup)
}

package export

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/cokovskak/workloadgenerator/internal/runner"
)

// WriteCSV writes one row for the baseline followed by one per sweep point.
// A level without successful probes has "inf" latency.
func WriteCSV(r *runner.Report, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{
		"phase", "level", "succeeded", "failed",
		"mean_latency_s", "min_latency_s", "max_latency_s",
		"throughput_rps", "speedup", "span_s",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	if err := w.Write(pointRecord("baseline", r.Baseline)); err != nil {
		return err
	}
	for _, p := range r.Points {
		if err := w.Write(pointRecord("sweep", p)); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func pointRecord(phase string, p runner.SweepPoint) []string {
	return []string{
		phase,
		strconv.Itoa(p.Level),
		strconv.Itoa(p.Succeeded),
		strconv.Itoa(p.Failed),
		formatFloat(p.MeanLatency),
		formatFloat(p.MinLatency),
		formatFloat(p.MaxLatency),
		formatFloat(p.Throughput),
		formatFloat(p.Speedup),
		formatFloat(p.Span.Seconds()),
	}
}

func formatFloat(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

type pointJSON struct {
	Level       int      `json:"level"`
	Succeeded   int      `json:"succeeded"`
	Failed      int      `json:"failed"`
	MeanLatency *float64 `json:"mean_latency_s"` // null when every probe failed
	MinLatency  float64  `json:"min_latency_s"`
	MaxLatency  float64  `json:"max_latency_s"`
	Throughput  float64  `json:"throughput_rps"`
	Speedup     float64  `json:"speedup"`
	SpanSeconds float64  `json:"span_s"`
}

type reportJSON struct {
	Target     string      `json:"target"`
	Workload   int         `json:"n"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Baseline   pointJSON   `json:"baseline"`
	Points     []pointJSON `json:"points"`
}

func toPointJSON(p runner.SweepPoint) pointJSON {
	out := pointJSON{
		Level:       p.Level,
		Succeeded:   p.Succeeded,
		Failed:      p.Failed,
		MinLatency:  p.MinLatency,
		MaxLatency:  p.MaxLatency,
		Throughput:  p.Throughput,
		Speedup:     p.Speedup,
		SpanSeconds: p.Span.Seconds(),
	}
	if !math.IsInf(p.MeanLatency, 0) && !math.IsNaN(p.MeanLatency) {
		v := p.MeanLatency
		out.MeanLatency = &v
	}
	return out
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(r *runner.Report, filename string) error {
	doc := reportJSON{
		Target:     r.Target,
		Workload:   r.Workload,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Baseline:   toPointJSON(r.Baseline),
		Points:     make([]pointJSON, len(r.Points)),
	}
	for i, p := range r.Points {
		doc.Points[i] = toPointJSON(p)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

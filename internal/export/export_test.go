package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/cokovskak/workloadgenerator/internal/runner"
)

func sampleReport() *runner.Report {
	return &runner.Report{
		Target:   "http://localhost:8080/compute",
		Workload: 62340,
		Baseline: runner.SweepPoint{Level: 1, Succeeded: 1, MeanLatency: 2, Throughput: 0.5, Speedup: 1, Span: 2 * time.Second},
		Points: []runner.SweepPoint{
			{Level: 10, Succeeded: 10, MeanLatency: 3, Throughput: 2.5, Speedup: 5, Span: 4 * time.Second},
			{Level: 5, Failed: 5, MeanLatency: math.Inf(1), Span: time.Second},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	if err := WriteCSV(sampleReport(), path); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}

	if len(records) != 4 {
		t.Fatalf("rows = %d, want header + 3", len(records))
	}
	if records[1][0] != "baseline" || records[2][0] != "sweep" {
		t.Errorf("phases = %q, %q", records[1][0], records[2][0])
	}
	if records[2][7] != "2.500000" || records[2][8] != "5.000000" {
		t.Errorf("level 10 throughput/speedup = %s/%s", records[2][7], records[2][8])
	}
	if records[3][4] != "inf" {
		t.Errorf("failed level latency = %q, want inf", records[3][4])
	}
}

func TestWriteJSONEncodesInfAsNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := WriteJSON(sampleReport(), path); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc struct {
		Points []struct {
			Level       int      `json:"level"`
			MeanLatency *float64 `json:"mean_latency_s"`
		} `json:"points"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Points) != 2 {
		t.Fatalf("points = %d, want 2", len(doc.Points))
	}
	if doc.Points[0].MeanLatency == nil || *doc.Points[0].MeanLatency != 3 {
		t.Errorf("level 10 latency = %v, want 3", doc.Points[0].MeanLatency)
	}
	if doc.Points[1].MeanLatency != nil {
		t.Errorf("failed level latency = %v, want null", *doc.Points[1].MeanLatency)
	}
}

func TestProbeLogPhases(t *testing.T) {
	l := NewProbeLog()
	l.ProbeDone(1, runner.ProbeResult{ReqID: "a", Duration: time.Second, Status: 200})
	l.BaselineDone(runner.SweepPoint{Level: 1})
	l.ProbeDone(10, runner.ProbeResult{ReqID: "b", Err: errors.New("refused")})

	rows := l.Rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Phase != "baseline" || !rows[0].Success || rows[0].LatencyMs != 1000 {
		t.Errorf("baseline row = %+v", rows[0])
	}
	if rows[1].Phase != "sweep" || rows[1].Success || rows[1].ErrMsg != "refused" {
		t.Errorf("sweep row = %+v", rows[1])
	}
}

func TestWriteParquet(t *testing.T) {
	l := NewProbeLog()
	for i := 0; i < 25; i++ {
		l.ProbeDone(25, runner.ProbeResult{ReqID: "r", Start: time.Now(), Duration: time.Millisecond, Status: 200})
	}

	path := filepath.Join(t.TempDir(), "probes.parquet")
	if err := l.WriteParquet(path); err != nil {
		t.Fatalf("WriteParquet: %v", err)
	}

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		t.Fatalf("open parquet: %v", err)
	}
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(ProbeRow), 1)
	if err != nil {
		t.Fatalf("parquet reader: %v", err)
	}
	defer pr.ReadStop()
	if n := pr.GetNumRows(); n != 25 {
		t.Errorf("rows = %d, want 25", n)
	}
}

package export

import (
	"fmt"
	"sync"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/cokovskak/workloadgenerator/internal/runner"
)

// ProbeRow is one probe as stored in the parquet export.
type ProbeRow struct {
	ReqID     string  `parquet:"name=req_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Phase     string  `parquet:"name=phase, type=BYTE_ARRAY, convertedtype=UTF8"`
	Level     int32   `parquet:"name=level, type=INT32"`
	Timestamp int64   `parquet:"name=ts, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	LatencyMs float64 `parquet:"name=latency_ms, type=DOUBLE"`
	Status    int32   `parquet:"name=http_status, type=INT32"`
	Success   bool    `parquet:"name=success, type=BOOLEAN"`
	ErrMsg    string  `parquet:"name=err_msg, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// ProbeLog keeps every probe of a sweep. It implements runner.Observer.
type ProbeLog struct {
	mu    sync.Mutex
	phase string
	rows  []ProbeRow
}

func NewProbeLog() *ProbeLog {
	return &ProbeLog{phase: "baseline"}
}

func (l *ProbeLog) LevelStarted(level int) {}

func (l *ProbeLog) ProbeDone(level int, res runner.ProbeResult) {
	row := ProbeRow{
		ReqID:     res.ReqID,
		Level:     int32(level),
		Timestamp: res.Start.UnixMilli(),
		LatencyMs: float64(res.Duration.Microseconds()) / 1000.0,
		Status:    int32(res.Status),
		Success:   res.OK(),
	}
	if res.Err != nil {
		row.ErrMsg = res.Err.Error()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	row.Phase = l.phase
	l.rows = append(l.rows, row)
}

func (l *ProbeLog) BaselineDone(p runner.SweepPoint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.phase = "sweep"
}

func (l *ProbeLog) LevelDone(p runner.SweepPoint) {}

func (l *ProbeLog) Rows() []ProbeRow {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ProbeRow, len(l.rows))
	copy(out, l.rows)
	return out
}

// WriteParquet writes the collected probes to filename.
func (l *ProbeLog) WriteParquet(filename string) error {
	rows := l.Rows()

	file, err := local.NewLocalFileWriter(filename)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}

	pw, err := writer.NewParquetWriter(file, new(ProbeRow), 4)
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			file.Close()
			return fmt.Errorf("failed to write probe %s: %w", row.ReqID, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		file.Close()
		return fmt.Errorf("failed to stop parquet writer: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close parquet file: %w", err)
	}
	return nil
}

package stats

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Sample collects the successful latencies of one concurrency level.
// It is filled after the batch has joined, so it is not synchronised itself.
type Sample struct {
	seconds []float64
	hist    *SafeHistogram
}

func NewSample(capacity int) *Sample {
	return &Sample{
		seconds: make([]float64, 0, capacity),
		hist:    NewSafeHistogram(),
	}
}

func (s *Sample) Add(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.seconds = append(s.seconds, d.Seconds())
	s.hist.Record(d)
}

func (s *Sample) Count() int {
	return len(s.seconds)
}

// Mean is the exact arithmetic mean in seconds, +Inf for an empty sample.
func (s *Sample) Mean() float64 {
	if len(s.seconds) == 0 {
		return math.Inf(1)
	}
	return stat.Mean(s.seconds, nil)
}

// Min and Max come from the histogram and carry its microsecond resolution.
func (s *Sample) Min() float64 {
	if len(s.seconds) == 0 {
		return 0
	}
	return s.hist.Min().Seconds()
}

func (s *Sample) Max() float64 {
	if len(s.seconds) == 0 {
		return 0
	}
	return s.hist.Max().Seconds()
}

// Throughput is count per second of span. A non-positive span yields 0.
func Throughput(count int, span time.Duration) float64 {
	if count == 0 || span <= 0 {
		return 0
	}
	return float64(count) / span.Seconds()
}

// Speedup divides throughput by the baseline, 0 when the baseline is 0.
func Speedup(throughput, baseline float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return throughput / baseline
}

package components

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var levels = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// Missing marks values that cannot be scaled, such as the +Inf latency of a
// level where every probe failed.
const Missing = "·"

type Sparkline struct {
	Data  []float64
	Width int
	Max   float64
	Style lipgloss.Style
	Label string
}

func NewSparkline(width int, label string, style lipgloss.Style) Sparkline {
	return Sparkline{
		Width: width,
		Label: label,
		Style: style,
		Data:  make([]float64, 0, width),
	}
}

// Add appends val, keeping only the last Width values.
func (s *Sparkline) Add(val float64) {
	s.Data = append(s.Data, val)
	if s.Width > 0 && len(s.Data) > s.Width {
		s.Data = s.Data[len(s.Data)-s.Width:]
	}

	max := 0.0
	for _, v := range s.Data {
		if finite(v) && v > max {
			max = v
		}
	}
	s.Max = max
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Graph renders the data as one line of block characters.
func (s Sparkline) Graph() string {
	var graph strings.Builder
	for _, v := range s.Data {
		if !finite(v) {
			graph.WriteString(Missing)
			continue
		}
		if s.Max <= 0 || v <= 0 {
			graph.WriteString(levels[0])
			continue
		}

		idx := int(math.Round(v / s.Max * float64(len(levels)-1)))
		if idx < 1 {
			idx = 1
		}
		if idx >= len(levels) {
			idx = len(levels) - 1
		}
		graph.WriteString(levels[idx])
	}

	pad := s.Width - len(s.Data)
	if pad > 0 {
		graph.WriteString(strings.Repeat(" ", pad))
	}
	return graph.String()
}

func (s Sparkline) View() string {
	if s.Width <= 0 {
		return ""
	}
	return s.Style.Render(s.Label) + "\n" + s.Style.Render(s.Graph())
}

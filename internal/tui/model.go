package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cokovskak/workloadgenerator/internal/runner"
	"github.com/cokovskak/workloadgenerator/internal/tui/components"
	"github.com/cokovskak/workloadgenerator/internal/tui/styles"
)

type Model struct {
	Cfg    runner.Config
	Levels []int

	events <-chan tea.Msg
	cancel context.CancelFunc

	Level      int
	Dispatched int // probes finished in the current level
	Failed     int

	Baseline *runner.SweepPoint
	Points   []runner.SweepPoint

	Progress    progress.Model
	Spinner     spinner.Model
	ThroughLine components.Sparkline
	LatencyLine components.Sparkline

	StartTime time.Time
	Report    *runner.Report
	Err       error
	Done      bool
	Quitting  bool

	Width  int
	Height int
}

func NewModel(cfg runner.Config, levels []int, sink *EventSink, cancel context.CancelFunc) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Active

	return Model{
		Cfg:         cfg,
		Levels:      levels,
		events:      sink.ch,
		cancel:      cancel,
		Progress:    progress.New(progress.WithDefaultGradient()),
		Spinner:     sp,
		ThroughLine: components.NewSparkline(len(levels), "Throughput (req/s)", styles.Value),
		LatencyLine: components.NewSparkline(len(levels), "Execution Time (s)", styles.Warn),
		StartTime:   time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, waitForEvent(m.events))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.Quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case levelStartedMsg:
		m.Level = msg.Level
		m.Dispatched = 0
		m.Failed = 0
		return m, tea.Batch(m.Progress.SetPercent(0), waitForEvent(m.events))

	case probeDoneMsg:
		if msg.Level == m.Level {
			m.Dispatched++
			if !msg.OK {
				m.Failed++
			}
		}
		pct := 0.0
		if m.Level > 0 {
			pct = math.Min(float64(m.Dispatched)/float64(m.Level), 1)
		}
		return m, tea.Batch(m.Progress.SetPercent(pct), waitForEvent(m.events))

	case baselineDoneMsg:
		p := msg.Point
		m.Baseline = &p
		return m, waitForEvent(m.events)

	case levelDoneMsg:
		m.Points = append(m.Points, msg.Point)
		m.ThroughLine.Add(msg.Point.Throughput)
		m.LatencyLine.Add(msg.Point.MeanLatency)
		return m, waitForEvent(m.events)

	case sweepDoneMsg:
		m.Report = msg.Report
		m.Err = msg.Err
		m.Done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		prog, cmd := m.Progress.Update(msg)
		m.Progress = prog.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	if m.Quitting {
		return "Sweep cancelled.\n"
	}
	if m.Done {
		return ""
	}

	s := strings.Builder{}

	s.WriteString(styles.Title.Render("🚀 Concurrency Sweep"))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("URL: %s\n", m.Cfg.URL))
	s.WriteString(styles.Subtle.Render(fmt.Sprintf("n=%d | timeout %s | elapsed %s",
		m.Cfg.Workload, m.Cfg.Timeout, time.Since(m.StartTime).Round(time.Second))))
	s.WriteString("\n\n")

	phase := "baseline"
	if m.Baseline != nil {
		phase = fmt.Sprintf("level %d/%d", len(m.Points)+1, len(m.Levels))
	}
	current := fmt.Sprintf("%s %s: %d requests\nDone: %d  Failed: %s",
		m.Spinner.View(), phase, m.Level, m.Dispatched, failStyle(m.Failed).Render(fmt.Sprint(m.Failed)))

	base := "Baseline: measuring..."
	if m.Baseline != nil {
		base = fmt.Sprintf("Baseline\n  %s\n  %.2f req/s", latency(m.Baseline.MeanLatency), m.Baseline.Throughput)
	}

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Width(34).Render(current),
		styles.Box.Width(24).Render(base),
	))
	s.WriteString("\n")
	s.WriteString(m.Progress.View())
	s.WriteString("\n\n")

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(m.ThroughLine.View()),
		styles.Box.Render(m.LatencyLine.View()),
	))
	s.WriteString("\n")

	if len(m.Points) > 0 {
		s.WriteString(pointsTable(m.Points))
		s.WriteString("\n")
	}
	s.WriteString(styles.RenderKey("q", "cancel sweep"))
	return s.String()
}

func failStyle(n int) lipgloss.Style {
	if n > 0 {
		return styles.Error
	}
	return styles.Success
}

func latency(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2fs", v)
}

func pointsTable(points []runner.SweepPoint) string {
	var b strings.Builder
	b.WriteString(styles.TableHeader.Render(fmt.Sprintf("%8s %10s %12s %9s %8s", "LEVEL", "LATENCY", "THROUGHPUT", "SPEEDUP", "FAILED")))
	b.WriteString("\n")
	for _, p := range points {
		b.WriteString(fmt.Sprintf("%8d %10s %12.2f %8.2fx %8d\n", p.Level, latency(p.MeanLatency), p.Throughput, p.Speedup, p.Failed))
	}
	return b.String()
}

package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cokovskak/workloadgenerator/internal/runner"
)

type levelStartedMsg struct{ Level int }

type probeDoneMsg struct {
	Level int
	OK    bool
}

type baselineDoneMsg struct{ Point runner.SweepPoint }

type levelDoneMsg struct{ Point runner.SweepPoint }

type sweepDoneMsg struct {
	Report *runner.Report
	Err    error
}

// EventSink turns driver events into tea messages. Probe events are
// dropped when the channel is full; the UI acts as backpressure. Level
// events are always delivered unless the sink has been closed.
type EventSink struct {
	ch        chan tea.Msg
	closed    chan struct{}
	closeOnce sync.Once
}

func NewEventSink(size int) *EventSink {
	return &EventSink{
		ch:     make(chan tea.Msg, size),
		closed: make(chan struct{}),
	}
}

func (s *EventSink) LevelStarted(level int) {
	s.send(levelStartedMsg{Level: level})
}

func (s *EventSink) ProbeDone(level int, res runner.ProbeResult) {
	select {
	case s.ch <- probeDoneMsg{Level: level, OK: res.OK()}:
	default:
	}
}

func (s *EventSink) BaselineDone(p runner.SweepPoint) {
	s.send(baselineDoneMsg{Point: p})
}

func (s *EventSink) LevelDone(p runner.SweepPoint) {
	s.send(levelDoneMsg{Point: p})
}

// Finish delivers the sweep outcome to the model.
func (s *EventSink) Finish(r *runner.Report, err error) {
	s.send(sweepDoneMsg{Report: r, Err: err})
}

// Close releases senders blocked on a model that has stopped reading.
func (s *EventSink) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

func (s *EventSink) send(msg tea.Msg) {
	select {
	case s.ch <- msg:
	case <-s.closed:
	}
}

func waitForEvent(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cokovskak/workloadgenerator/internal/runner"
)

// Run executes the sweep under the live view. driver must have been built
// with sink among its observers. Quitting the view cancels the sweep.
func Run(ctx context.Context, driver *runner.Driver, sink *EventSink, levels []int) (*runner.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		report *runner.Report
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := driver.RunSweep(ctx, levels)
		sink.Finish(r, err)
		done <- outcome{r, err}
	}()

	m := NewModel(driver.Cfg, levels, sink, cancel)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	cancel()
	sink.Close()
	res := <-done

	if runErr != nil && res.err == nil {
		return res.report, fmt.Errorf("terminal UI: %w", runErr)
	}
	return res.report, res.err
}

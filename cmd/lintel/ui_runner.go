package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"lintel/internal/driver"
	"lintel/internal/ui"
)

type runOutcome struct {
	result *driver.Result
	err    error
}

// runWithUI runs the check in the background and renders its progress on out.
// Quitting the UI cancels the run.
func runWithUI(ctx context.Context, title string, req driver.Request, out io.Writer) (*driver.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		reqCopy := req
		reqCopy.Progress = func(ev driver.Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}
		res, err := driver.Run(ctx, reqCopy)
		outcomeCh <- runOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))
	_, uiErr := program.Run()
	cancel()
	// дренируем канал, чтобы воркеры не зависли на отправке
	go func() {
		for range events {
		}
	}()
	if uiErr != nil && req.Logger != nil {
		req.Logger.Warn("progress view failed", "error", uiErr)
	}
	outcome := <-outcomeCh
	return outcome.result, outcome.err
}

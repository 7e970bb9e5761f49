package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"objrw/internal/driver"
	"objrw/internal/ui"
)

type batchOutcome struct {
	items []driver.BatchItem
	err   error
}

// runBatchWithUI runs the batch behind a Bubble Tea progress view.
func runBatchWithUI(ctx context.Context, title string, inputs []driver.Input, opts driver.BatchOptions) ([]driver.BatchItem, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan batchOutcome, 1)

	go func() {
		opts.Sink = driver.ChannelSink{Ch: events}
		items, err := driver.Batch(ctx, inputs, opts)
		outcomeCh <- batchOutcome{items: items, err: err}
		close(events)
	}()

	files := make([]string, len(inputs))
	for i, in := range inputs {
		files[i] = in.Path
	}
	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	// UI мог выйти раньше (Ctrl+C): дочитываем события, чтобы батч не встал
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.items, uiErr
	}
	return outcome.items, outcome.err
}

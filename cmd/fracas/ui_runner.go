package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"fracas/internal/session"
	"fracas/internal/symcache"
	"fracas/internal/ui"
)

type indexOutcome struct {
	stats symcache.UpdateStats
	err   error
}

// runIndexWithUI indexes paths while a progress view renders each file as
// it finishes. Quitting the view cancels the run.
func runIndexWithUI(ctx context.Context, sess *session.Session, paths []string) (symcache.UpdateStats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan ui.Event, 256)
	sess.Cache.SetProgress(func(path string, status symcache.Status) {
		events <- ui.Event{Path: path, Status: status}
	})
	defer sess.Cache.SetProgress(nil)

	outcomeCh := make(chan indexOutcome, 1)
	go func() {
		stats, err := sess.Cache.UpdateAll(ctx, paths)
		outcomeCh <- indexOutcome{stats: stats, err: err}
		close(events)
	}()

	model := ui.NewIndexModel("indexing", sess.Root(), len(paths), events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	cancel()
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.stats, uiErr
	}
	return outcome.stats, outcome.err
}

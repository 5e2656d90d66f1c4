package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fracas/internal/symcache"
	"fracas/internal/watch"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or refresh the symbol cache of a project",
		Args:  cobra.NoArgs,
		RunE:  runIndex,
	}
	cmd.Flags().Bool("watch", false, "keep the cache current until interrupted")
	cmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	cmd.Flags().Bool("reset", false, "drop the cache before indexing")
	return cmd
}

func runIndex(cmd *cobra.Command, _ []string) error {
	watchFlag, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("failed to get watch flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	useView, err := useProgressView(uiFlag)
	if err != nil {
		return err
	}
	reset, err := cmd.Flags().GetBool("reset")
	if err != nil {
		return fmt.Errorf("failed to get reset flag: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	timer, report := phaseTimer(cmd)
	defer report()

	end := timer.Track("open")
	sess, err := openSession(cmd, "")
	end("")
	if err != nil {
		return err
	}
	defer sess.Close()
	out := cmd.OutOrStdout()

	if reset {
		if err := sess.Cache.Reset(); err != nil {
			return fmt.Errorf("reset cache: %w", err)
		}
	}

	end = timer.Track("discover")
	paths, err := sess.Search.Files(ctx)
	end(fmt.Sprintf("%d files", len(paths)))
	if err != nil {
		return fmt.Errorf("list project files: %w", err)
	}

	end = timer.Track("index")
	var stats symcache.UpdateStats
	if useView {
		stats, err = runIndexWithUI(ctx, sess, paths)
	} else {
		stats, err = sess.Cache.UpdateAll(ctx, paths)
	}
	end(stats.String())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s: %s\n", color.GreenString("indexed"), sess.Root(), stats)

	if !watchFlag {
		return nil
	}
	w := sess.Watcher(watch.Options{
		OnEvent: func(ev watch.Event) {
			if ev.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n", color.RedString("failed"), displayPath(sess.Root(), ev.Path), ev.Err)
				return
			}
			fmt.Fprintf(out, "%s %s\n", color.CyanString("%-7s", ev.Op), displayPath(sess.Root(), ev.Path))
		},
	})
	fmt.Fprintf(out, "watching %s (interrupt to stop)\n", sess.Root())
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// useProgressView resolves --ui: auto renders the view only on a terminal.
func useProgressView(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return isTerminal(os.Stdout), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

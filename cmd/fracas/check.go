package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fracas/internal/project/dag"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report import cycles and imports of missing files",
		Args:  cobra.NoArgs,
		RunE:  runCheck,
	}
	cmd.Flags().Bool("order", false, "also print the files in import order")
	return cmd
}

func runCheck(cmd *cobra.Command, _ []string) error {
	showOrder, err := cmd.Flags().GetBool("order")
	if err != nil {
		return fmt.Errorf("failed to get order flag: %w", err)
	}
	timer, report := phaseTimer(cmd)
	defer report()

	sess, err := openSession(cmd, "")
	if err != nil {
		return err
	}
	defer sess.Close()

	end := timer.Track("index")
	stats, err := sess.Index(cmd.Context())
	end(stats.String())
	if err != nil {
		return err
	}

	end = timer.Track("graph")
	paths, err := sess.Cache.FilePaths()
	if err != nil {
		return err
	}
	nodes := make([]dag.Node, 0, len(paths))
	for _, path := range paths {
		state, ok, err := sess.Cache.FileState(path)
		if err != nil {
			return err
		}
		if ok {
			nodes = append(nodes, dag.Node{Path: path, Imports: state.ImportedPaths})
		}
	}
	result := dag.Analyze(nodes)
	end(fmt.Sprintf("%d files", len(nodes)))

	out := cmd.OutOrStdout()
	root := sess.Root()
	if showOrder {
		for i, batch := range result.Batches {
			for _, path := range batch {
				fmt.Fprintf(out, "%d\t%s\n", i, displayPath(root, path))
			}
		}
	}
	for _, p := range result.Problems {
		switch p.Kind {
		case dag.ProblemImportCycle:
			fmt.Fprintf(out, "%s: %s: %s\n", displayPath(root, p.Path), color.RedString("import cycle"), displayPaths(root, p.Cycle))
		case dag.ProblemSelfImport:
			fmt.Fprintf(out, "%s: %s\n", displayPath(root, p.Path), color.RedString("imports itself"))
		default:
			fmt.Fprintf(out, "%s: %s %s\n", displayPath(root, p.Path), color.YellowString("imports missing file"), displayPath(root, p.Import))
		}
	}
	if n := len(result.Problems); n > 0 {
		return fmt.Errorf("%d import problem(s)", n)
	}
	return nil
}

func displayPaths(root string, paths []string) string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = displayPath(root, p)
	}
	return strings.Join(names, " -> ")
}

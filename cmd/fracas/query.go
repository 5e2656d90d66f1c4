package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fracas/internal/resolve"
	"fracas/internal/syntax"
)

var (
	kindColor  = color.New(color.FgCyan)
	labelColor = color.New(color.Bold)
)

func printDefinitions(out io.Writer, root string, defs []resolve.Definition) {
	for _, d := range defs {
		fmt.Fprintf(out, "%s: %s %s\n", displayLocation(root, d.Location), kindColor.Sprint(d.Kind), labelColor.Sprint(d.Symbol))
	}
}

func newDefCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "def FILE:LINE:COL",
		Short: "Find the definition of the symbol at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			partial, err := cmd.Flags().GetBool("partial")
			if err != nil {
				return fmt.Errorf("failed to get partial flag: %w", err)
			}
			timer, report := phaseTimer(cmd)
			defer report()

			end := timer.Track("open")
			sess, f, pos, err := loadTarget(cmd, args[0])
			end("")
			if err != nil {
				return err
			}
			defer sess.Close()

			sk := syntax.WholeMatch
			if partial {
				sk = syntax.PartialMatch
			}
			end = timer.Track("resolve")
			defs, err := sess.Resolver.FindDefinition(cmd.Context(), f, pos, sk)
			end(fmt.Sprintf("%d results", len(defs)))
			if err != nil {
				return err
			}
			printDefinitions(cmd.OutOrStdout(), sess.Root(), defs)
			return nil
		},
	}
	cmd.Flags().Bool("partial", false, "match names that start with the word instead of the whole word")
	return cmd
}

func newRefsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refs FILE:LINE:COL",
		Short: "Find every reference to the symbol at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			timer, report := phaseTimer(cmd)
			defer report()

			sess, f, pos, err := loadTarget(cmd, args[0])
			if err != nil {
				return err
			}
			defer sess.Close()

			end := timer.Track("references")
			locs, err := sess.Resolver.FindReferences(cmd.Context(), f, pos)
			end(fmt.Sprintf("%d results", len(locs)))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, loc := range locs {
				fmt.Fprintln(out, displayLocation(sess.Root(), loc))
			}
			return nil
		},
	}
}

func newCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete FILE:LINE:COL",
		Short: "List completions for the word ending at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			timer, report := phaseTimer(cmd)
			defer report()

			sess, f, pos, err := loadTarget(cmd, args[0])
			if err != nil {
				return err
			}
			defer sess.Close()

			end := timer.Track("completion")
			items, err := sess.Resolver.FindCompletions(cmd.Context(), f, pos)
			end(fmt.Sprintf("%d results", len(items)))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, it := range items {
				kind := "keyword"
				if it.Definition.Symbol != "" {
					kind = it.Definition.Kind.String()
				}
				fmt.Fprintf(out, "%s\t%s\n", labelColor.Sprint(it.Label), kindColor.Sprint(kind))
			}
			return nil
		},
	}
}

func newSymbolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbols [QUERY]",
		Short: "List project definitions, or those of one file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := cmd.Flags().GetString("file")
			if err != nil {
				return fmt.Errorf("failed to get file flag: %w", err)
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			timer, report := phaseTimer(cmd)
			defer report()

			sess, err := openSession(cmd, file)
			if err != nil {
				return err
			}
			defer sess.Close()

			end := timer.Track("symbols")
			var defs []resolve.Definition
			if file != "" {
				defs, err = sess.Resolver.DocumentSymbols(cmd.Context(), absPath(file))
				defs = slices.DeleteFunc(defs, func(d resolve.Definition) bool {
					return !strings.Contains(d.Symbol, query)
				})
			} else {
				defs, err = sess.Resolver.WorkspaceSymbols(cmd.Context(), query)
			}
			end(fmt.Sprintf("%d results", len(defs)))
			if err != nil {
				return err
			}
			printDefinitions(cmd.OutOrStdout(), sess.Root(), defs)
			return nil
		},
	}
	cmd.Flags().String("file", "", "list only the definitions in this file")
	return cmd
}

func newImportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imports FILE",
		Short: "List the imports of a file, or every identifier they make visible",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transitive, err := cmd.Flags().GetBool("transitive")
			if err != nil {
				return fmt.Errorf("failed to get transitive flag: %w", err)
			}
			timer, report := phaseTimer(cmd)
			defer report()

			path := absPath(args[0])
			sess, err := openSession(cmd, path)
			if err != nil {
				return err
			}
			defer sess.Close()
			out := cmd.OutOrStdout()

			if !transitive {
				f, err := sess.Files.Load(path)
				if err != nil {
					return err
				}
				for _, imp := range sess.Resolver.FindImports(f) {
					fmt.Fprintf(out, "%s\t%s\n", labelColor.Sprint(imp.Symbol), displayPath(sess.Root(), imp.Location.Path))
				}
				return nil
			}

			end := timer.Track("index")
			stats, err := sess.Index(cmd.Context())
			end(stats.String())
			if err != nil {
				return err
			}
			ids, err := sess.Cache.ImportedIdentifiers(path)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
	cmd.Flags().Bool("transitive", false, "list the identifiers visible through the file and its imports")
	return cmd
}

func newProvidesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "provides FILE",
		Short: "Split the definitions of a file into provided and private",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := absPath(args[0])
			sess, err := openSession(cmd, path)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.Cache.UpdateFile(cmd.Context(), path); err != nil {
				return err
			}
			state, ok, err := sess.Cache.FileState(path)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: not indexed", path)
			}
			out := cmd.OutOrStdout()
			for _, id := range state.PublicIdentifiers {
				fmt.Fprintf(out, "%s\t%s\n", color.GreenString("public"), id)
			}
			for _, id := range state.PrivateIdentifiers {
				fmt.Fprintf(out, "%s\t%s\n", color.YellowString("private"), id)
			}
			return nil
		},
	}
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fracas/internal/observ"
	"fracas/internal/session"
	"fracas/internal/source"
)

// openSession opens the project named by --root, or else the one containing
// target (a file or directory, "" for the working directory).
func openSession(cmd *cobra.Command, target string) (*session.Session, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}
	start, err := cmd.Root().PersistentFlags().GetString("root")
	if err != nil {
		return nil, fmt.Errorf("failed to get root flag: %w", err)
	}
	if start == "" {
		start = "."
		if target != "" {
			start = target
			if info, err := os.Stat(target); err != nil || !info.IsDir() {
				start = filepath.Dir(target)
			}
		}
	}
	return session.Open(start, session.Options{Logger: logger})
}

// fileLocation is a FILE:LINE:COL argument. Line and column are 1-based on
// the command line and converted to a zero-based source position.
type fileLocation struct {
	Path string
	Pos  source.Position
}

func parseFileLocation(arg string) (fileLocation, error) {
	rest, colStr, ok := cutLast(arg)
	if !ok {
		return fileLocation{}, fmt.Errorf("invalid location %q (expected FILE:LINE:COL)", arg)
	}
	path, lineStr, ok := cutLast(rest)
	if !ok || path == "" {
		return fileLocation{}, fmt.Errorf("invalid location %q (expected FILE:LINE:COL)", arg)
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return fileLocation{}, fmt.Errorf("invalid line %q in %q", lineStr, arg)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil || col < 1 {
		return fileLocation{}, fmt.Errorf("invalid column %q in %q", colStr, arg)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fileLocation{}, err
	}
	return fileLocation{Path: abs, Pos: source.Position{Line: line - 1, Character: col - 1}}, nil
}

func cutLast(s string) (before, after string, ok bool) {
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// loadTarget opens the session for loc and loads its file.
func loadTarget(cmd *cobra.Command, arg string) (*session.Session, *source.File, source.Position, error) {
	loc, err := parseFileLocation(arg)
	if err != nil {
		return nil, nil, source.Position{}, err
	}
	sess, err := openSession(cmd, loc.Path)
	if err != nil {
		return nil, nil, source.Position{}, err
	}
	f, err := sess.Files.Load(loc.Path)
	if err != nil {
		sess.Close()
		return nil, nil, source.Position{}, err
	}
	return sess, f, loc.Pos, nil
}

// displayPath shortens path to be relative to root when it lies inside it.
func displayPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

func displayLocation(root string, loc source.Location) string {
	return fmt.Sprintf("%s:%d:%d", displayPath(root, loc.Path), loc.Range.Start.Line+1, loc.Range.Start.Character+1)
}

// phaseTimer hands out an observ.Timer whose summary is printed to stderr
// when --timings is set.
func phaseTimer(cmd *cobra.Command) (*observ.Timer, func()) {
	timer := observ.NewTimer()
	show, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil || !show {
		return timer, func() {}
	}
	return timer, func() { fmt.Fprint(cmd.ErrOrStderr(), timer.Summary()) }
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Package dag analyses the import graph of a project: load order, cycles and
// imports that point at files which do not exist.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

// Graph is the adjacency form of an Index.
type Graph struct {
	Edges   [][]FileID // Edges[from] = []to
	Indeg   []int      // counts only edges between present files
	Present []bool     // the file exists, rather than only being imported
}

// ProblemKind classifies a Problem.
type ProblemKind uint8

const (
	ProblemMissingImport ProblemKind = iota + 1
	ProblemSelfImport
	ProblemImportCycle
)

func (k ProblemKind) String() string {
	switch k {
	case ProblemMissingImport:
		return "missing-import"
	case ProblemSelfImport:
		return "self-import"
	case ProblemImportCycle:
		return "import-cycle"
	default:
		return "unknown"
	}
}

// Problem is one finding about a file's imports.
type Problem struct {
	Kind   ProblemKind
	Path   string
	Import string   // the offending import, for missing and self imports
	Cycle  []string // every file left in a cycle, for import cycles
}

func (p Problem) String() string {
	switch p.Kind {
	case ProblemMissingImport:
		return fmt.Sprintf("%s: imports missing file %s", p.Path, p.Import)
	case ProblemSelfImport:
		return fmt.Sprintf("%s: imports itself", p.Path)
	case ProblemImportCycle:
		return fmt.Sprintf("%s: in or below an import cycle: %s", p.Path, strings.Join(p.Cycle, " -> "))
	default:
		return p.Path + ": " + p.Kind.String()
	}
}

// BuildGraph links nodes through idx. Duplicate edges collapse; self imports
// and imports of files that are not nodes are reported instead of linked.
func BuildGraph(idx Index, nodes []Node) (Graph, []Problem) {
	count := len(idx.IDToPath)
	g := Graph{
		Edges:   make([][]FileID, count),
		Indeg:   make([]int, count),
		Present: make([]bool, count),
	}
	imports := make([][]string, count)
	for _, n := range nodes {
		id, ok := idx.PathToID[n.Path]
		if !ok || g.Present[int(id)] {
			continue
		}
		g.Present[int(id)] = true
		imports[int(id)] = n.Imports
	}

	var problems []Problem
	for from := range count {
		if !g.Present[from] {
			continue
		}
		path := idx.IDToPath[from]
		seen := make(map[FileID]struct{}, len(imports[from]))
		for _, imp := range imports[from] {
			to, ok := idx.PathToID[imp]
			if !ok {
				continue
			}
			if _, dup := seen[to]; dup {
				continue
			}
			seen[to] = struct{}{}
			switch {
			case int(to) == from:
				problems = append(problems, Problem{Kind: ProblemSelfImport, Path: path, Import: imp})
			case !g.Present[int(to)]:
				problems = append(problems, Problem{Kind: ProblemMissingImport, Path: path, Import: imp})
			default:
				g.Edges[from] = append(g.Edges[from], to)
				g.Indeg[int(to)]++
			}
		}
		slices.Sort(g.Edges[from])
	}
	return g, problems
}

// CycleProblems reports every file the sort could not order: the members of
// a cycle and the files only reachable through one.
func CycleProblems(idx Index, topo *Topo) []Problem {
	if !topo.Cyclic || len(topo.Cycles) == 0 {
		return nil
	}
	names := idx.names(topo.Cycles)
	problems := make([]Problem, 0, len(names))
	for _, name := range names {
		problems = append(problems, Problem{Kind: ProblemImportCycle, Path: name, Cycle: names})
	}
	return problems
}

// Report is the result of Analyze.
type Report struct {
	// Batches lists files in load order: every file's imports appear in an
	// earlier batch. Files in or below a cycle are absent.
	Batches  [][]string
	Problems []Problem
}

// Analyze builds the graph for nodes, sorts it and gathers every problem,
// ordered by path.
func Analyze(nodes []Node) Report {
	idx := BuildIndex(nodes)
	g, problems := BuildGraph(idx, nodes)
	topo := ToposortKahn(g)
	problems = append(problems, CycleProblems(idx, topo)...)
	slices.SortStableFunc(problems, func(a, b Problem) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return int(a.Kind) - int(b.Kind)
	})

	report := Report{Problems: problems}
	for i := len(topo.Batches) - 1; i >= 0; i-- {
		report.Batches = append(report.Batches, idx.names(topo.Batches[i]))
	}
	return report
}

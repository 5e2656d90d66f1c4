package dag

import (
	"fmt"
	"sort"

	"fortio.org/safecast"
)

// FileID is a dense index into an Index.
type FileID uint32

// Node is one indexed file and the files its import forms name.
type Node struct {
	Path    string
	Imports []string
}

// Index assigns ids to every path that appears in the graph, importers and
// imported files alike.
type Index struct {
	PathToID map[string]FileID
	IDToPath []string
}

// BuildIndex collects the unique paths, sorts them and numbers them in order.
func BuildIndex(nodes []Node) Index {
	uniq := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if n.Path != "" {
			uniq[n.Path] = struct{}{}
		}
		for _, imp := range n.Imports {
			if imp != "" {
				uniq[imp] = struct{}{}
			}
		}
	}

	paths := make([]string, 0, len(uniq))
	for path := range uniq {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	pathToID := make(map[string]FileID, len(paths))
	for i, path := range paths {
		pathToID[path] = mustID(i)
	}
	return Index{PathToID: pathToID, IDToPath: paths}
}

func (idx Index) names(ids []FileID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.IDToPath[int(id)]
	}
	return out
}

func mustID(i int) FileID {
	id, err := safecast.Conv[FileID](i)
	if err != nil {
		panic(fmt.Errorf("file id overflow: %w", err))
	}
	return id
}

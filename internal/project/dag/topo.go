package dag

import "slices"

// Topo is the result of Kahn's algorithm over a Graph.
type Topo struct {
	Order   []FileID   // linear order, present files only
	Batches [][]FileID // waves of files whose imports are all earlier
	Cyclic  bool
	Cycles  []FileID // files whose in-degree never reached zero
}

// ToposortKahn orders the present files of g so that importers come before
// the files they import. Edges point from importer to imported file, so the
// first batch holds the files nothing imports.
func ToposortKahn(g Graph) *Topo {
	count := len(g.Edges)
	indeg := slices.Clone(g.Indeg)

	topo := &Topo{Order: make([]FileID, 0, count)}

	active := 0
	current := make([]FileID, 0, count)
	for i := range count {
		if !g.Present[i] {
			continue
		}
		active++
		if indeg[i] == 0 {
			current = append(current, mustID(i))
		}
	}

	for len(current) > 0 {
		batch := slices.Clone(current)
		topo.Batches = append(topo.Batches, batch)

		var next []FileID
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			for _, to := range g.Edges[int(id)] {
				indeg[int(to)]--
				if indeg[int(to)] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if len(topo.Order) != active {
		topo.Cyclic = true
		for i := range count {
			if g.Present[i] && indeg[i] > 0 {
				topo.Cycles = append(topo.Cycles, mustID(i))
			}
		}
	}
	return topo
}

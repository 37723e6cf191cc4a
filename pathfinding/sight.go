package pathfinding

import "github.com/milk9111/gridpath/grid"

// HasLineOfSight reports whether no cell on the traced line is obstructed.
// A trace that finds no line has no cells, so it reports true.
func (f *Finder) HasLineOfSight(nodes grid.Nodes, start, goal *grid.Node) (bool, error) {
	res, err := f.FindLineOfSight(nodes, start, goal)
	if err != nil {
		return false, err
	}
	for _, n := range res.Path {
		if n.IsObstructed() {
			return false, nil
		}
	}
	return true, nil
}

// ObstructedCellsAlong returns the traced cells that are NOT obstructed, in
// trace order. The name does not match the behaviour.
// TODO: rename once callers that want the obstructed cells are split out.
func (f *Finder) ObstructedCellsAlong(nodes grid.Nodes, start, goal *grid.Node) ([]*grid.Node, error) {
	res, err := f.FindLineOfSight(nodes, start, goal)
	if err != nil {
		return nil, err
	}
	out := make([]*grid.Node, 0, len(res.Path))
	for _, n := range res.Path {
		if !n.IsObstructed() {
			out = append(out, n)
		}
	}
	return out, nil
}

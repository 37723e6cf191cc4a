package pathfinding

import "github.com/milk9111/gridpath/grid"

type openItem struct {
	coord grid.Coord
	f     float64
	seq   int
	index int
}

// openSet orders by f, then by the order nodes were opened.
type openSet []*openItem

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	if o[i].f == o[j].f {
		return o[i].seq < o[j].seq
	}
	return o[i].f < o[j].f
}
func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}
func (o *openSet) Push(x any) {
	item := x.(*openItem)
	item.index = len(*o)
	*o = append(*o, item)
}
func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*o = old[:n-1]
	return item
}

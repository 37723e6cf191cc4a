package physics

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/gridpath/common"
	"github.com/milk9111/gridpath/grid"
)

// shrink keeps neighbouring boxes that only share an edge out of a cell query.
const shrink = 0.001

// Source reads walkability from the static shapes in the space rather than
// from the level layers.
type Source struct {
	world *World
}

func (w *World) Source() *Source {
	return &Source{world: w}
}

func (s *Source) Bounds() grid.Bounds {
	return s.world.level.Bounds()
}

func (s *Source) Cell(c grid.Coord) (bool, common.Vec3) {
	size := s.world.level.CellSize()
	x0 := float64(c.X) * size
	y0 := float64(c.Y) * size
	bb := cp.BB{L: x0 + shrink, B: y0 + shrink, R: x0 + size - shrink, T: y0 + size - shrink}

	blocked := false
	s.world.space.BBQuery(bb, tileFilter, func(shape *cp.Shape, data interface{}) {
		blocked = true
	}, nil)
	return !blocked, s.world.level.Anchor(c)
}

package physics

import (
	"errors"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/gridpath/common"
	"github.com/milk9111/gridpath/levels"
)

var ErrNilLevel = errors.New("physics: nil level")

const (
	categoryTile uint = 1 << iota
	categoryBoundary
	categoryUnit
)

var tileFilter = cp.NewShapeFilter(cp.NO_GROUP, cp.ALL_CATEGORIES, categoryTile)

// World owns the Chipmunk space and the static shapes of a level.
type World struct {
	level *levels.Level
	space *cp.Space
}

func NewWorld(level *levels.Level) (*World, error) {
	if level == nil {
		return nil, ErrNilLevel
	}
	space := cp.NewSpace()
	space.Iterations = 10

	w := &World{level: level, space: space}
	w.buildStaticShapes()
	return w, nil
}

func (w *World) Space() *cp.Space {
	if w == nil {
		return nil
	}
	return w.space
}

func (w *World) Level() *levels.Level {
	return w.level
}

func (w *World) Step(dt float64) {
	if w == nil || w.space == nil {
		return
	}
	w.space.Step(dt)
}

// RayBlocked reports whether a straight segment between two world points
// touches a solid tile.
func (w *World) RayBlocked(a, b common.Vec3) bool {
	info := w.space.SegmentQueryFirst(cp.Vector{X: a.X, Y: a.Y}, cp.Vector{X: b.X, Y: b.Y}, 0, tileFilter)
	return info.Shape != nil
}

func (w *World) buildStaticShapes() {
	for i, layer := range w.level.Layers {
		if !w.level.IsPhysicsLayer(i) || len(layer) != w.level.Width*w.level.Height {
			continue
		}
		w.processLayerTiles(layer)
	}

	size := w.level.CellSize()
	worldW := float64(w.level.Width) * size
	worldH := float64(w.level.Height) * size
	segments := []struct {
		a cp.Vector
		b cp.Vector
	}{
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: worldW, Y: 0}},
		{a: cp.Vector{X: 0, Y: worldH}, b: cp.Vector{X: worldW, Y: worldH}},
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: 0, Y: worldH}},
		{a: cp.Vector{X: worldW, Y: 0}, b: cp.Vector{X: worldW, Y: worldH}},
	}
	for _, seg := range segments {
		shape := cp.NewSegment(w.space.StaticBody, seg.a, seg.b, 1)
		shape.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, categoryBoundary, cp.ALL_CATEGORIES))
		w.space.AddShape(shape)
	}
}

// processLayerTiles merges runs of solid tiles into as few boxes as it can,
// growing each box right first and then down.
func (w *World) processLayerTiles(layer []int) {
	width, height := w.level.Width, w.level.Height
	size := w.level.CellSize()
	processed := make([]bool, width*height)
	solid := func(idx int) bool {
		return !processed[idx] && layer[idx] != 0
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			if !solid(idx) {
				processed[idx] = true
				continue
			}

			wTiles := 1
			for x+wTiles < width && solid(y*width+x+wTiles) {
				wTiles++
			}

			hTiles := 1
		heightLoop:
			for y+hTiles < height {
				for xi := x; xi < x+wTiles; xi++ {
					if !solid((y+hTiles)*width + xi) {
						break heightLoop
					}
				}
				hTiles++
			}

			x0 := float64(x) * size
			y0 := float64(y) * size
			bb := cp.BB{L: x0, B: y0, R: x0 + float64(wTiles)*size, T: y0 + float64(hTiles)*size}
			shape := cp.NewBox2(w.space.StaticBody, bb, 0)
			shape.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, categoryTile, cp.ALL_CATEGORIES))
			w.space.AddShape(shape)

			for yy := y; yy < y+hTiles; yy++ {
				for xx := x; xx < x+wTiles; xx++ {
					processed[yy*width+xx] = true
				}
			}
		}
	}
}

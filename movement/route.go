package movement

import (
	"errors"
	"fmt"
	"log"

	"github.com/milk9111/gridpath/common"
	"github.com/milk9111/gridpath/grid"
)

var (
	ErrEmptyPath  = errors.New("movement: path is empty")
	ErrBrokenPath = errors.New("movement: path contains a nil node")
)

// Unit is anything the coordinator can place in the world.
type Unit interface {
	SetPosition(p common.Vec3)
}

// Route is a resolved path handed to playback. It references the grid
// nodes, it does not copy them.
type Route struct {
	Unit  Unit
	Grid  *grid.Grid
	Path  []*grid.Node
	Start *grid.Node
	End   *grid.Node
	Cost  int
}

func NewRoute(unit Unit, path []*grid.Node, g *grid.Grid) (*Route, error) {
	return NewRouteWithLogger(log.Default(), unit, path, g)
}

func NewRouteWithLogger(logger *log.Logger, unit Unit, path []*grid.Node, g *grid.Grid) (*Route, error) {
	if logger == nil {
		logger = log.Default()
	}
	if len(path) == 0 {
		logger.Printf("movement: cannot build a route from an empty path")
		return nil, ErrEmptyPath
	}
	for i, n := range path {
		if n == nil {
			logger.Printf("movement: path element %d is nil", i)
			return nil, fmt.Errorf("%w at index %d", ErrBrokenPath, i)
		}
	}

	return &Route{
		Unit:  unit,
		Grid:  g,
		Path:  path,
		Start: path[0],
		End:   path[len(path)-1],
		Cost:  len(path),
	}, nil
}

// Segments is the number of node-to-node moves in the route.
func (r *Route) Segments() int {
	if r == nil || len(r.Path) == 0 {
		return 0
	}
	return len(r.Path) - 1
}

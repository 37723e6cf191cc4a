package grid

import (
	"fmt"
	"math"
)

// Coord identifies one cell of a grid.
type Coord struct {
	X int
	Y int
}

var (
	Up    = Coord{X: 0, Y: 1}
	Down  = Coord{X: 0, Y: -1}
	Left  = Coord{X: -1, Y: 0}
	Right = Coord{X: 1, Y: 0}
)

// Cardinal lists the four axis-aligned steps.
var Cardinal = []Coord{Up, Down, Left, Right}

// Diagonal lists the four intercardinal steps.
var Diagonal = []Coord{
	{X: -1, Y: -1},
	{X: -1, Y: 1},
	{X: 1, Y: -1},
	{X: 1, Y: 1},
}

// AllDirections is Cardinal followed by Diagonal.
var AllDirections = append(append([]Coord(nil), Cardinal...), Diagonal...)

func (c Coord) Add(o Coord) Coord {
	return Coord{X: c.X + o.X, Y: c.Y + o.Y}
}

// Distance is the Euclidean distance between two coordinates.
func (c Coord) Distance(o Coord) float64 {
	dx := float64(c.X - o.X)
	dy := float64(c.Y - o.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

func (c Coord) Manhattan(o Coord) float64 {
	return math.Abs(float64(c.X-o.X)) + math.Abs(float64(c.Y-o.Y))
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Bounds is a rectangular block of coordinates starting at (MinX, MinY).
type Bounds struct {
	MinX   int
	MinY   int
	Width  int
	Height int
}

func (b Bounds) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

func (b Bounds) Len() int {
	if b.Empty() {
		return 0
	}
	return b.Width * b.Height
}

func (b Bounds) Contains(c Coord) bool {
	return c.X >= b.MinX && c.Y >= b.MinY && c.X < b.MinX+b.Width && c.Y < b.MinY+b.Height
}

// Each visits every coordinate in row-major order.
func (b Bounds) Each(fn func(c Coord)) {
	if b.Empty() || fn == nil {
		return
	}
	for y := b.MinY; y < b.MinY+b.Height; y++ {
		for x := b.MinX; x < b.MinX+b.Width; x++ {
			fn(Coord{X: x, Y: y})
		}
	}
}

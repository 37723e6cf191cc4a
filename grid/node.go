package grid

import (
	"math"

	"github.com/milk9111/gridpath/common"
)

// SearchState is the per-run bookkeeping a search keeps on a node.
// It is only meaningful while a search is running.
type SearchState struct {
	G         float64
	H         float64
	Parent    Coord
	HasParent bool
}

// F is the priority used to pick the next node to expand.
func (s SearchState) F() float64 {
	return s.G + s.H
}

func (s *SearchState) Reset() {
	s.G = math.Inf(1)
	s.H = 0
	s.Parent = Coord{}
	s.HasParent = false
}

// Node is one cell of a Grid.
type Node struct {
	coord    Coord
	anchor   common.Vec3
	walkable bool
	occupant any

	Search SearchState
}

func NewNode(c Coord, anchor common.Vec3, walkable bool) *Node {
	n := &Node{coord: c, anchor: anchor, walkable: walkable}
	n.Search.Reset()
	return n
}

func (n *Node) Coord() Coord {
	return n.coord
}

// Anchor is the world-space point of the cell.
func (n *Node) Anchor() common.Vec3 {
	return n.anchor
}

func (n *Node) Walkable() bool {
	return n.walkable
}

func (n *Node) SetWalkable(walkable bool) {
	n.walkable = walkable
}

func (n *Node) IsObstructed() bool {
	return !n.walkable
}

// Occupy records the entity standing in the cell. The node does not own it.
func (n *Node) Occupy(occupant any) {
	n.occupant = occupant
}

func (n *Node) Vacate() {
	n.occupant = nil
}

func (n *Node) Occupant() any {
	return n.occupant
}

func (n *Node) IsOccupied() bool {
	return n.occupant != nil
}

// Nodes maps every coordinate of a grid to its node.
type Nodes map[Coord]*Node

// ResetSearch clears the bookkeeping of every node in the mapping.
func (ns Nodes) ResetSearch() {
	for _, n := range ns {
		n.Search.Reset()
	}
}

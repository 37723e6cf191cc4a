package pathfinding

import (
	"container/heap"
	"errors"
	"fmt"
	"log"

	"github.com/milk9111/gridpath/grid"
)

var (
	ErrEmptyGrid   = errors.New("pathfinding: node mapping is empty")
	ErrNilNode     = errors.New("pathfinding: nil start or goal node")
	ErrUnknownNode = errors.New("pathfinding: node is not part of the mapping")
	ErrBadPolicy   = errors.New("pathfinding: policy has no directions or step cost")
)

// Policy decides how a search expands from a node.
type Policy struct {
	Name            string
	Directions      []grid.Coord
	RequireWalkable bool
	StepCost        func(from, to grid.Coord) float64
}

// PathPolicy plans walkable routes with cardinal steps.
var PathPolicy = Policy{
	Name:            "path",
	Directions:      grid.Cardinal,
	RequireWalkable: true,
	StepCost: func(from, to grid.Coord) float64 {
		return from.Distance(to)
	},
}

// SightPolicy traces a line through every kind of cell, diagonals included.
var SightPolicy = Policy{
	Name:       "line of sight",
	Directions: grid.AllDirections,
	StepCost: func(from, to grid.Coord) float64 {
		return 1
	},
}

// Result contains the outcome of a search.
type Result struct {
	Path     []*grid.Node
	Cost     float64
	Expanded int
	Found    bool
}

// Finder runs searches over a node mapping. It keeps no state between calls,
// but searches share the bookkeeping stored on the nodes, so calls against the
// same mapping must not run concurrently.
type Finder struct {
	logger *log.Logger
}

func NewFinder(logger *log.Logger) *Finder {
	if logger == nil {
		logger = log.Default()
	}
	return &Finder{logger: logger}
}

func (f *Finder) log() *log.Logger {
	if f == nil || f.logger == nil {
		return log.Default()
	}
	return f.logger
}

// FindPath returns the cheapest cardinal route over walkable cells.
// A missing route is reported with Found == false and a nil error.
func (f *Finder) FindPath(nodes grid.Nodes, start, goal *grid.Node) (Result, error) {
	return f.Search(PathPolicy, nodes, start, goal)
}

// FindLineOfSight traces the cells between start and goal, obstructed ones included.
func (f *Finder) FindLineOfSight(nodes grid.Nodes, start, goal *grid.Node) (Result, error) {
	return f.Search(SightPolicy, nodes, start, goal)
}

// Search runs A* from start to goal using the expansion rules of policy.
// All node bookkeeping in the mapping is reset before the run starts.
func (f *Finder) Search(policy Policy, nodes grid.Nodes, start, goal *grid.Node) (Result, error) {
	startNode, goalNode, err := f.resolve(policy, nodes, start, goal)
	if err != nil {
		return Result{}, err
	}

	nodes.ResetSearch()

	open := &openSet{}
	heap.Init(open)
	opened := make(map[grid.Coord]*openItem)
	closed := make(map[grid.Coord]bool)
	seq := 0
	push := func(n *grid.Node) {
		item := &openItem{coord: n.Coord(), f: n.Search.F(), seq: seq}
		seq++
		heap.Push(open, item)
		opened[item.coord] = item
	}

	goalCoord := goalNode.Coord()
	startNode.Search.G = 0
	startNode.Search.H = startNode.Coord().Manhattan(goalCoord)
	push(startNode)

	expanded := 0
	for open.Len() > 0 {
		item := heap.Pop(open).(*openItem)
		delete(opened, item.coord)
		closed[item.coord] = true
		expanded++

		current := nodes[item.coord]
		if item.coord == goalCoord {
			path := f.reconstruct(nodes, startNode.Coord(), goalCoord)
			if path == nil {
				return Result{Expanded: expanded}, nil
			}
			return Result{
				Path:     path,
				Cost:     current.Search.G,
				Expanded: expanded,
				Found:    true,
			}, nil
		}

		for _, d := range policy.Directions {
			nc := item.coord.Add(d)
			neighbor, ok := nodes[nc]
			if !ok || closed[nc] {
				continue
			}
			if policy.RequireWalkable && !neighbor.Walkable() {
				continue
			}

			tentative := current.Search.G + policy.StepCost(item.coord, nc)
			if tentative >= neighbor.Search.G {
				continue
			}
			neighbor.Search.G = tentative
			neighbor.Search.H = nc.Manhattan(goalCoord)
			neighbor.Search.Parent = item.coord
			neighbor.Search.HasParent = true

			if existing, ok := opened[nc]; ok {
				existing.f = neighbor.Search.F()
				heap.Fix(open, existing.index)
			} else {
				push(neighbor)
			}
		}
	}

	f.log().Printf("pathfinding: no %s found from %v to %v", policy.Name, startNode.Coord(), goalCoord)
	return Result{Expanded: expanded}, nil
}

func (f *Finder) resolve(policy Policy, nodes grid.Nodes, start, goal *grid.Node) (*grid.Node, *grid.Node, error) {
	if policy.StepCost == nil || len(policy.Directions) == 0 {
		f.log().Printf("pathfinding: policy %q cannot expand nodes", policy.Name)
		return nil, nil, ErrBadPolicy
	}
	if len(nodes) == 0 {
		f.log().Printf("pathfinding: %s requested on an empty node mapping", policy.Name)
		return nil, nil, ErrEmptyGrid
	}
	if start == nil || goal == nil {
		f.log().Printf("pathfinding: %s requested with a nil node", policy.Name)
		return nil, nil, ErrNilNode
	}
	startNode, ok := nodes[start.Coord()]
	if !ok {
		f.log().Printf("pathfinding: start %v is not in the mapping", start.Coord())
		return nil, nil, fmt.Errorf("start %v: %w", start.Coord(), ErrUnknownNode)
	}
	goalNode, ok := nodes[goal.Coord()]
	if !ok {
		f.log().Printf("pathfinding: goal %v is not in the mapping", goal.Coord())
		return nil, nil, fmt.Errorf("goal %v: %w", goal.Coord(), ErrUnknownNode)
	}
	return startNode, goalNode, nil
}

// reconstruct follows parent links from goal back to start.
func (f *Finder) reconstruct(nodes grid.Nodes, start, goal grid.Coord) []*grid.Node {
	path := make([]*grid.Node, 0, 32)
	current := goal
	for steps := 0; steps <= len(nodes); steps++ {
		n, ok := nodes[current]
		if !ok {
			break
		}
		path = append(path, n)
		if current == start {
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}
		if !n.Search.HasParent {
			break
		}
		current = n.Search.Parent
	}
	f.log().Printf("pathfinding: broken parent chain from %v to %v", goal, start)
	return nil
}

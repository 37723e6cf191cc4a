package grid

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/milk9111/gridpath/common"
)

var (
	ErrNilSource   = errors.New("grid: nil source")
	ErrEmptyBounds = errors.New("grid: source bounds are empty")
	ErrTooFewNodes = errors.New("grid: not enough nodes")
)

// Source describes a map the grid is built from.
type Source interface {
	Bounds() Bounds
	// Cell reports whether c may be entered and where it sits in world space.
	Cell(c Coord) (walkable bool, anchor common.Vec3)
}

// Grid owns the nodes of one map.
type Grid struct {
	nodes  Nodes
	keys   []Coord
	bounds Bounds
	rng    *rand.Rand
	logger *log.Logger
}

type options struct {
	rng    *rand.Rand
	logger *log.Logger
}

// Option configures Build.
type Option func(*options)

// WithRand sets the random source used by SampleRandomPair.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rng = r }
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Build creates one node for every coordinate inside the source bounds.
func Build(src Source, opts ...Option) (*Grid, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if src == nil {
		o.logger.Printf("grid: build called without a source")
		return nil, ErrNilSource
	}
	bounds := src.Bounds()
	if bounds.Empty() {
		o.logger.Printf("grid: source bounds %dx%d are empty", bounds.Width, bounds.Height)
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyBounds, bounds.Width, bounds.Height)
	}

	g := &Grid{
		nodes:  make(Nodes, bounds.Len()),
		keys:   make([]Coord, 0, bounds.Len()),
		bounds: bounds,
		rng:    o.rng,
		logger: o.logger,
	}
	bounds.Each(func(c Coord) {
		walkable, anchor := src.Cell(c)
		g.nodes[c] = NewNode(c, anchor, walkable)
		g.keys = append(g.keys, c)
	})
	return g, nil
}

// Nodes returns the grid mapping. Entries are shared, not copied.
func (g *Grid) Nodes() Nodes {
	if g == nil {
		return nil
	}
	return g.nodes
}

func (g *Grid) Node(c Coord) (*Node, bool) {
	if g == nil {
		return nil, false
	}
	n, ok := g.nodes[c]
	return n, ok
}

func (g *Grid) Len() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

func (g *Grid) Bounds() Bounds {
	if g == nil {
		return Bounds{}
	}
	return g.bounds
}

// WalkableNodes returns the walkable nodes in row-major order.
func (g *Grid) WalkableNodes() []*Node {
	if g == nil {
		return nil
	}
	out := make([]*Node, 0, len(g.keys))
	for _, c := range g.keys {
		if n := g.nodes[c]; n.Walkable() {
			out = append(out, n)
		}
	}
	return out
}

// SampleRandomPair picks two nodes with different coordinates uniformly at random.
func (g *Grid) SampleRandomPair() (*Node, *Node, error) {
	if g == nil || len(g.nodes) < 2 {
		n := g.Len()
		if g != nil {
			g.logger.Printf("grid: cannot sample a pair from %d nodes", n)
		}
		return nil, nil, fmt.Errorf("%w: have %d, need 2", ErrTooFewNodes, n)
	}

	// keys is row-major, so a seeded rng gives the same pairs on every run.
	i := g.rng.Intn(len(g.keys))
	j := g.rng.Intn(len(g.keys))
	for j == i {
		j = g.rng.Intn(len(g.keys))
	}
	return g.nodes[g.keys[i]], g.nodes[g.keys[j]], nil
}

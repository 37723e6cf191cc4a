// Package session wires a grid, a finder and a movement scheduler together for
// one map and one unit. Both hosts drive it once per frame.
package session

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/milk9111/gridpath/common"
	"github.com/milk9111/gridpath/grid"
	"github.com/milk9111/gridpath/levels"
	"github.com/milk9111/gridpath/movement"
	"github.com/milk9111/gridpath/pathfinding"
	"github.com/milk9111/gridpath/physics"
)

var ErrNotLoaded = errors.New("session: nothing loaded")

type Config struct {
	Level           string
	Physics         bool
	Seed            int64
	SegmentDuration time.Duration
	UnitSize        float64
	LineOfSight     bool
}

// Sight is the line-of-sight trace between the last route's endpoints.
type Sight struct {
	Trace   []*grid.Node
	Visible []*grid.Node
	Clear   bool

	// RayBlocked is set when physics is on and a straight ray between the
	// endpoint anchors hits a tile.
	RayBlocked bool
}

// Unit is a movement.Unit whose position can be read back for drawing.
type Unit interface {
	movement.Unit
	Position() common.Vec3
}

// Marker is a unit with no body, used when physics is off.
type Marker struct {
	pos common.Vec3
}

func (m *Marker) SetPosition(p common.Vec3) { m.pos = p }

func (m *Marker) Position() common.Vec3 { return m.pos }

type Session struct {
	cfg    Config
	logger *log.Logger
	rng    *rand.Rand
	source grid.Source
	onStep func(index int, node *grid.Node)

	level     *levels.Level
	world     *physics.World
	grid      *grid.Grid
	finder    *pathfinding.Finder
	scheduler *movement.Scheduler
	unit      Unit
	occupied  *grid.Node

	active *movement.Coordinator
	route  *movement.Route
	sight  *Sight
	last   pathfinding.Result
}

type Option func(*Session)

func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource builds the grid from src instead of loading cfg.Level.
func WithSource(src grid.Source) Option {
	return func(s *Session) { s.source = src }
}

// WithStepListener is called every time the unit reaches a node.
func WithStepListener(fn func(index int, node *grid.Node)) Option {
	return func(s *Session) { s.onStep = fn }
}

func New(cfg Config, opts ...Option) (*Session, error) {
	s := &Session{cfg: cfg, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s.rng = rand.New(rand.NewSource(seed))
	s.finder = pathfinding.NewFinder(s.logger)

	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load (re)builds the grid from the configured source. Any route in flight is
// canceled.
func (s *Session) Load() error {
	src := s.source
	var level *levels.Level
	var world *physics.World
	if src == nil {
		lvl, err := levels.LoadLevel(s.cfg.Level)
		if err != nil {
			return err
		}
		level = lvl
		if s.cfg.Physics {
			world, err = physics.NewWorld(lvl)
			if err != nil {
				return err
			}
			src = world.Source()
		} else {
			src, err = levels.NewSource(lvl, s.logger)
			if err != nil {
				return err
			}
		}
	}

	g, err := grid.Build(src, grid.WithLogger(s.logger), grid.WithRand(s.rng))
	if err != nil {
		return fmt.Errorf("session: build grid: %w", err)
	}

	s.Cancel()
	s.level = level
	s.world = world
	s.grid = g
	s.scheduler = movement.NewScheduler()
	s.active = nil
	s.route = nil
	s.sight = nil
	s.last = pathfinding.Result{}
	s.occupied = nil

	home := firstWalkable(g)
	var pos common.Vec3
	if home != nil {
		pos = home.Anchor()
	}
	if world != nil {
		s.unit = world.AddUnit(pos, s.unitSize())
	} else {
		s.unit = &Marker{}
	}
	s.unit.SetPosition(pos)
	s.occupy(home)
	return nil
}

// TestMovement picks two random nodes and sends the unit between them.
func (s *Session) TestMovement() error {
	if s.grid == nil {
		return ErrNotLoaded
	}
	start, goal, err := s.grid.SampleRandomPair()
	if err != nil {
		return err
	}
	return s.MoveTo(start, goal)
}

// MoveTo routes the unit from start to goal. Finding no path is not an error;
// any route in flight is canceled, the unit stays put and Route returns nil.
func (s *Session) MoveTo(start, goal *grid.Node) error {
	if s.grid == nil {
		return ErrNotLoaded
	}
	res, err := s.finder.FindPath(s.grid.Nodes(), start, goal)
	if err != nil {
		return err
	}
	s.last = res
	if s.cfg.LineOfSight {
		s.sight = s.lineOfSight(start, goal)
	}
	if !res.Found {
		s.Cancel()
		s.active = nil
		s.route = nil
		return nil
	}

	route, err := movement.NewRouteWithLogger(s.logger, s.unit, res.Path, s.grid)
	if err != nil {
		return err
	}
	s.Cancel()
	s.occupy(route.Start)

	c := movement.NewCoordinator(route,
		movement.WithSegmentDuration(s.cfg.SegmentDuration),
		movement.WithLogger(s.logger),
		movement.WithSegmentDone(func(index int, node *grid.Node) {
			if index == route.Segments()-1 {
				s.occupy(route.End)
			}
			if s.onStep != nil {
				s.onStep(index, node)
			}
		}),
	)
	s.scheduler.Add(c)
	s.active = c
	s.route = route
	return nil
}

// Cancel stops the route in flight, leaving the unit where it is.
func (s *Session) Cancel() {
	if s.active != nil {
		s.active.Cancel()
	}
}

// Update advances movement by dt.
func (s *Session) Update(dt time.Duration) {
	if s.scheduler == nil {
		return
	}
	s.scheduler.Update(dt)
	if s.world != nil {
		s.world.Step(dt.Seconds())
	}
}

// Busy reports whether a route is still playing.
func (s *Session) Busy() bool {
	return s.active != nil && s.active.Status() == movement.Running
}

func (s *Session) lineOfSight(start, goal *grid.Node) *Sight {
	nodes := s.grid.Nodes()
	trace, err := s.finder.FindLineOfSight(nodes, start, goal)
	if err != nil {
		return nil
	}
	visible, err := s.finder.ObstructedCellsAlong(nodes, start, goal)
	if err != nil {
		return nil
	}
	ok, err := s.finder.HasLineOfSight(nodes, start, goal)
	if err != nil {
		return nil
	}
	sight := &Sight{Trace: trace.Path, Visible: visible, Clear: ok}
	if s.world != nil {
		sight.RayBlocked = s.world.RayBlocked(start.Anchor(), goal.Anchor())
	}
	return sight
}

func (s *Session) occupy(n *grid.Node) {
	if s.occupied != nil && s.occupied.Occupant() == s.unit {
		s.occupied.Vacate()
	}
	s.occupied = n
	if n != nil {
		n.Occupy(s.unit)
	}
}

func (s *Session) unitSize() float64 {
	if s.cfg.UnitSize > 0 {
		return s.cfg.UnitSize
	}
	return s.CellSize() / 2
}

func (s *Session) Grid() *grid.Grid { return s.grid }

// Level is nil when the session was built from a custom source.
func (s *Session) Level() *levels.Level { return s.level }

// World is nil unless physics is on.
func (s *Session) World() *physics.World { return s.world }

func (s *Session) Unit() Unit { return s.unit }

func (s *Session) UnitPosition() common.Vec3 {
	if s.unit == nil {
		return common.Vec3{}
	}
	return s.unit.Position()
}

// Occupied is the node the unit currently holds.
func (s *Session) Occupied() *grid.Node { return s.occupied }

func (s *Session) Route() *movement.Route { return s.route }

func (s *Session) Active() *movement.Coordinator { return s.active }

func (s *Session) Sight() *Sight { return s.sight }

func (s *Session) LastResult() pathfinding.Result { return s.last }

func (s *Session) Config() Config { return s.cfg }

func (s *Session) SetLineOfSight(on bool) {
	s.cfg.LineOfSight = on
	if !on {
		s.sight = nil
	}
}

// CellSize is the world size of one grid cell.
func (s *Session) CellSize() float64 {
	if s.level != nil {
		return s.level.CellSize()
	}
	if ts, ok := s.source.(grid.TextSource); ok && ts.CellSize > 0 {
		return ts.CellSize
	}
	return common.TileSize
}

func firstWalkable(g *grid.Grid) *grid.Node {
	walkable := g.WalkableNodes()
	if len(walkable) == 0 {
		return nil
	}
	return walkable[0]
}

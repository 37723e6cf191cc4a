package movement

import (
	"log"
	"time"

	"github.com/milk9111/gridpath/common"
	"github.com/milk9111/gridpath/grid"
)

// DefaultSegmentDuration is how long one node-to-node move takes.
const DefaultSegmentDuration = 500 * time.Millisecond

type Status int

const (
	Running Status = iota
	Done
	Canceled
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Done:
		return "done"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Task is a resumable unit of work stepped once per tick.
type Task interface {
	Step(dt time.Duration) Status
}

// Coordinator plays a route back one segment at a time.
type Coordinator struct {
	route       *Route
	duration    time.Duration
	logger      *log.Logger
	segmentDone func(index int, node *grid.Node)

	started  bool
	canceled bool
	status   Status
	segment  int
	elapsed  time.Duration
	position common.Vec3
}

type CoordinatorOption func(*Coordinator)

func WithSegmentDuration(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.duration = d
		}
	}
}

func WithLogger(l *log.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSegmentDone registers a callback run after each segment clamps to its end node.
func WithSegmentDone(fn func(index int, node *grid.Node)) CoordinatorOption {
	return func(c *Coordinator) { c.segmentDone = fn }
}

func NewCoordinator(route *Route, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		route:    route,
		duration: DefaultSegmentDuration,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Step advances playback by dt. The first call places the unit on the start
// node. A segment that reaches its duration clamps to its end node and the next
// segment begins on the following call; leftover time is dropped.
func (c *Coordinator) Step(dt time.Duration) Status {
	if c.status != Running {
		return c.status
	}
	if c.canceled {
		c.status = Canceled
		return c.status
	}

	if !c.started {
		c.started = true
		if c.route == nil || c.route.Unit == nil {
			c.logger.Printf("movement: no unit to move")
			c.status = Done
			return c.status
		}
		c.place(c.route.Start.Anchor())
	}
	if c.segment >= c.route.Segments() {
		c.status = Done
		return c.status
	}

	if dt > 0 {
		c.elapsed += dt
	}
	from := c.route.Path[c.segment]
	to := c.route.Path[c.segment+1]

	if c.elapsed >= c.duration {
		c.place(to.Anchor())
		if c.segmentDone != nil {
			c.segmentDone(c.segment, to)
		}
		c.segment++
		c.elapsed = 0
		if c.segment >= c.route.Segments() {
			c.status = Done
		}
		return c.status
	}

	t := float64(c.elapsed) / float64(c.duration)
	c.place(common.LerpVec3(from.Anchor(), to.Anchor(), t))
	return Running
}

// Cancel stops playback at the next Step. The unit stays where it is.
func (c *Coordinator) Cancel() {
	if c.status == Running {
		c.canceled = true
	}
}

func (c *Coordinator) Status() Status {
	return c.status
}

// Segment is the index of the segment currently playing.
func (c *Coordinator) Segment() int {
	return c.segment
}

func (c *Coordinator) Position() common.Vec3 {
	return c.position
}

func (c *Coordinator) Route() *Route {
	return c.route
}

func (c *Coordinator) place(p common.Vec3) {
	c.position = p
	c.route.Unit.SetPosition(p)
}

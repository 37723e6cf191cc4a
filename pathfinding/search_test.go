package pathfinding

import (
	"bytes"
	"errors"
	"io"
	"log"
	"math/rand"
	"strings"
	"testing"

	"github.com/milk9111/gridpath/common"
	"github.com/milk9111/gridpath/grid"
)

func mustGrid(t *testing.T, rows ...string) *grid.Grid {
	t.Helper()
	g, err := grid.Build(grid.TextSource{Rows: rows, CellSize: 1}, grid.WithLogger(log.New(io.Discard, "", 0)))
	if err != nil {
		t.Fatalf("grid.Build: %v", err)
	}
	return g
}

func mustNode(t *testing.T, g *grid.Grid, x, y int) *grid.Node {
	t.Helper()
	n, ok := g.Node(grid.Coord{X: x, Y: y})
	if !ok {
		t.Fatalf("no node at (%d,%d)", x, y)
	}
	return n
}

func quietFinder() *Finder {
	return NewFinder(log.New(io.Discard, "", 0))
}

func coords(path []*grid.Node) []grid.Coord {
	out := make([]grid.Coord, 0, len(path))
	for _, n := range path {
		out = append(out, n.Coord())
	}
	return out
}

// checkCardinalPath verifies a path starts and ends where expected, moves one
// cardinal step at a time and never revisits a coordinate.
func checkCardinalPath(t *testing.T, path []*grid.Node, start, goal grid.Coord) {
	t.Helper()
	if len(path) == 0 {
		t.Fatalf("empty path")
	}
	if path[0].Coord() != start {
		t.Fatalf("path starts at %v, want %v", path[0].Coord(), start)
	}
	if path[len(path)-1].Coord() != goal {
		t.Fatalf("path ends at %v, want %v", path[len(path)-1].Coord(), goal)
	}
	seen := map[grid.Coord]bool{}
	for i, n := range path {
		if seen[n.Coord()] {
			t.Fatalf("coordinate %v visited twice", n.Coord())
		}
		seen[n.Coord()] = true
		if !n.Walkable() {
			t.Fatalf("path enters unwalkable cell %v", n.Coord())
		}
		if i > 0 && path[i-1].Coord().Manhattan(n.Coord()) != 1 {
			t.Fatalf("non-cardinal step %v -> %v", path[i-1].Coord(), n.Coord())
		}
	}
}

func TestFindPath(t *testing.T) {
	cases := []struct {
		name    string
		rows    []string
		start   grid.Coord
		goal    grid.Coord
		found   bool
		length  int
		avoided []grid.Coord
	}{
		{
			name:   "open_3x3_corner_to_corner",
			rows:   []string{"...", "...", "..."},
			start:  grid.Coord{X: 0, Y: 0},
			goal:   grid.Coord{X: 2, Y: 2},
			found:  true,
			length: 5,
		},
		{
			name:    "routes_around_centre",
			rows:    []string{"...", ".#.", "..."},
			start:   grid.Coord{X: 0, Y: 0},
			goal:    grid.Coord{X: 2, Y: 2},
			found:   true,
			length:  5,
			avoided: []grid.Coord{{X: 1, Y: 1}},
		},
		{
			name:   "detour_through_gap",
			rows:   []string{".#...", ".#.#.", "...#."},
			start:  grid.Coord{X: 0, Y: 0},
			goal:   grid.Coord{X: 4, Y: 0},
			found:  true,
			length: 9,
		},
		{
			name:  "wall_blocks_goal",
			rows:  []string{"..#.", "..#.", "..#."},
			start: grid.Coord{X: 0, Y: 0},
			goal:  grid.Coord{X: 3, Y: 0},
			found: false,
		},
		{
			name:  "unwalkable_goal",
			rows:  []string{"..#"},
			start: grid.Coord{X: 0, Y: 0},
			goal:  grid.Coord{X: 2, Y: 0},
			found: false,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := mustGrid(t, c.rows...)
			start := mustNode(t, g, c.start.X, c.start.Y)
			goal := mustNode(t, g, c.goal.X, c.goal.Y)

			res, err := quietFinder().FindPath(g.Nodes(), start, goal)
			if err != nil {
				t.Fatalf("FindPath: %v", err)
			}
			if res.Found != c.found {
				t.Fatalf("Found = %v, want %v (path %v)", res.Found, c.found, coords(res.Path))
			}
			if !c.found {
				if res.Path != nil {
					t.Fatalf("expected no partial path, got %v", coords(res.Path))
				}
				return
			}
			checkCardinalPath(t, res.Path, c.start, c.goal)
			if len(res.Path) != c.length {
				t.Fatalf("path length = %d, want %d (%v)", len(res.Path), c.length, coords(res.Path))
			}
			if res.Cost != float64(c.length-1) {
				t.Fatalf("cost = %v, want %v", res.Cost, c.length-1)
			}
			for _, a := range c.avoided {
				for _, n := range res.Path {
					if n.Coord() == a {
						t.Fatalf("path went through %v", a)
					}
				}
			}
		})
	}
}

func TestFindPathSameNode(t *testing.T) {
	g := mustGrid(t, "...", "...")
	for _, n := range g.Nodes() {
		res, err := quietFinder().FindPath(g.Nodes(), n, n)
		if err != nil {
			t.Fatalf("FindPath(%v, %v): %v", n.Coord(), n.Coord(), err)
		}
		if !res.Found || len(res.Path) != 1 || res.Path[0] != n {
			t.Fatalf("expected [%v], got %v", n.Coord(), coords(res.Path))
		}
	}
}

func TestFindPathIsIdempotent(t *testing.T) {
	g := mustGrid(t, "....#...", ".##.#.#.", "......#.", ".#####..")
	start := mustNode(t, g, 0, 0)
	goal := mustNode(t, g, 7, 0)
	f := quietFinder()

	first, err := f.FindPath(g.Nodes(), start, goal)
	if err != nil || !first.Found {
		t.Fatalf("first FindPath: found=%v err=%v", first.Found, err)
	}
	second, err := f.FindPath(g.Nodes(), start, goal)
	if err != nil || !second.Found {
		t.Fatalf("second FindPath: found=%v err=%v", second.Found, err)
	}
	a, b := coords(first.Path), coords(second.Path)
	if len(a) != len(b) {
		t.Fatalf("paths differ: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("paths differ at %d: %v vs %v", i, a, b)
		}
	}
}

func TestFindPathIgnoresStaleBookkeeping(t *testing.T) {
	g := mustGrid(t, "...", "...", "...")
	for _, n := range g.Nodes() {
		n.Search = grid.SearchState{G: -5, H: 0, Parent: grid.Coord{X: 2, Y: 2}, HasParent: true}
	}
	start := mustNode(t, g, 0, 0)
	goal := mustNode(t, g, 2, 2)

	res, err := quietFinder().FindPath(g.Nodes(), start, goal)
	if err != nil || !res.Found {
		t.Fatalf("FindPath: found=%v err=%v", res.Found, err)
	}
	checkCardinalPath(t, res.Path, start.Coord(), goal.Coord())
	if len(res.Path) != 5 {
		t.Fatalf("expected 5 nodes, got %v", coords(res.Path))
	}
}

func TestFindPathSeesGridChangesBetweenRuns(t *testing.T) {
	g := mustGrid(t, "...", "...", "...")
	start := mustNode(t, g, 0, 1)
	goal := mustNode(t, g, 2, 1)
	f := quietFinder()

	res, _ := f.FindPath(g.Nodes(), start, goal)
	if len(res.Path) != 3 {
		t.Fatalf("expected straight path, got %v", coords(res.Path))
	}

	mustNode(t, g, 1, 1).SetWalkable(false)
	res, _ = f.FindPath(g.Nodes(), start, goal)
	if !res.Found || len(res.Path) != 5 {
		t.Fatalf("expected 5 node detour, got %v", coords(res.Path))
	}
	checkCardinalPath(t, res.Path, start.Coord(), goal.Coord())
}

func TestSearchPreconditions(t *testing.T) {
	g := mustGrid(t, "..", "..")
	other := grid.NewNode(grid.Coord{X: 10, Y: 10}, common.Vec3{}, true)
	start := mustNode(t, g, 0, 0)

	cases := []struct {
		name  string
		nodes grid.Nodes
		start *grid.Node
		goal  *grid.Node
		want  error
	}{
		{"empty_mapping", grid.Nodes{}, start, start, ErrEmptyGrid},
		{"nil_mapping", nil, start, start, ErrEmptyGrid},
		{"nil_start", g.Nodes(), nil, start, ErrNilNode},
		{"nil_goal", g.Nodes(), start, nil, ErrNilNode},
		{"unknown_goal", g.Nodes(), start, other, ErrUnknownNode},
		{"unknown_start", g.Nodes(), other, start, ErrUnknownNode},
	}
	for _, c := range cases {
		for _, policy := range []Policy{PathPolicy, SightPolicy} {
			t.Run(c.name+"/"+policy.Name, func(t *testing.T) {
				var buf bytes.Buffer
				f := NewFinder(log.New(&buf, "", 0))
				res, err := f.Search(policy, c.nodes, c.start, c.goal)
				if !errors.Is(err, c.want) {
					t.Fatalf("expected %v, got %v", c.want, err)
				}
				if res.Found || res.Path != nil {
					t.Fatalf("expected empty result on precondition failure, got %+v", res)
				}
				if !strings.Contains(buf.String(), "pathfinding:") {
					t.Fatalf("expected a diagnostic, got %q", buf.String())
				}
			})
		}
	}
}

func TestSearchRejectsIncompletePolicy(t *testing.T) {
	g := mustGrid(t, "...")
	start, goal := mustNode(t, g, 0, 0), mustNode(t, g, 2, 0)
	cases := []struct {
		name   string
		policy Policy
	}{
		{"no_step_cost", Policy{Name: "no cost", Directions: grid.Cardinal}},
		{"no_directions", Policy{Name: "stuck", StepCost: PathPolicy.StepCost}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			res, err := NewFinder(log.New(&buf, "", 0)).Search(c.policy, g.Nodes(), start, goal)
			if !errors.Is(err, ErrBadPolicy) {
				t.Fatalf("expected ErrBadPolicy, got %v", err)
			}
			if res.Found || !strings.Contains(buf.String(), "pathfinding:") {
				t.Fatalf("result=%+v log=%q", res, buf.String())
			}
		})
	}
}

// randomRows returns a w x h map with roughly one wall in every three cells.
func randomRows(rng *rand.Rand, w, h int) []string {
	rows := make([]string, h)
	for y := range rows {
		row := make([]byte, w)
		for x := range row {
			row[x] = '.'
			if rng.Intn(3) == 0 {
				row[x] = '#'
			}
		}
		rows[y] = string(row)
	}
	return rows
}

// distance is a breadth-first step count over walkable cells, -1 when unreachable.
func distance(g *grid.Grid, start, goal grid.Coord) int {
	dist := map[grid.Coord]int{start: 0}
	queue := []grid.Coord{start}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == goal {
			return dist[c]
		}
		for _, d := range grid.Cardinal {
			nc := c.Add(d)
			n, ok := g.Node(nc)
			if !ok || !n.Walkable() {
				continue
			}
			if _, seen := dist[nc]; seen {
				continue
			}
			dist[nc] = dist[c] + 1
			queue = append(queue, nc)
		}
	}
	return -1
}

func TestFindPathOnRandomGrids(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	f := quietFinder()
	solved, blocked := 0, 0
	for i := 0; i < 200; i++ {
		g := mustGrid(t, randomRows(rng, 4+rng.Intn(9), 3+rng.Intn(8))...)
		walkable := g.WalkableNodes()
		if len(walkable) < 2 {
			continue
		}
		start := walkable[rng.Intn(len(walkable))]
		goal := walkable[rng.Intn(len(walkable))]

		res, err := f.FindPath(g.Nodes(), start, goal)
		if err != nil {
			t.Fatalf("grid %d: FindPath: %v", i, err)
		}
		want := distance(g, start.Coord(), goal.Coord())
		if want < 0 {
			blocked++
			if res.Found || res.Path != nil {
				t.Fatalf("grid %d: unreachable goal returned a path %v", i, coords(res.Path))
			}
			continue
		}
		solved++
		if !res.Found {
			t.Fatalf("grid %d: reachable goal %v from %v not found", i, goal.Coord(), start.Coord())
		}
		checkCardinalPath(t, res.Path, start.Coord(), goal.Coord())
		if len(res.Path) != want+1 {
			t.Fatalf("grid %d: path has %d nodes, shortest is %d", i, len(res.Path), want+1)
		}
	}
	if solved == 0 || blocked == 0 {
		t.Fatalf("seed produced solved=%d blocked=%d, want both", solved, blocked)
	}
}

func TestPreconditionFailureDoesNotTouchNodes(t *testing.T) {
	g := mustGrid(t, "..", "..")
	marked := grid.SearchState{G: 1, H: 2, Parent: grid.Coord{X: 1, Y: 1}, HasParent: true}
	for _, n := range g.Nodes() {
		n.Search = marked
	}
	other := grid.NewNode(grid.Coord{X: 9, Y: 9}, common.Vec3{}, true)
	if _, err := quietFinder().FindPath(g.Nodes(), mustNode(t, g, 0, 0), other); err == nil {
		t.Fatalf("expected an error")
	}
	for c, n := range g.Nodes() {
		if n.Search != marked {
			t.Fatalf("node %v was mutated: %+v", c, n.Search)
		}
	}
}

func TestNotFoundIsLogged(t *testing.T) {
	var buf bytes.Buffer
	g := mustGrid(t, ".#.")
	f := NewFinder(log.New(&buf, "", 0))
	res, err := f.FindPath(g.Nodes(), mustNode(t, g, 0, 0), mustNode(t, g, 2, 0))
	if err != nil {
		t.Fatalf("not-found must not be an error: %v", err)
	}
	if res.Found {
		t.Fatalf("expected no path")
	}
	if !strings.Contains(buf.String(), "no path found") {
		t.Fatalf("expected diagnostic, got %q", buf.String())
	}
}

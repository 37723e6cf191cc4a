package levels

import (
	"bytes"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/milk9111/gridpath/common"
	"github.com/milk9111/gridpath/grid"
	"github.com/milk9111/gridpath/pathfinding"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func mustLevel(t *testing.T, name string) *Level {
	t.Helper()
	lvl, err := LoadLevel(name)
	if err != nil {
		t.Fatalf("LoadLevel(%q): %v", name, err)
	}
	return lvl
}

func TestLoadEmbeddedLevels(t *testing.T) {
	for _, name := range []string{"arena", "arena.json", "levels/maze.json"} {
		t.Run(name, func(t *testing.T) {
			lvl := mustLevel(t, name)
			if lvl.Width == 0 || lvl.Height == 0 {
				t.Fatalf("empty level %+v", lvl)
			}
		})
	}
}

func TestLoadMissingLevel(t *testing.T) {
	if _, err := LoadLevel("nope.json"); err == nil {
		t.Fatalf("expected an error for a missing level")
	}
}

func TestParseRejectsBadLayers(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"short_layer", `{"width":2,"height":2,"layers":[[0,0,0]]}`},
		{"no_size", `{"width":0,"height":2,"layers":[]}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(c.data))
			if !errors.Is(err, ErrBadLevel) {
				t.Fatalf("expected ErrBadLevel, got %v", err)
			}
		})
	}
	if _, err := Parse([]byte(`{`)); err == nil {
		t.Fatalf("expected a json error")
	}
}

func TestLevelCells(t *testing.T) {
	lvl := mustLevel(t, "arena.json")
	if b := lvl.Bounds(); b.Width != 10 || b.Height != 6 {
		t.Fatalf("bounds = %+v", b)
	}

	cases := []struct {
		c        grid.Coord
		walkable bool
		tile     int
	}{
		{grid.Coord{X: 0, Y: 0}, false, 1},
		{grid.Coord{X: 1, Y: 1}, true, 5},
		{grid.Coord{X: 3, Y: 2}, false, 1},
		{grid.Coord{X: 7, Y: 3}, false, 7},
		{grid.Coord{X: 8, Y: 4}, true, 0},
		{grid.Coord{X: 20, Y: 4}, false, 0},
	}
	for _, c := range cases {
		t.Run(c.c.String(), func(t *testing.T) {
			walkable, _ := lvl.Cell(c.c)
			if walkable != c.walkable {
				t.Fatalf("walkable = %v, want %v", walkable, c.walkable)
			}
			if got := lvl.Tile(c.c.X, c.c.Y); got != c.tile {
				t.Fatalf("tile = %d, want %d", got, c.tile)
			}
		})
	}

	_, anchor := lvl.Cell(grid.Coord{X: 1, Y: 1})
	if anchor != (common.Vec3{X: 48, Y: 48}) {
		t.Fatalf("anchor = %+v, want cell centre", anchor)
	}
}

func TestLevelBuildsSearchableGrid(t *testing.T) {
	lvl := mustLevel(t, "arena")
	g, err := grid.Build(lvl, grid.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Len() != 60 {
		t.Fatalf("expected 60 nodes, got %d", g.Len())
	}

	start, _ := g.Node(grid.Coord{X: 1, Y: 1})
	goal, _ := g.Node(grid.Coord{X: 8, Y: 4})
	res, err := pathfinding.NewFinder(quietLogger()).FindPath(g.Nodes(), start, goal)
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if !res.Found {
		t.Fatalf("expected a path across the arena")
	}
	for _, n := range res.Path {
		if !n.Walkable() {
			t.Fatalf("path crosses wall at %v", n.Coord())
		}
	}
}

func TestScriptOpensDoors(t *testing.T) {
	lvl := mustLevel(t, "maze")
	door := grid.Coord{X: 3, Y: 1}
	wall := grid.Coord{X: 4, Y: 1}

	if walkable, _ := lvl.Cell(door); walkable {
		t.Fatalf("door should be solid on the physics layer")
	}

	src, err := NewSource(lvl, quietLogger())
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if _, ok := src.(*ScriptSource); !ok {
		t.Fatalf("expected a script source, got %T", src)
	}
	if walkable, _ := src.Cell(door); !walkable {
		t.Fatalf("door should be walkable through the script")
	}
	if walkable, _ := src.Cell(wall); walkable {
		t.Fatalf("wall should stay blocked")
	}
}

func TestNewSourceWithoutScript(t *testing.T) {
	lvl := mustLevel(t, "arena")
	src, err := NewSource(lvl, quietLogger())
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if src != grid.Source(lvl) {
		t.Fatalf("expected the level itself")
	}
	if _, err := NewSource(nil, quietLogger()); !errors.Is(err, ErrBadLevel) {
		t.Fatalf("expected ErrBadLevel, got %v", err)
	}
}

func TestScriptErrors(t *testing.T) {
	lvl := mustLevel(t, "arena")

	if _, err := NewScriptSource(lvl, []byte("walkable := ("), quietLogger()); err == nil {
		t.Fatalf("expected a compile error")
	}
	if _, err := NewScriptSource(lvl, []byte("w := 1"), quietLogger()); !errors.Is(err, ErrNoWalkable) {
		t.Fatalf("expected ErrNoWalkable, got %v", err)
	}

	var buf bytes.Buffer
	s, err := NewScriptSource(lvl, []byte("walkable := x / (x - 1) == 0"), log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("NewScriptSource: %v", err)
	}
	if walkable, _ := s.Cell(grid.Coord{X: 1, Y: 0}); walkable {
		t.Fatalf("a failing script should leave the cell blocked")
	}
	if !strings.Contains(buf.String(), "levels: walkable script") {
		t.Fatalf("expected a diagnostic, got %q", buf.String())
	}
}

func TestEmbeddedScriptsCompile(t *testing.T) {
	lvl := mustLevel(t, "arena")
	for _, name := range []string{"solid.tengo", "scripts/doors.tengo"} {
		t.Run(name, func(t *testing.T) {
			data, err := LoadScript(name)
			if err != nil {
				t.Fatalf("LoadScript: %v", err)
			}
			s, err := NewScriptSource(lvl, data, quietLogger())
			if err != nil {
				t.Fatalf("NewScriptSource: %v", err)
			}
			if walkable, _ := s.Cell(grid.Coord{X: 1, Y: 1}); !walkable {
				t.Fatalf("open floor should be walkable")
			}
		})
	}
}

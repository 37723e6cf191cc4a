package levels

import (
	"embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/gridpath/common"
	"github.com/milk9111/gridpath/grid"
)

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

var ErrNoWalkable = errors.New("levels: script does not set walkable")

// LoadScript reads a walkability script, preferring levels/scripts/<name> on disk.
func LoadScript(name string) ([]byte, error) {
	clean := cleanScriptPath(name)
	if data, err := os.ReadFile(filepath.Join("levels", filepath.FromSlash(clean))); err == nil {
		return data, nil
	}
	return ScriptsFS.ReadFile(clean)
}

// ScriptSource decides walkability per cell with a tengo script. The script
// sees x, y, tile and solid and must set a global named walkable.
type ScriptSource struct {
	level    *Level
	compiled *tengo.Compiled
	logger   *log.Logger
}

func NewScriptSource(level *Level, src []byte, logger *log.Logger) (*ScriptSource, error) {
	if logger == nil {
		logger = log.Default()
	}
	script := tengo.NewScript(src)
	_ = script.Add("x", 0)
	_ = script.Add("y", 0)
	_ = script.Add("tile", 0)
	_ = script.Add("solid", false)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("levels: compile script: %w", err)
	}
	s := &ScriptSource{level: level, compiled: compiled, logger: logger}

	// probe once so a script that never sets walkable fails here, not per cell
	if _, err := s.eval(grid.Coord{}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ScriptSource) Bounds() grid.Bounds {
	return s.level.Bounds()
}

// Cell treats a cell as blocked when the script fails on it.
func (s *ScriptSource) Cell(c grid.Coord) (bool, common.Vec3) {
	walkable, err := s.eval(c)
	if err != nil {
		s.logger.Printf("levels: walkable script at %v: %v", c, err)
		return false, s.level.Anchor(c)
	}
	return walkable, s.level.Anchor(c)
}

func (s *ScriptSource) eval(c grid.Coord) (bool, error) {
	vars := map[string]any{
		"x":     c.X,
		"y":     c.Y,
		"tile":  s.level.Tile(c.X, c.Y),
		"solid": s.level.Solid(c.X, c.Y),
	}
	for name, v := range vars {
		if err := s.compiled.Set(name, v); err != nil {
			return false, err
		}
	}
	if err := s.compiled.Run(); err != nil {
		return false, err
	}
	if !s.compiled.IsDefined("walkable") {
		return false, ErrNoWalkable
	}
	return s.compiled.Get("walkable").Bool(), nil
}

// NewSource picks the grid source for a level: its walkability script when it
// names one, the physics layers otherwise.
func NewSource(level *Level, logger *log.Logger) (grid.Source, error) {
	if level == nil {
		return nil, fmt.Errorf("%w: nil level", ErrBadLevel)
	}
	if level.WalkableScript == "" {
		return level, nil
	}
	src, err := LoadScript(level.WalkableScript)
	if err != nil {
		return nil, fmt.Errorf("levels: load script %s: %w", level.WalkableScript, err)
	}
	return NewScriptSource(level, src, logger)
}

func cleanScriptPath(path string) string {
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "levels/"); ok {
		s = after
	}
	if after, ok := strings.CutPrefix(s, "scripts/"); ok {
		s = after
	}
	return fmt.Sprintf("scripts/%s", s)
}

package levels

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/milk9111/gridpath/common"
	"github.com/milk9111/gridpath/grid"
)

//go:embed *.json
var LevelsFS embed.FS

var ErrBadLevel = errors.New("levels: malformed level")

// Level is a tile map. Each layer is stored row-major, Width*Height entries,
// zero meaning no tile.
type Level struct {
	Width          int         `json:"width"`
	Height         int         `json:"height"`
	TileSize       float64     `json:"tile_size,omitempty"`
	Layers         [][]int     `json:"layers"`
	LayerMeta      []LayerMeta `json:"layer_meta,omitempty"`
	WalkableScript string      `json:"walkable_script,omitempty"`
}

type LayerMeta struct {
	Physics bool `json:"physics"`
}

// Load reads a level file, preferring levels/<name> on disk over the embedded copy.
func Load(name string) ([]byte, error) {
	clean := cleanLevelPath(name)
	if data, err := os.ReadFile(filepath.Join("levels", filepath.FromSlash(clean))); err == nil {
		return data, nil
	}
	return LevelsFS.ReadFile(clean)
}

func LoadLevel(name string) (*Level, error) {
	data, err := Load(name)
	if err != nil {
		return nil, fmt.Errorf("levels: read %s: %w", name, err)
	}
	lvl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("levels: %s: %w", name, err)
	}
	return lvl, nil
}

func Parse(data []byte) (*Level, error) {
	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("unmarshal level: %w", err)
	}
	if err := lvl.Validate(); err != nil {
		return nil, err
	}
	return &lvl, nil
}

func (l *Level) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrBadLevel, l.Width, l.Height)
	}
	for i, layer := range l.Layers {
		if len(layer) != l.Width*l.Height {
			return fmt.Errorf("%w: layer %d has %d tiles, want %d", ErrBadLevel, i, len(layer), l.Width*l.Height)
		}
	}
	return nil
}

func (l *Level) Bounds() grid.Bounds {
	if l == nil {
		return grid.Bounds{}
	}
	return grid.Bounds{Width: l.Width, Height: l.Height}
}

// Cell reports a cell walkable when no physics layer has a tile there.
func (l *Level) Cell(c grid.Coord) (bool, common.Vec3) {
	return !l.Solid(c.X, c.Y), l.Anchor(c)
}

// Anchor is the world-space centre of the cell.
func (l *Level) Anchor(c grid.Coord) common.Vec3 {
	size := l.CellSize()
	return common.Vec3{
		X: (float64(c.X) + 0.5) * size,
		Y: (float64(c.Y) + 0.5) * size,
	}
}

func (l *Level) Solid(x, y int) bool {
	idx, ok := l.index(x, y)
	if !ok {
		return true
	}
	for i, layer := range l.Layers {
		if l.IsPhysicsLayer(i) && layer[idx] != 0 {
			return true
		}
	}
	return false
}

// Tile returns the top-most non-zero tile at x, y.
func (l *Level) Tile(x, y int) int {
	idx, ok := l.index(x, y)
	if !ok {
		return 0
	}
	for i := len(l.Layers) - 1; i >= 0; i-- {
		if v := l.Layers[i][idx]; v != 0 {
			return v
		}
	}
	return 0
}

func (l *Level) IsPhysicsLayer(i int) bool {
	return i >= 0 && i < len(l.LayerMeta) && l.LayerMeta[i].Physics
}

// CellSize is the world size of one tile.
func (l *Level) CellSize() float64 {
	if l.TileSize > 0 {
		return l.TileSize
	}
	return common.TileSize
}

func (l *Level) index(x, y int) (int, bool) {
	if l == nil || x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return 0, false
	}
	idx := y*l.Width + x
	for _, layer := range l.Layers {
		if idx >= len(layer) {
			return 0, false
		}
	}
	return idx, true
}

func cleanLevelPath(path string) string {
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "levels/"); ok {
		s = after
	}
	if filepath.Ext(s) == "" {
		s += ".json"
	}
	return s
}

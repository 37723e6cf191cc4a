package grid

import (
	"strings"

	"github.com/milk9111/gridpath/common"
)

// BlockedRune marks an unwalkable cell in a TextSource.
const BlockedRune = '#'

// TextSource reads a map from rows of text. Row i is y == i and column j is x == j.
// Short rows are padded with blocked cells.
type TextSource struct {
	Rows     []string
	CellSize float64
}

// ParseText splits a block of text into a TextSource, dropping blank lines.
func ParseText(text string, cellSize float64) TextSource {
	rows := make([]string, 0, 8)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, line)
	}
	return TextSource{Rows: rows, CellSize: cellSize}
}

func (s TextSource) Bounds() Bounds {
	width := 0
	for _, row := range s.Rows {
		if n := len([]rune(row)); n > width {
			width = n
		}
	}
	return Bounds{Width: width, Height: len(s.Rows)}
}

func (s TextSource) Cell(c Coord) (bool, common.Vec3) {
	size := s.CellSize
	if size <= 0 {
		size = common.TileSize
	}
	anchor := common.Vec3{
		X: (float64(c.X) + 0.5) * size,
		Y: (float64(c.Y) + 0.5) * size,
	}
	if c.Y < 0 || c.Y >= len(s.Rows) || c.X < 0 {
		return false, anchor
	}
	row := []rune(s.Rows[c.Y])
	if c.X >= len(row) {
		return false, anchor
	}
	return row[c.X] != BlockedRune, anchor
}

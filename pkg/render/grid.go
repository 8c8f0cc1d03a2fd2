package render

import (
	"math"
	"strings"

	"github.com/teslashibe/go-rover/pkg/history"
	"github.com/teslashibe/go-rover/pkg/rover"
)

// Grid glyphs, from lowest to highest precedence.
const (
	GlyphEmpty    = ' '
	GlyphOrigin   = '+'
	GlyphPath     = '·'
	GlyphObstacle = 'x'
	GlyphTag      = 's'
	GlyphCurrent  = '@'
)

// Grid renders the path plot window as rows of text for terminals.
// Points outside the window are clipped, as in the image plot.
func Grid(snap history.Snapshot, cols, rows int) []string {
	if cols < 2 {
		cols = 2
	}
	if rows < 2 {
		rows = 2
	}

	cells := make([][]rune, rows)
	for r := range cells {
		cells[r] = []rune(strings.Repeat(string(GlyphEmpty), cols))
	}

	put := func(p rover.Position, glyph rune) {
		c, r, ok := cell(p, cols, rows)
		if ok {
			cells[r][c] = glyph
		}
	}

	put(rover.Position{}, GlyphOrigin)
	for _, p := range snap.Path() {
		put(p, GlyphPath)
	}
	for _, p := range snap.Obstacles {
		put(p, GlyphObstacle)
	}
	for _, p := range snap.Tags {
		put(p, GlyphTag)
	}
	if current, _, ok := snap.Last(); ok {
		put(current, GlyphCurrent)
	}

	out := make([]string, rows)
	for r, row := range cells {
		out[r] = string(row)
	}
	return out
}

// cell maps a position to a column and row; row 0 is the top (y = PlotMax).
func cell(p rover.Position, cols, rows int) (int, int, bool) {
	if p.X < PlotMin || p.X > PlotMax || p.Y < PlotMin || p.Y > PlotMax {
		return 0, 0, false
	}
	span := PlotMax - PlotMin
	c := int(math.Round((p.X - PlotMin) / span * float64(cols-1)))
	r := int(math.Round((PlotMax - p.Y) / span * float64(rows-1)))
	return c, r, true
}

// Package compositor turns a window view (pane snapshots plus resolved
// geometry) into the byte stream a physical terminal needs to show it:
// pane content at its offset, styled separators, pane titles, and the
// cursor placed inside the active pane. Full redraws emit every cell;
// incremental redraws emit only cells that differ from the previous
// frame.
package compositor

import (
	"bytes"
	"fmt"

	"github.com/Gbr22/citymux/internal/layout"
	"github.com/Gbr22/citymux/internal/session"
	"github.com/Gbr22/citymux/internal/vt"
)

// Palette selects separator and title colors, as 256-color indexes.
type Palette struct {
	Border       int
	BorderActive int
}

// DefaultPalette matches the built-in configuration.
func DefaultPalette() Palette {
	return Palette{Border: 8, BorderActive: 12}
}

// Compositor renders frames for one attached client. It remembers the
// previously emitted canvas so incremental renders can diff against it.
type Compositor struct {
	palette Palette

	rows, cols int
	prev       [][]vt.Cell
}

// New creates a compositor. The first render is always a full redraw.
func New(p Palette) *Compositor {
	return &Compositor{palette: p}
}

// Invalidate drops the remembered frame, forcing the next render to
// emit every cell. Used on attach and window switches.
func (c *Compositor) Invalidate() {
	c.prev = nil
}

// Render produces the byte sequence bringing the client terminal to
// the given view. When full is set, or the view size changed since the
// last frame, every cell is emitted; otherwise only cells differing
// from the previous frame are.
func (c *Compositor) Render(v *session.View, full bool) []byte {
	canvas, cursor := c.compose(v)
	if c.prev == nil || v.Rows != c.rows || v.Cols != c.cols {
		full = true
	}

	var buf bytes.Buffer
	// Hide the cursor while painting so partial frames never show it
	// in a stale position.
	buf.WriteString("\x1b[?25l\x1b[0m")

	pen := vt.DefaultStyle()
	if full {
		buf.WriteString("\x1b[2J")
		for y := 0; y < v.Rows; y++ {
			c.emitRun(&buf, canvas, y, 0, v.Cols-1, &pen)
		}
	} else {
		for y := 0; y < v.Rows; y++ {
			x := 0
			for x < v.Cols {
				if canvas[y][x] == c.prev[y][x] {
					x++
					continue
				}
				run := x
				for run < v.Cols && canvas[y][run] != c.prev[y][run] {
					run++
				}
				c.emitRun(&buf, canvas, y, x, run-1, &pen)
				x = run
			}
		}
	}

	buf.WriteString("\x1b[0m")
	if cursor.Visible {
		fmt.Fprintf(&buf, "\x1b[%d;%dH\x1b[?25h", cursor.Row+1, cursor.Col+1)
	}

	c.prev = canvas
	c.rows, c.cols = v.Rows, v.Cols
	return buf.Bytes()
}

// emitRun writes cells [x0,x1] of one canvas row, positioning the
// cursor first and switching styles only when they change. A run that
// starts on a wide glyph's continuation cell is widened left so the
// glyph is repainted whole.
func (c *Compositor) emitRun(buf *bytes.Buffer, canvas [][]vt.Cell, y, x0, x1 int, pen *vt.Style) {
	for x0 > 0 && canvas[y][x0].IsSpacer() {
		x0--
	}
	fmt.Fprintf(buf, "\x1b[%d;%dH", y+1, x0+1)
	for x := x0; x <= x1; x++ {
		cell := canvas[y][x]
		if cell.IsSpacer() {
			continue
		}
		if cell.Style != *pen {
			writeSGR(buf, cell.Style)
			*pen = cell.Style
		}
		buf.WriteRune(cell.Rune)
	}
}

// compose paints the view onto a fresh canvas: pane grids clipped and
// padded to their rectangles, separators, then titles on the row above
// each non-top pane. Returns the canvas and the translated cursor of
// the active pane, hidden when it falls outside the pane's rectangle.
func (c *Compositor) compose(v *session.View) ([][]vt.Cell, vt.Cursor) {
	blank := vt.Cell{Rune: ' ', Width: vt.WidthNormal, Style: vt.DefaultStyle()}
	canvas := make([][]vt.Cell, v.Rows)
	for y := range canvas {
		canvas[y] = make([]vt.Cell, v.Cols)
		for x := range canvas[y] {
			canvas[y][x] = blank
		}
	}

	cursor := vt.Cursor{}
	for _, pv := range v.Panes {
		c.paintPane(canvas, v, pv)
		if pv.Active {
			cursor = c.paneCursor(v, pv)
		}
	}
	for _, sep := range v.Separators {
		c.paintSeparator(canvas, v, sep)
	}
	for _, pv := range v.Panes {
		c.paintTitle(canvas, v, pv)
	}
	return canvas, cursor
}

func (c *Compositor) paintPane(canvas [][]vt.Cell, v *session.View, pv session.PaneView) {
	for dy := 0; dy < pv.Rect.H; dy++ {
		y := pv.Rect.Y + dy
		if y < 0 || y >= v.Rows {
			continue
		}
		for dx := 0; dx < pv.Rect.W; dx++ {
			x := pv.Rect.X + dx
			if x < 0 || x >= v.Cols {
				continue
			}
			// Snapshot.Cell pads with blanks when the emulator lags the
			// assigned rectangle after a refused resize.
			cell := pv.Snap.Cell(dy, dx)
			// A wide glyph whose continuation would cross the pane's
			// right edge is clipped to a blank head.
			if cell.Width == vt.WidthWide && dx == pv.Rect.W-1 {
				cell = vt.Cell{Rune: ' ', Width: vt.WidthNormal, Style: cell.Style}
			}
			canvas[y][x] = cell
		}
	}
}

func (c *Compositor) paintSeparator(canvas [][]vt.Cell, v *session.View, sep layout.Separator) {
	style := vt.Style{
		FG: vt.IndexedColor(uint8(c.palette.Border)),
		BG: vt.DefaultColor(),
	}
	glyph := '│'
	if sep.Dir == layout.Horizontal {
		glyph = '─'
	}
	for dy := 0; dy < sep.Rect.H; dy++ {
		y := sep.Rect.Y + dy
		if y < 0 || y >= v.Rows {
			continue
		}
		for dx := 0; dx < sep.Rect.W; dx++ {
			x := sep.Rect.X + dx
			if x < 0 || x >= v.Cols {
				continue
			}
			canvas[y][x] = vt.Cell{Rune: glyph, Width: vt.WidthNormal, Style: style}
		}
	}
}

// paintTitle writes "[title]" onto the separator row directly above a
// pane. Top-edge panes have no such row and carry no title.
func (c *Compositor) paintTitle(canvas [][]vt.Cell, v *session.View, pv session.PaneView) {
	y := pv.Rect.Y - 1
	if y < 0 || y >= v.Rows || pv.Title == "" {
		return
	}
	style := vt.Style{
		FG: vt.IndexedColor(uint8(c.palette.Border)),
		BG: vt.DefaultColor(),
	}
	if pv.Active {
		style = vt.Style{
			FG: vt.IndexedColor(0),
			BG: vt.IndexedColor(uint8(c.palette.BorderActive)),
		}
	}
	label := []rune("[" + pv.Title + "]")
	max := pv.Rect.W - 2
	if max < 0 {
		max = 0
	}
	if len(label) > max {
		label = label[:max]
	}
	for i, r := range label {
		x := pv.Rect.X + 1 + i
		if x < 0 || x >= v.Cols {
			break
		}
		canvas[y][x] = vt.Cell{Rune: r, Width: vt.WidthNormal, Style: style}
	}
}

// paneCursor translates the pane-local cursor into physical
// coordinates, hiding it when it falls outside the pane's rectangle.
func (c *Compositor) paneCursor(v *session.View, pv session.PaneView) vt.Cursor {
	cur := pv.Snap.Cursor
	if !cur.Visible {
		return vt.Cursor{}
	}
	x := pv.Rect.X + cur.Col
	y := pv.Rect.Y + cur.Row
	if cur.Row < 0 || cur.Row >= pv.Rect.H || cur.Col < 0 || cur.Col >= pv.Rect.W {
		return vt.Cursor{}
	}
	if x < 0 || x >= v.Cols || y < 0 || y >= v.Rows {
		return vt.Cursor{}
	}
	return vt.Cursor{Row: y, Col: x, Visible: true}
}

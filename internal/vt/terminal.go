package vt

import (
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
)

// DefaultScrollback is the scrollback line cap used when no limit is configured.
const DefaultScrollback = 1000

// Cursor is the caret position and visibility, 0-based.
type Cursor struct {
	Row     int
	Col     int
	Visible bool
}

// MouseMode is the pointer-reporting protocol a program requested via
// DECSET 9/1000/1002/1003.
type MouseMode int

const (
	MouseOff MouseMode = iota
	MousePress
	MousePressRelease
	MouseButtonMotion
	MouseAnyMotion
)

// MouseEncoding is the coordinate wire format for mouse reports,
// selected via DECSET 1005/1006.
type MouseEncoding int

const (
	MouseEncDefault MouseEncoding = iota
	MouseEncUTF8
	MouseEncSGR
)

// Region is an inclusive rectangle of cells. It is empty when Bottom < Top.
type Region struct {
	Top, Left, Bottom, Right int
}

// Empty reports whether the region contains no cells.
func (r Region) Empty() bool {
	return r.Bottom < r.Top || r.Right < r.Left
}

func emptyRegion() Region {
	return Region{Top: 1, Bottom: 0}
}

// include grows the region to cover the span [c0,c1] on the given row.
func (r Region) include(row, c0, c1 int) Region {
	if r.Empty() {
		return Region{Top: row, Bottom: row, Left: c0, Right: c1}
	}
	if row < r.Top {
		r.Top = row
	}
	if row > r.Bottom {
		r.Bottom = row
	}
	if c0 < r.Left {
		r.Left = c0
	}
	if c1 > r.Right {
		r.Right = c1
	}
	return r
}

// Snapshot is a read-only copy of the visible screen, taken under the
// terminal lock. Dirty is the bounding rectangle of cells touched since
// the previous snapshot; a full-content change (resize, scroll, screen
// switch) covers the whole grid.
type Snapshot struct {
	Rows, Cols int
	Cells      [][]Cell
	Cursor     Cursor
	Title      string
	Dirty      Region
}

// Cell returns the cell at (row, col), or a blank when out of bounds.
func (s *Snapshot) Cell(row, col int) Cell {
	if row < 0 || row >= s.Rows || col < 0 || col >= s.Cols {
		return blankCell(DefaultStyle())
	}
	return s.Cells[row][col]
}

type savedCursor struct {
	row, col int
	pen      Style
	valid    bool
}

// Terminal is a VT state machine with a primary grid plus scrollback and
// an alternate grid without. All exported methods are safe for
// concurrent use.
type Terminal struct {
	mu sync.Mutex

	rows, cols int
	grid       [][]Cell // primary screen
	altGrid    [][]Cell
	altActive  bool

	scrollback    [][]Cell
	maxScrollback int

	cur         Cursor
	saved       savedCursor
	savedAlt    savedCursor
	pen         Style
	wrapPending bool

	// Scroll region, inclusive rows.
	scrollTop    int
	scrollBottom int

	autoWrap   bool
	originMode bool
	appKeypad  bool

	mouseMode MouseMode
	mouseEnc  MouseEncoding

	title string

	dirty Region

	p *parser
}

// New creates a terminal with the given dimensions. Dimensions are
// clamped to at least 1x1.
func New(rows, cols int) *Terminal {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	t := &Terminal{
		rows:          rows,
		cols:          cols,
		grid:          newGrid(rows, cols),
		altGrid:       newGrid(rows, cols),
		maxScrollback: DefaultScrollback,
		cur:           Cursor{Visible: true},
		pen:           DefaultStyle(),
		scrollBottom:  rows - 1,
		autoWrap:      true,
		p:             newParser(),
	}
	t.dirty = Region{Top: 0, Left: 0, Bottom: rows - 1, Right: cols - 1}
	return t
}

// SetMaxScrollback bounds the number of retained scrollback rows.
func (t *Terminal) SetMaxScrollback(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n < 0 {
		n = 0
	}
	t.maxScrollback = n
	t.trimScrollback()
}

func newGrid(rows, cols int) [][]Cell {
	g := make([][]Cell, rows)
	for i := range g {
		g[i] = blankRow(cols, DefaultStyle())
	}
	return g
}

func blankRow(cols int, style Style) []Cell {
	row := make([]Cell, cols)
	for i := range row {
		row[i] = blankCell(style)
	}
	return row
}

// Write feeds raw child-process output through the state machine.
// It never fails; malformed sequences are discarded. Implements io.Writer.
func (t *Terminal) Write(data []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, b := range data {
		t.p.advance(t, b)
	}
	return len(data), nil
}

// Size returns the grid dimensions.
func (t *Terminal) Size() (rows, cols int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rows, t.cols
}

// Title returns the window title set via OSC 0/2.
func (t *Terminal) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

// AppKeypad reports whether application keypad mode is active.
func (t *Terminal) AppKeypad() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.appKeypad
}

// Mouse returns the pointer-reporting mode and encoding the running
// program asked for.
func (t *Terminal) Mouse() (MouseMode, MouseEncoding) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mouseMode, t.mouseEnc
}

// Snapshot deep-copies the visible screen and resets dirty tracking.
func (t *Terminal) Snapshot() *Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	cells := make([][]Cell, t.rows)
	src := t.screen()
	for i := range cells {
		cells[i] = make([]Cell, t.cols)
		copy(cells[i], src[i])
	}
	snap := &Snapshot{
		Rows:   t.rows,
		Cols:   t.cols,
		Cells:  cells,
		Cursor: t.cur,
		Title:  t.title,
		Dirty:  t.dirty,
	}
	t.dirty = emptyRegion()
	return snap
}

// Resize reallocates the grids preserving content anchored at the
// top-left. Resizing to the current size is a no-op. The scroll region
// resets to the full screen and the cursor is clamped into bounds.
func (t *Terminal) Resize(rows, cols int) {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if rows == t.rows && cols == t.cols {
		return
	}
	t.grid = resizeGrid(t.grid, rows, cols)
	t.altGrid = resizeGrid(t.altGrid, rows, cols)
	t.rows = rows
	t.cols = cols
	t.scrollTop = 0
	t.scrollBottom = rows - 1
	t.wrapPending = false
	if t.cur.Row > rows-1 {
		t.cur.Row = rows - 1
	}
	if t.cur.Col > cols-1 {
		t.cur.Col = cols - 1
	}
	t.markAllDirty()
}

func resizeGrid(g [][]Cell, rows, cols int) [][]Cell {
	out := make([][]Cell, rows)
	for i := 0; i < rows; i++ {
		row := blankRow(cols, DefaultStyle())
		if i < len(g) {
			copy(row, g[i])
			// A wide glyph cut in half at the new right edge loses its head.
			if cols > 0 && row[cols-1].Width == WidthWide {
				row[cols-1] = blankCell(row[cols-1].Style)
			}
		}
		out[i] = row
	}
	return out
}

// ScrollbackLen returns the number of retained scrollback rows.
func (t *Terminal) ScrollbackLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.scrollback)
}

// ScrollbackRow returns a scrollback row; index 0 is the oldest.
func (t *Terminal) ScrollbackRow(i int) []Cell {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.scrollback) {
		return nil
	}
	row := make([]Cell, len(t.scrollback[i]))
	copy(row, t.scrollback[i])
	return row
}

// RowString returns the trimmed text content of a visible row.
func (t *Terminal) RowString(row int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if row < 0 || row >= t.rows {
		return ""
	}
	var sb strings.Builder
	for _, c := range t.screen()[row] {
		if c.IsSpacer() {
			continue
		}
		sb.WriteRune(c.Rune)
	}
	return strings.TrimRight(sb.String(), " ")
}

// screen returns the active grid.
func (t *Terminal) screen() [][]Cell {
	if t.altActive {
		return t.altGrid
	}
	return t.grid
}

func (t *Terminal) markAllDirty() {
	t.dirty = Region{Top: 0, Left: 0, Bottom: t.rows - 1, Right: t.cols - 1}
}

func (t *Terminal) markDirty(row, c0, c1 int) {
	t.dirty = t.dirty.include(row, c0, c1)
}

// --- character printing ---

func (t *Terminal) print(r rune) {
	w := runewidth.RuneWidth(r)
	if w == 0 {
		// Combining marks and other zero-width runes are not stored.
		return
	}
	if w > 2 {
		w = 2
	}
	// A wide glyph cannot straddle a one-column grid; store it narrow.
	if w > t.cols {
		w = t.cols
	}
	if t.wrapPending && t.autoWrap {
		t.wrapPending = false
		t.carriageReturn()
		t.index()
	}
	if t.cur.Col+w > t.cols {
		if t.autoWrap {
			t.carriageReturn()
			t.index()
		} else {
			t.cur.Col = t.cols - w
		}
	}
	row := t.screen()[t.cur.Row]
	col := t.cur.Col
	// Overwriting half of an existing wide glyph blanks the other half.
	t.clearWideAt(t.cur.Row, col)
	if w == 2 {
		t.clearWideAt(t.cur.Row, col+1)
	}
	cell := Cell{Rune: r, Width: uint8(w), Style: t.pen}
	row[col] = cell
	if w == 2 {
		row[col+1] = Cell{Rune: 0, Width: WidthSpacer, Style: t.pen}
	}
	t.markDirty(t.cur.Row, col, col+w-1)
	if col+w >= t.cols {
		if t.autoWrap {
			t.cur.Col = t.cols - 1
			t.wrapPending = true
		} else {
			t.cur.Col = t.cols - 1
		}
	} else {
		t.cur.Col = col + w
	}
}

// clearWideAt repairs a wide glyph pair when one half is overwritten.
func (t *Terminal) clearWideAt(rowIdx, col int) {
	if col < 0 || col >= t.cols {
		return
	}
	row := t.screen()[rowIdx]
	switch row[col].Width {
	case WidthWide:
		if col+1 < t.cols && row[col+1].IsSpacer() {
			row[col+1] = blankCell(row[col+1].Style)
			t.markDirty(rowIdx, col+1, col+1)
		}
	case WidthSpacer:
		if col-1 >= 0 && row[col-1].Width == WidthWide {
			row[col-1] = blankCell(row[col-1].Style)
			t.markDirty(rowIdx, col-1, col-1)
		}
	}
}

// --- control characters ---

func (t *Terminal) control(b byte) {
	switch b {
	case '\n', 0x0b, 0x0c:
		t.index()
	case '\r':
		t.carriageReturn()
	case '\b':
		if t.cur.Col > 0 {
			t.cur.Col--
		}
		t.wrapPending = false
	case '\t':
		t.wrapPending = false
		next := (t.cur.Col/8 + 1) * 8
		if next > t.cols-1 {
			next = t.cols - 1
		}
		t.cur.Col = next
	case 0x07:
		// BEL is ignored; there is no bell to ring here.
	}
}

func (t *Terminal) carriageReturn() {
	t.cur.Col = 0
	t.wrapPending = false
}

// index moves the cursor down one row, scrolling the region when the
// cursor sits on its bottom row.
func (t *Terminal) index() {
	t.wrapPending = false
	if t.cur.Row == t.scrollBottom {
		t.scrollUp(1)
	} else if t.cur.Row < t.rows-1 {
		t.cur.Row++
	}
}

func (t *Terminal) reverseIndex() {
	t.wrapPending = false
	if t.cur.Row == t.scrollTop {
		t.scrollDown(1)
	} else if t.cur.Row > 0 {
		t.cur.Row--
	}
}

// scrollUp shifts rows inside the scroll region up by n, feeding rows
// that fall off a full-width top-of-screen region into scrollback
// (primary screen only).
func (t *Terminal) scrollUp(n int) {
	if n < 1 {
		return
	}
	span := t.scrollBottom - t.scrollTop + 1
	if n > span {
		n = span
	}
	g := t.screen()
	keepHistory := !t.altActive && t.scrollTop == 0 && t.maxScrollback > 0
	for i := 0; i < n; i++ {
		if keepHistory {
			saved := make([]Cell, t.cols)
			copy(saved, g[t.scrollTop])
			t.scrollback = append(t.scrollback, saved)
		}
		copy(g[t.scrollTop:t.scrollBottom+1], g[t.scrollTop+1:t.scrollBottom+1])
		g[t.scrollBottom] = blankRow(t.cols, t.pen)
	}
	t.trimScrollback()
	t.markAllDirty()
}

func (t *Terminal) scrollDown(n int) {
	if n < 1 {
		return
	}
	span := t.scrollBottom - t.scrollTop + 1
	if n > span {
		n = span
	}
	g := t.screen()
	for i := 0; i < n; i++ {
		copy(g[t.scrollTop+1:t.scrollBottom+1], g[t.scrollTop:t.scrollBottom])
		g[t.scrollTop] = blankRow(t.cols, t.pen)
	}
	t.markAllDirty()
}

func (t *Terminal) trimScrollback() {
	if over := len(t.scrollback) - t.maxScrollback; over > 0 {
		t.scrollback = t.scrollback[over:]
	}
}

// --- cursor save/restore and reset ---

func (t *Terminal) saveCursor() {
	s := &t.saved
	if t.altActive {
		s = &t.savedAlt
	}
	*s = savedCursor{row: t.cur.Row, col: t.cur.Col, pen: t.pen, valid: true}
}

func (t *Terminal) restoreCursor() {
	s := t.saved
	if t.altActive {
		s = t.savedAlt
	}
	if !s.valid {
		t.cur.Row, t.cur.Col = 0, 0
		t.pen = DefaultStyle()
		return
	}
	t.cur.Row = clamp(s.row, 0, t.rows-1)
	t.cur.Col = clamp(s.col, 0, t.cols-1)
	t.pen = s.pen
	t.wrapPending = false
}

func (t *Terminal) fullReset() {
	t.grid = newGrid(t.rows, t.cols)
	t.altGrid = newGrid(t.rows, t.cols)
	t.altActive = false
	t.cur = Cursor{Visible: true}
	t.pen = DefaultStyle()
	t.saved = savedCursor{}
	t.savedAlt = savedCursor{}
	t.scrollTop = 0
	t.scrollBottom = t.rows - 1
	t.autoWrap = true
	t.originMode = false
	t.appKeypad = false
	t.mouseMode = MouseOff
	t.mouseEnc = MouseEncDefault
	t.wrapPending = false
	t.markAllDirty()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

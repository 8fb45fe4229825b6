package compositor

import (
	"strings"
	"testing"

	"github.com/hinshun/vt10x"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gbr22/citymux/internal/layout"
	"github.com/Gbr22/citymux/internal/session"
	"github.com/Gbr22/citymux/internal/vt"
)

func singlePaneView(t *vt.Terminal, rows, cols int) *session.View {
	return &session.View{
		Rows: rows,
		Cols: cols,
		Panes: []session.PaneView{{
			ID:     1,
			Rect:   layout.Rect{X: 0, Y: 0, W: cols, H: rows},
			Snap:   t.Snapshot(),
			Active: true,
		}},
	}
}

func TestFullRedrawRoundTrip(t *testing.T) {
	src := vt.New(10, 40)
	_, _ = src.Write([]byte("plain \x1b[1;31mbold red\x1b[0m\r\n"))
	_, _ = src.Write([]byte("\x1b[44mblue bg\x1b[0m wide: 漢字\r\n"))
	_, _ = src.Write([]byte("\x1b[38;5;99mindexed\x1b[0m\x1b[5;7H"))

	comp := New(DefaultPalette())
	view := singlePaneView(src, 10, 40)
	frame := comp.Render(view, true)

	replica := vt.New(10, 40)
	_, err := replica.Write(frame)
	require.NoError(t, err)

	got := replica.Snapshot()
	want := view.Panes[0].Snap
	for row := 0; row < 10; row++ {
		for col := 0; col < 40; col++ {
			assert.Equal(t, want.Cell(row, col), got.Cell(row, col),
				"cell (%d,%d)", row, col)
		}
	}
	assert.Equal(t, want.Cursor, got.Cursor)
}

func TestFullRedrawAgreesWithReferenceEmulator(t *testing.T) {
	src := vt.New(8, 30)
	_, _ = src.Write([]byte("hello\r\nworld\x1b[3;5H!"))

	comp := New(DefaultPalette())
	frame := comp.Render(singlePaneView(src, 8, 30), true)

	ref := vt10x.New(vt10x.WithSize(30, 8))
	_, err := ref.Write(frame)
	require.NoError(t, err)

	snap := src.Snapshot()
	for row := 0; row < 8; row++ {
		for col := 0; col < 30; col++ {
			want := snap.Cell(row, col).Rune
			got := ref.Cell(col, row).Char
			if got == 0 {
				got = ' '
			}
			assert.Equal(t, string(want), string(got), "cell (%d,%d)", row, col)
		}
	}
	cur := ref.Cursor()
	assert.Equal(t, snap.Cursor.Col, cur.X)
	assert.Equal(t, snap.Cursor.Row, cur.Y)
}

func TestSplitFrameSeparatorsAndTitle(t *testing.T) {
	top := vt.New(5, 40)
	_, _ = top.Write([]byte("upper"))
	bottom := vt.New(4, 40)
	_, _ = bottom.Write([]byte("\x1b]2;logs\x07lower"))

	view := &session.View{
		Rows: 10,
		Cols: 40,
		Panes: []session.PaneView{
			{ID: 1, Rect: layout.Rect{X: 0, Y: 0, W: 40, H: 5}, Snap: top.Snapshot()},
			{ID: 2, Rect: layout.Rect{X: 0, Y: 6, W: 40, H: 4}, Snap: bottom.Snapshot(),
				Title: bottom.Title(), Active: true},
		},
		Separators: []layout.Separator{
			{Rect: layout.Rect{X: 0, Y: 5, W: 40, H: 1}, Dir: layout.Horizontal},
		},
	}

	frame := New(DefaultPalette()).Render(view, true)
	replica := vt.New(10, 40)
	_, _ = replica.Write(frame)

	assert.Equal(t, "upper", replica.RowString(0))
	assert.Equal(t, "lower", replica.RowString(6))

	// The separator row carries the active pane's title inset by one
	// column, the rest of the row being the separator glyph.
	sep := replica.RowString(5)
	assert.True(t, strings.HasPrefix(sep, "─[logs]─"), "separator row %q", sep)

	snap := replica.Snapshot()
	title := snap.Cell(5, 1)
	assert.Equal(t, vt.IndexedColor(12), title.Style.BG)
	assert.Equal(t, vt.IndexedColor(0), title.Style.FG)

	bar := snap.Cell(5, 20)
	assert.Equal(t, vt.IndexedColor(8), bar.Style.FG)

	// Cursor lands inside the active pane: after "lower" on its row 0.
	assert.Equal(t, vt.Cursor{Row: 6, Col: 5, Visible: true}, snap.Cursor)
}

func TestIncrementalEmitsOnlyDamage(t *testing.T) {
	src := vt.New(10, 40)
	_, _ = src.Write([]byte("base line"))

	comp := New(DefaultPalette())
	replica := vt.New(10, 40)

	full := comp.Render(singlePaneView(src, 10, 40), true)
	_, _ = replica.Write(full)

	_, _ = src.Write([]byte("\x1b[8;3HX"))
	incr := comp.Render(singlePaneView(src, 10, 40), false)
	_, _ = replica.Write(incr)

	assert.Less(t, len(incr), len(full)/4, "incremental frame should be small")
	assert.NotContains(t, string(incr), "\x1b[2J")

	snap := src.Snapshot()
	got := replica.Snapshot()
	for row := 0; row < 10; row++ {
		for col := 0; col < 40; col++ {
			assert.Equal(t, snap.Cell(row, col), got.Cell(row, col),
				"cell (%d,%d)", row, col)
		}
	}
}

func TestUnchangedViewEmitsNoCells(t *testing.T) {
	src := vt.New(10, 40)
	_, _ = src.Write([]byte("steady"))

	comp := New(DefaultPalette())
	_ = comp.Render(singlePaneView(src, 10, 40), true)
	frame := comp.Render(singlePaneView(src, 10, 40), false)

	// Only the style reset, cursor hide and cursor trailer remain.
	assert.NotContains(t, string(frame), "steady"[0:1])
}

func TestInvalidateForcesFullRedraw(t *testing.T) {
	src := vt.New(5, 20)
	_, _ = src.Write([]byte("content"))

	comp := New(DefaultPalette())
	_ = comp.Render(singlePaneView(src, 5, 20), true)

	comp.Invalidate()
	frame := comp.Render(singlePaneView(src, 5, 20), false)
	assert.Contains(t, string(frame), "\x1b[2J")
	assert.Contains(t, string(frame), "content")
}

func TestHiddenCursorStaysHidden(t *testing.T) {
	src := vt.New(5, 20)
	_, _ = src.Write([]byte("\x1b[?25lquiet"))

	frame := New(DefaultPalette()).Render(singlePaneView(src, 5, 20), true)
	assert.NotContains(t, string(frame), "\x1b[?25h")
}

func TestCursorOutsideRectIsHidden(t *testing.T) {
	src := vt.New(10, 40)
	_, _ = src.Write([]byte("\x1b[9;30H"))

	// The pane rectangle is smaller than the emulator grid, as happens
	// transiently when a pty refuses a resize.
	view := &session.View{
		Rows: 10,
		Cols: 40,
		Panes: []session.PaneView{{
			ID:     1,
			Rect:   layout.Rect{X: 0, Y: 0, W: 20, H: 5},
			Snap:   src.Snapshot(),
			Active: true,
		}},
	}
	frame := New(DefaultPalette()).Render(view, true)
	assert.NotContains(t, string(frame), "\x1b[?25h")
}

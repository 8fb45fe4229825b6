package vt

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(t *testing.T, term *Terminal, s string) {
	t.Helper()
	n, err := term.Write([]byte(s))
	require.NoError(t, err)
	require.Equal(t, len(s), n)
}

func cursor(term *Terminal) (int, int) {
	snap := term.Snapshot()
	return snap.Cursor.Row, snap.Cursor.Col
}

func TestPrintAdvancesCursor(t *testing.T) {
	term := New(5, 10)
	feed(t, term, "hello")

	row, col := cursor(term)
	assert.Equal(t, 0, row)
	assert.Equal(t, 5, col)
	assert.Equal(t, "hello", term.RowString(0))
}

func TestPrintableBytesNeverEscapeBounds(t *testing.T) {
	const rows, cols = 4, 7
	term := New(rows, cols)

	data := make([]byte, 0, 500)
	for i := 0; i < 500; i++ {
		data = append(data, byte('!'+i%90))
	}
	_, err := term.Write(data)
	require.NoError(t, err)

	snap := term.Snapshot()
	assert.GreaterOrEqual(t, snap.Cursor.Row, 0)
	assert.Less(t, snap.Cursor.Row, rows)
	assert.GreaterOrEqual(t, snap.Cursor.Col, 0)
	assert.Less(t, snap.Cursor.Col, cols)
}

func TestWrapAtRightMargin(t *testing.T) {
	term := New(3, 4)
	feed(t, term, "abcdef")

	assert.Equal(t, "abcd", term.RowString(0))
	assert.Equal(t, "ef", term.RowString(1))
	row, col := cursor(term)
	assert.Equal(t, 1, row)
	assert.Equal(t, 2, col)
}

func TestWrapDisabled(t *testing.T) {
	term := New(3, 4)
	feed(t, term, "\x1b[?7labcdef")

	assert.Equal(t, "abcf", term.RowString(0))
	assert.Equal(t, "", term.RowString(1))
}

func TestNewlineScrollsIntoScrollback(t *testing.T) {
	term := New(2, 10)
	feed(t, term, "one\r\ntwo\r\nthree")

	assert.Equal(t, "two", term.RowString(0))
	assert.Equal(t, "three", term.RowString(1))
	require.Equal(t, 1, term.ScrollbackLen())

	sb := term.ScrollbackRow(0)
	assert.Equal(t, 'o', sb[0].Rune)
	assert.Equal(t, 'n', sb[1].Rune)
	assert.Equal(t, 'e', sb[2].Rune)
}

func TestScrollbackBounded(t *testing.T) {
	term := New(2, 5)
	term.SetMaxScrollback(3)
	for i := 0; i < 10; i++ {
		feed(t, term, fmt.Sprintf("%d\r\n", i))
	}
	assert.Equal(t, 3, term.ScrollbackLen())
}

func TestCursorMovement(t *testing.T) {
	term := New(10, 10)

	tests := []struct {
		name     string
		input    string
		row, col int
	}{
		{"CUP", "\x1b[5;7H", 4, 6},
		{"CUP no params", "\x1b[5;7H\x1b[H", 0, 0},
		{"CUU", "\x1b[5;5H\x1b[2A", 2, 4},
		{"CUD", "\x1b[5;5H\x1b[3B", 7, 4},
		{"CUF", "\x1b[5;5H\x1b[2C", 4, 6},
		{"CUB", "\x1b[5;5H\x1b[2D", 4, 2},
		{"CHA", "\x1b[5;5H\x1b[8G", 4, 7},
		{"VPA", "\x1b[5;5H\x1b[8d", 7, 4},
		{"clamped top", "\x1b[H\x1b[9A", 0, 0},
		{"clamped right", "\x1b[99C", 0, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed(t, term, "\x1b[H"+tt.input)
			row, col := cursor(term)
			assert.Equal(t, tt.row, row)
			assert.Equal(t, tt.col, col)
		})
	}
}

func TestEraseUsesCurrentAttributes(t *testing.T) {
	term := New(3, 10)
	// Red background pen, then erase the display.
	feed(t, term, "\x1b[41m\x1b[2J")

	snap := term.Snapshot()
	cell := snap.Cell(1, 4)
	assert.Equal(t, ' ', cell.Rune)
	assert.Equal(t, IndexedColor(1), cell.Style.BG)
}

func TestEraseLineModes(t *testing.T) {
	term := New(1, 6)

	t.Run("to end", func(t *testing.T) {
		feed(t, term, "\x1b[2Jabcdef\x1b[1;3H\x1b[K")
		assert.Equal(t, "ab", term.RowString(0))
	})
	t.Run("to start", func(t *testing.T) {
		feed(t, term, "\x1b[2J\x1b[Habcdef\x1b[1;3H\x1b[1K")
		assert.Equal(t, "   def", term.RowString(0))
	})
	t.Run("whole line", func(t *testing.T) {
		feed(t, term, "\x1b[2J\x1b[Habcdef\x1b[2K")
		assert.Equal(t, "", term.RowString(0))
	})
}

func TestScrollRegion(t *testing.T) {
	term := New(5, 10)
	feed(t, term, "a\r\nb\r\nc\r\nd\r\ne")
	// Confine scrolling to rows 2-4 (1-based), then force a scroll.
	feed(t, term, "\x1b[2;4r\x1b[4;1H\r\n\r\n")

	assert.Equal(t, "a", term.RowString(0))
	assert.Equal(t, "d", term.RowString(1))
	assert.Equal(t, "e", term.RowString(4))
}

func TestSGRAttributes(t *testing.T) {
	term := New(2, 20)
	feed(t, term, "\x1b[1;4;33mX\x1b[0mY")

	snap := term.Snapshot()
	x := snap.Cell(0, 0)
	assert.Equal(t, AttrBold|AttrUnderline, x.Style.Attr)
	assert.Equal(t, IndexedColor(3), x.Style.FG)

	y := snap.Cell(0, 1)
	assert.Equal(t, Attr(0), y.Style.Attr)
	assert.Equal(t, DefaultColor(), y.Style.FG)
}

func TestSGRExtendedColors(t *testing.T) {
	term := New(1, 10)
	feed(t, term, "\x1b[38;5;208ma\x1b[48;2;10;20;30mb")

	snap := term.Snapshot()
	assert.Equal(t, IndexedColor(208), snap.Cell(0, 0).Style.FG)
	assert.Equal(t, RGBColor(10, 20, 30), snap.Cell(0, 1).Style.BG)
}

func TestWideGlyphHandling(t *testing.T) {
	term := New(2, 6)
	feed(t, term, "ab世c")

	snap := term.Snapshot()
	assert.Equal(t, '世', snap.Cell(0, 2).Rune)
	assert.Equal(t, WidthWide, snap.Cell(0, 2).Width)
	assert.True(t, snap.Cell(0, 3).IsSpacer())
	assert.Equal(t, 'c', snap.Cell(0, 4).Rune)
}

func TestWideGlyphWrapsBeforeSplit(t *testing.T) {
	term := New(2, 5)
	feed(t, term, "abcd世")

	// The wide glyph cannot straddle the margin; it wraps whole.
	snap := term.Snapshot()
	assert.Equal(t, '世', snap.Cell(1, 0).Rune)
}

func TestWideGlyphOnOneColumnGrid(t *testing.T) {
	term := New(5, 1)
	feed(t, term, "世界")

	// Wide glyphs degrade to a single cell rather than escaping the row.
	snap := term.Snapshot()
	assert.Equal(t, '世', snap.Cell(0, 0).Rune)
	assert.Equal(t, '界', snap.Cell(1, 0).Rune)
	assert.Equal(t, WidthNormal, snap.Cell(0, 0).Width)
}

func TestWideGlyphOnOneColumnGridNoWrap(t *testing.T) {
	term := New(5, 1)
	feed(t, term, "\x1b[?7l世世")

	snap := term.Snapshot()
	assert.Equal(t, '世', snap.Cell(0, 0).Rune)
	row, col := snap.Cursor.Row, snap.Cursor.Col
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)
}

func TestResizePreservesContent(t *testing.T) {
	term := New(4, 10)
	feed(t, term, "keep\r\nthis")

	term.Resize(6, 12)
	assert.Equal(t, "keep", term.RowString(0))
	assert.Equal(t, "this", term.RowString(1))

	term.Resize(2, 3)
	assert.Equal(t, "kee", term.RowString(0))
	rows, cols := term.Size()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
}

func TestResizeIdempotent(t *testing.T) {
	term := New(4, 10)
	feed(t, term, "x\r\nhello\x1b[2;3H")
	before := term.Snapshot()

	term.Resize(4, 10)
	after := term.Snapshot()

	assert.Equal(t, before.Cells, after.Cells)
	assert.Equal(t, before.Cursor, after.Cursor)
	// No content change means no dirty cells either.
	assert.True(t, after.Dirty.Empty())
}

func TestResizeClampsCursor(t *testing.T) {
	term := New(10, 20)
	feed(t, term, "\x1b[10;20H")
	term.Resize(4, 6)

	row, col := cursor(term)
	assert.Equal(t, 3, row)
	assert.Equal(t, 5, col)
}

func TestMalformedSequencesRecover(t *testing.T) {
	term := New(3, 20)

	tests := []struct {
		name  string
		input string
	}{
		{"unknown CSI final", "\x1b[999z"},
		{"unknown escape", "\x1b#"},
		{"interrupted CSI", "\x1b[12\x18"},
		{"unknown OSC", "\x1b]777;whatever\x07"},
		{"OSC with ST", "\x1b]2;title\x1b\\"},
		{"bare escape then text", "\x1bq"},
		{"overlong params", "\x1b[1;2;3;4;5;6;7;8;9;10;11;12;13;14;15;16;17;18;19;20m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed(t, term, "\x1b[H\x1b[2J"+tt.input+"ok")
			assert.Equal(t, "ok", term.RowString(0))
		})
	}
}

func TestTitleOSC(t *testing.T) {
	term := New(2, 10)
	feed(t, term, "\x1b]0;my title\x07")
	assert.Equal(t, "my title", term.Title())

	feed(t, term, "\x1b]2;other\x1b\\")
	assert.Equal(t, "other", term.Title())
}

func TestCursorSaveRestore(t *testing.T) {
	term := New(5, 10)
	feed(t, term, "\x1b[3;4H\x1b[31m\x1b7\x1b[H\x1b[0m")
	feed(t, term, "\x1b8")

	row, col := cursor(term)
	assert.Equal(t, 2, row)
	assert.Equal(t, 3, col)

	feed(t, term, "z")
	snap := term.Snapshot()
	assert.Equal(t, IndexedColor(1), snap.Cell(2, 3).Style.FG)
}

func TestAlternateScreen(t *testing.T) {
	term := New(3, 10)
	feed(t, term, "primary")
	feed(t, term, "\x1b[?1049h")
	feed(t, term, "alt")

	assert.Equal(t, "alt", term.RowString(0))

	feed(t, term, "\x1b[?1049l")
	assert.Equal(t, "primary", term.RowString(0))
	row, col := cursor(term)
	assert.Equal(t, 0, row)
	assert.Equal(t, 7, col)
}

func TestCursorVisibilityMode(t *testing.T) {
	term := New(2, 10)
	assert.True(t, term.Snapshot().Cursor.Visible)

	feed(t, term, "\x1b[?25l")
	assert.False(t, term.Snapshot().Cursor.Visible)

	feed(t, term, "\x1b[?25h")
	assert.True(t, term.Snapshot().Cursor.Visible)
}

func TestDirtyRegionTracking(t *testing.T) {
	term := New(10, 40)
	term.Snapshot() // drain initial full-dirty state

	feed(t, term, "\x1b[3;5Hab")
	snap := term.Snapshot()
	require.False(t, snap.Dirty.Empty())
	assert.Equal(t, 2, snap.Dirty.Top)
	assert.Equal(t, 2, snap.Dirty.Bottom)
	assert.Equal(t, 4, snap.Dirty.Left)
	assert.Equal(t, 5, snap.Dirty.Right)

	// Nothing touched since: dirty region is empty.
	assert.True(t, term.Snapshot().Dirty.Empty())
}

func TestInsertDeleteChars(t *testing.T) {
	term := New(1, 8)
	feed(t, term, "abcdef\x1b[1;2H\x1b[2@")
	assert.Equal(t, "a  bcdef", term.RowString(0))

	feed(t, term, "\x1b[1;2H\x1b[2P")
	assert.Equal(t, "abcdef", term.RowString(0))
}

func TestInsertDeleteLines(t *testing.T) {
	term := New(4, 5)
	feed(t, term, "a\r\nb\r\nc\r\nd\x1b[2;1H\x1b[1M")
	assert.Equal(t, "a", term.RowString(0))
	assert.Equal(t, "c", term.RowString(1))
	assert.Equal(t, "d", term.RowString(2))

	feed(t, term, "\x1b[2;1H\x1b[1L")
	assert.Equal(t, "a", term.RowString(0))
	assert.Equal(t, "", term.RowString(1))
	assert.Equal(t, "c", term.RowString(2))
}

func TestApplicationKeypadMode(t *testing.T) {
	term := New(2, 10)
	assert.False(t, term.AppKeypad())
	feed(t, term, "\x1b=")
	assert.True(t, term.AppKeypad())
	feed(t, term, "\x1b>")
	assert.False(t, term.AppKeypad())
}

func TestMouseModeTracking(t *testing.T) {
	term := New(5, 10)

	mode, enc := term.Mouse()
	assert.Equal(t, MouseOff, mode)
	assert.Equal(t, MouseEncDefault, enc)

	feed(t, term, "\x1b[?1002h\x1b[?1006h")
	mode, enc = term.Mouse()
	assert.Equal(t, MouseButtonMotion, mode)
	assert.Equal(t, MouseEncSGR, enc)

	// Resetting a mode that is not current leaves the state alone.
	feed(t, term, "\x1b[?1000l")
	mode, _ = term.Mouse()
	assert.Equal(t, MouseButtonMotion, mode)

	feed(t, term, "\x1b[?1002l\x1b[?1006l")
	mode, enc = term.Mouse()
	assert.Equal(t, MouseOff, mode)
	assert.Equal(t, MouseEncDefault, enc)

	// RIS clears pointer reporting with everything else.
	feed(t, term, "\x1b[?1003h\x1bc")
	mode, _ = term.Mouse()
	assert.Equal(t, MouseOff, mode)
}

func TestUTF8AcrossWrites(t *testing.T) {
	term := New(1, 10)
	data := []byte("é") // 2-byte encoding, split across writes
	_, err := term.Write(data[:1])
	require.NoError(t, err)
	_, err = term.Write(data[1:])
	require.NoError(t, err)
	assert.Equal(t, "é", term.RowString(0))
}

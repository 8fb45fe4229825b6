package vt

import "strings"

// csiDispatch applies a completed CSI sequence. Unknown finals fall
// through silently; terminal protocols are permissive by construction.
func (t *Terminal) csiDispatch(final byte, params []int, private bool) {
	if private {
		t.privateMode(final, params)
		return
	}
	switch final {
	case 'A': // CUU
		t.moveCursor(t.cur.Row-param(params, 0, 1), t.cur.Col)
	case 'B', 'e': // CUD / VPR
		t.moveCursor(t.cur.Row+param(params, 0, 1), t.cur.Col)
	case 'C', 'a': // CUF / HPR
		t.moveCursor(t.cur.Row, t.cur.Col+param(params, 0, 1))
	case 'D': // CUB
		t.moveCursor(t.cur.Row, t.cur.Col-param(params, 0, 1))
	case 'E': // CNL
		t.moveCursor(t.cur.Row+param(params, 0, 1), 0)
	case 'F': // CPL
		t.moveCursor(t.cur.Row-param(params, 0, 1), 0)
	case 'G', '`': // CHA / HPA
		t.moveCursor(t.cur.Row, param(params, 0, 1)-1)
	case 'd': // VPA
		t.moveCursorAbsolute(param(params, 0, 1)-1, t.cur.Col)
	case 'H', 'f': // CUP / HVP
		t.moveCursorAbsolute(param(params, 0, 1)-1, param(params, 1, 1)-1)
	case 'J':
		t.eraseDisplay(paramOr(params, 0, 0))
	case 'K':
		t.eraseLine(paramOr(params, 0, 0))
	case 'L': // IL
		t.insertLines(param(params, 0, 1))
	case 'M': // DL
		t.deleteLines(param(params, 0, 1))
	case 'P': // DCH
		t.deleteChars(param(params, 0, 1))
	case '@': // ICH
		t.insertChars(param(params, 0, 1))
	case 'X': // ECH
		t.eraseChars(param(params, 0, 1))
	case 'S': // SU
		t.scrollUp(param(params, 0, 1))
	case 'T': // SD
		t.scrollDown(param(params, 0, 1))
	case 'm':
		t.sgr(params)
	case 'r': // DECSTBM
		t.setScrollRegion(param(params, 0, 1), param(params, 1, t.rows))
	case 's':
		t.saveCursor()
	case 'u':
		t.restoreCursor()
	case 'h', 'l':
		// ANSI modes (IRM and friends) are not tracked.
	}
}

func (t *Terminal) privateMode(final byte, params []int) {
	set := final == 'h'
	if final != 'h' && final != 'l' {
		return
	}
	for _, p := range params {
		switch p {
		case 6: // DECOM
			t.originMode = set
			t.moveCursorAbsolute(0, 0)
		case 7: // DECAWM
			t.autoWrap = set
			t.wrapPending = false
		case 25: // DECTCEM
			t.cur.Visible = set
		case 9: // X10 mouse
			t.setMouseMode(set, MousePress)
		case 1000:
			t.setMouseMode(set, MousePressRelease)
		case 1002:
			t.setMouseMode(set, MouseButtonMotion)
		case 1003:
			t.setMouseMode(set, MouseAnyMotion)
		case 1005:
			t.setMouseEncoding(set, MouseEncUTF8)
		case 1006:
			t.setMouseEncoding(set, MouseEncSGR)
		case 47, 1047:
			t.setAltScreen(set, false)
		case 1049:
			t.setAltScreen(set, true)
		}
	}
}

func (t *Terminal) setMouseMode(set bool, m MouseMode) {
	if set {
		t.mouseMode = m
	} else if t.mouseMode == m {
		t.mouseMode = MouseOff
	}
}

func (t *Terminal) setMouseEncoding(set bool, e MouseEncoding) {
	if set {
		t.mouseEnc = e
	} else if t.mouseEnc == e {
		t.mouseEnc = MouseEncDefault
	}
}

func (t *Terminal) setAltScreen(enable, saveRestore bool) {
	if enable == t.altActive {
		return
	}
	if enable {
		if saveRestore {
			t.saveCursor()
		}
		t.altActive = true
		t.altGrid = newGrid(t.rows, t.cols)
		t.cur.Row, t.cur.Col = 0, 0
	} else {
		t.altActive = false
		if saveRestore {
			t.restoreCursor()
		}
	}
	t.wrapPending = false
	t.markAllDirty()
}

// moveCursor moves relative to the scroll region when origin mode
// confines the cursor, clamping into bounds.
func (t *Terminal) moveCursor(row, col int) {
	t.wrapPending = false
	top, bottom := 0, t.rows-1
	if t.originMode {
		top, bottom = t.scrollTop, t.scrollBottom
	}
	t.cur.Row = clamp(row, top, bottom)
	t.cur.Col = clamp(col, 0, t.cols-1)
}

// moveCursorAbsolute addresses rows relative to the region top under
// origin mode, per DECOM.
func (t *Terminal) moveCursorAbsolute(row, col int) {
	if t.originMode {
		row += t.scrollTop
	}
	t.moveCursor(row, col)
}

func (t *Terminal) setScrollRegion(top, bottom int) {
	top = clamp(top-1, 0, t.rows-1)
	bottom = clamp(bottom-1, 0, t.rows-1)
	if top >= bottom {
		return
	}
	t.scrollTop = top
	t.scrollBottom = bottom
	t.moveCursorAbsolute(0, 0)
}

// --- erase operations; blanks carry the current pen ---

func (t *Terminal) eraseRowSpan(row, c0, c1 int) {
	g := t.screen()
	t.clearWideAt(row, c0)
	t.clearWideAt(row, c1)
	for c := c0; c <= c1 && c < t.cols; c++ {
		g[row][c] = blankCell(t.pen)
	}
	t.markDirty(row, c0, c1)
}

func (t *Terminal) eraseDisplay(mode int) {
	switch mode {
	case 0: // cursor to end
		t.eraseRowSpan(t.cur.Row, t.cur.Col, t.cols-1)
		for r := t.cur.Row + 1; r < t.rows; r++ {
			t.eraseRowSpan(r, 0, t.cols-1)
		}
	case 1: // beginning to cursor
		for r := 0; r < t.cur.Row; r++ {
			t.eraseRowSpan(r, 0, t.cols-1)
		}
		t.eraseRowSpan(t.cur.Row, 0, t.cur.Col)
	case 2:
		for r := 0; r < t.rows; r++ {
			t.eraseRowSpan(r, 0, t.cols-1)
		}
	case 3:
		for r := 0; r < t.rows; r++ {
			t.eraseRowSpan(r, 0, t.cols-1)
		}
		t.scrollback = nil
	}
	t.wrapPending = false
}

func (t *Terminal) eraseLine(mode int) {
	switch mode {
	case 0:
		t.eraseRowSpan(t.cur.Row, t.cur.Col, t.cols-1)
	case 1:
		t.eraseRowSpan(t.cur.Row, 0, t.cur.Col)
	case 2:
		t.eraseRowSpan(t.cur.Row, 0, t.cols-1)
	}
	t.wrapPending = false
}

func (t *Terminal) eraseChars(n int) {
	end := clamp(t.cur.Col+n-1, 0, t.cols-1)
	t.eraseRowSpan(t.cur.Row, t.cur.Col, end)
}

func (t *Terminal) insertChars(n int) {
	if t.cur.Row < 0 || t.cur.Row >= t.rows {
		return
	}
	row := t.screen()[t.cur.Row]
	n = clamp(n, 1, t.cols-t.cur.Col)
	copy(row[t.cur.Col+n:], row[t.cur.Col:t.cols-n])
	for c := t.cur.Col; c < t.cur.Col+n; c++ {
		row[c] = blankCell(t.pen)
	}
	t.markDirty(t.cur.Row, t.cur.Col, t.cols-1)
}

func (t *Terminal) deleteChars(n int) {
	row := t.screen()[t.cur.Row]
	n = clamp(n, 1, t.cols-t.cur.Col)
	copy(row[t.cur.Col:], row[t.cur.Col+n:])
	for c := t.cols - n; c < t.cols; c++ {
		row[c] = blankCell(t.pen)
	}
	t.markDirty(t.cur.Row, t.cur.Col, t.cols-1)
}

// insertLines and deleteLines operate inside the scroll region only.
func (t *Terminal) insertLines(n int) {
	if t.cur.Row < t.scrollTop || t.cur.Row > t.scrollBottom {
		return
	}
	savedTop := t.scrollTop
	t.scrollTop = t.cur.Row
	t.scrollDown(n)
	t.scrollTop = savedTop
	t.cur.Col = 0
}

func (t *Terminal) deleteLines(n int) {
	if t.cur.Row < t.scrollTop || t.cur.Row > t.scrollBottom {
		return
	}
	savedTop := t.scrollTop
	savedHistory := t.maxScrollback
	t.scrollTop = t.cur.Row
	t.maxScrollback = 0 // deleted lines are not history
	t.scrollUp(n)
	t.scrollTop = savedTop
	t.maxScrollback = savedHistory
	t.cur.Col = 0
}

// --- SGR ---

func (t *Terminal) sgr(params []int) {
	if len(params) == 0 {
		t.pen = DefaultStyle()
		return
	}
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			t.pen = DefaultStyle()
		case p == 1:
			t.pen.Attr |= AttrBold
		case p == 2:
			t.pen.Attr |= AttrDim
		case p == 3:
			t.pen.Attr |= AttrItalic
		case p == 4:
			t.pen.Attr |= AttrUnderline
		case p == 5:
			t.pen.Attr |= AttrBlink
		case p == 7:
			t.pen.Attr |= AttrInverse
		case p == 8:
			t.pen.Attr |= AttrHidden
		case p == 9:
			t.pen.Attr |= AttrStrike
		case p == 22:
			t.pen.Attr &^= AttrBold | AttrDim
		case p == 23:
			t.pen.Attr &^= AttrItalic
		case p == 24:
			t.pen.Attr &^= AttrUnderline
		case p == 25:
			t.pen.Attr &^= AttrBlink
		case p == 27:
			t.pen.Attr &^= AttrInverse
		case p == 28:
			t.pen.Attr &^= AttrHidden
		case p == 29:
			t.pen.Attr &^= AttrStrike
		case p >= 30 && p <= 37:
			t.pen.FG = IndexedColor(uint8(p - 30))
		case p == 38:
			if c, skip, ok := extendedColor(params[i+1:]); ok {
				t.pen.FG = c
				i += skip
			} else {
				return
			}
		case p == 39:
			t.pen.FG = DefaultColor()
		case p >= 40 && p <= 47:
			t.pen.BG = IndexedColor(uint8(p - 40))
		case p == 48:
			if c, skip, ok := extendedColor(params[i+1:]); ok {
				t.pen.BG = c
				i += skip
			} else {
				return
			}
		case p == 49:
			t.pen.BG = DefaultColor()
		case p >= 90 && p <= 97:
			t.pen.FG = IndexedColor(uint8(p - 90 + 8))
		case p >= 100 && p <= 107:
			t.pen.BG = IndexedColor(uint8(p - 100 + 8))
		}
	}
}

// extendedColor parses the tail of a 38/48 sequence: 5;n or 2;r;g;b.
func extendedColor(rest []int) (Color, int, bool) {
	if len(rest) >= 2 && rest[0] == 5 {
		return IndexedColor(uint8(clamp(rest[1], 0, 255))), 2, true
	}
	if len(rest) >= 4 && rest[0] == 2 {
		return RGBColor(
			uint8(clamp(rest[1], 0, 255)),
			uint8(clamp(rest[2], 0, 255)),
			uint8(clamp(rest[3], 0, 255)),
		), 4, true
	}
	return Color{}, 0, false
}

// handleOSC applies an operating system command string. Only title
// updates (OSC 0 and 2) are acted on.
func (t *Terminal) handleOSC(data string) {
	code, rest, ok := strings.Cut(data, ";")
	if !ok {
		return
	}
	switch code {
	case "0", "2":
		t.title = rest
	}
}

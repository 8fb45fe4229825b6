package compositor

import (
	"bytes"
	"fmt"

	"github.com/Gbr22/citymux/internal/vt"
)

// writeSGR emits one combined SGR sequence setting the style from a
// reset baseline, so the emitted stream never depends on prior state.
func writeSGR(buf *bytes.Buffer, s vt.Style) {
	buf.WriteString("\x1b[0")
	attrs := []struct {
		flag vt.Attr
		code int
	}{
		{vt.AttrBold, 1},
		{vt.AttrDim, 2},
		{vt.AttrItalic, 3},
		{vt.AttrUnderline, 4},
		{vt.AttrBlink, 5},
		{vt.AttrInverse, 7},
		{vt.AttrHidden, 8},
		{vt.AttrStrike, 9},
	}
	for _, a := range attrs {
		if s.Attr&a.flag != 0 {
			fmt.Fprintf(buf, ";%d", a.code)
		}
	}
	writeColor(buf, s.FG, false)
	writeColor(buf, s.BG, true)
	buf.WriteByte('m')
}

func writeColor(buf *bytes.Buffer, c vt.Color, background bool) {
	switch c.Mode {
	case vt.ColorDefault:
	case vt.ColorIndexed:
		n := int(c.Value)
		switch {
		case n < 8 && !background:
			fmt.Fprintf(buf, ";%d", 30+n)
		case n < 8:
			fmt.Fprintf(buf, ";%d", 40+n)
		case n < 16 && !background:
			fmt.Fprintf(buf, ";%d", 90+n-8)
		case n < 16:
			fmt.Fprintf(buf, ";%d", 100+n-8)
		case !background:
			fmt.Fprintf(buf, ";38;5;%d", n)
		default:
			fmt.Fprintf(buf, ";48;5;%d", n)
		}
	case vt.ColorRGB:
		r := (c.Value >> 16) & 0xff
		g := (c.Value >> 8) & 0xff
		b := c.Value & 0xff
		if background {
			fmt.Fprintf(buf, ";48;2;%d;%d;%d", r, g, b)
		} else {
			fmt.Fprintf(buf, ";38;2;%d;%d;%d", r, g, b)
		}
	}
}

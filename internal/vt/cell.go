package vt

// ColorMode selects how a Color value is interpreted.
type ColorMode uint8

const (
	// ColorDefault is the terminal's default foreground or background.
	ColorDefault ColorMode = iota
	// ColorIndexed is a palette index (0-255).
	ColorIndexed
	// ColorRGB is a 24-bit truecolor value (0xRRGGBB).
	ColorRGB
)

// Color is a cell foreground or background color.
type Color struct {
	Mode  ColorMode
	Value uint32
}

// DefaultColor returns the terminal default color.
func DefaultColor() Color {
	return Color{Mode: ColorDefault}
}

// IndexedColor returns a palette color.
func IndexedColor(index uint8) Color {
	return Color{Mode: ColorIndexed, Value: uint32(index)}
}

// RGBColor returns a truecolor value.
func RGBColor(r, g, b uint8) Color {
	return Color{Mode: ColorRGB, Value: uint32(r)<<16 | uint32(g)<<8 | uint32(b)}
}

// Attr is a bitmask of SGR style flags.
type Attr uint16

const (
	AttrBold Attr = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrInverse
	AttrHidden
	AttrStrike
)

// Style is the pen state applied to printed and erased cells.
type Style struct {
	FG   Color
	BG   Color
	Attr Attr
}

// DefaultStyle returns the reset pen.
func DefaultStyle() Style {
	return Style{FG: DefaultColor(), BG: DefaultColor()}
}

// Cell width markers. A wide glyph occupies a head cell (WidthWide)
// followed by one continuation cell (WidthSpacer) that carries no rune.
const (
	WidthNormal uint8 = 1
	WidthWide   uint8 = 2
	WidthSpacer uint8 = 0
)

// Cell is one character position in the screen grid.
type Cell struct {
	Rune  rune
	Width uint8
	Style Style
}

// blankCell returns an erased cell carrying the given pen, per the
// convention that erase operations use current attributes.
func blankCell(style Style) Cell {
	return Cell{Rune: ' ', Width: WidthNormal, Style: style}
}

// IsSpacer reports whether the cell is the continuation half of a wide glyph.
func (c Cell) IsSpacer() bool {
	return c.Width == WidthSpacer
}

// Package screen implements the cell grid that backs a single pane's
// terminal contents: the Cell model and the Screen buffer with its cursor,
// scrolling region and alternate-screen state. The cursor stays within
// the visible rows, and a line scrolled off the top of the scrolling
// region is discarded: no scrollback history is retained.
package screen

// Attr is a bitmask of SGR text attributes.
type Attr uint16

const (
	AttrBold Attr = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrReverse
	AttrHidden
	AttrStrikethrough
)

// Color is either the default color (Set == false) or an SGR color index
// (0-255 for palette colors, or an RGB-packed value with True set).
type Color struct {
	Set  bool
	True bool
	R, G, B uint8
	Index   uint8
}

// DefaultColor is the unset, "use the terminal's default" color.
var DefaultColor = Color{}

// Cell is a single grid position: a grapheme cluster plus its rendering
// attributes. Rune holds the cluster's base rune (used for width lookups
// and the common single-rune case); Grapheme holds the full cluster text
// when a combining mark was merged onto it, and is empty otherwise. A
// double-width rune occupies two adjacent Cells; the second is a
// zero-width continuation marked by Width == wideContinuation.
type Cell struct {
	Rune     rune
	Grapheme string
	Width    uint8
	Attrs    Attr
	Fg       Color
	Bg       Color
}

const wideContinuation = 0

// EmptyCell is the value a freshly cleared grid position holds.
var EmptyCell = Cell{Rune: ' ', Width: 1}

// IsWide reports whether this cell begins a double-width rune.
func (c Cell) IsWide() bool { return c.Width >= 2 }

// Text returns the cell's full grapheme cluster: Grapheme if a combining
// mark was merged onto this cell, otherwise its single Rune.
func (c Cell) Text() string {
	if c.Grapheme != "" {
		return c.Grapheme
	}
	if c.Rune == 0 {
		return ""
	}
	return string(c.Rune)
}

package server

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"wmux/internal/arrangement"
	"wmux/internal/screen"
)

// Render draws c's focused window into a full-screen redraw: each
// pane's visible rows at its computed rectangle, single-cell borders
// between panes, and a status bar line if enabled. It is the server's
// built-in renderer; an external renderer could instead read the same
// data (Screen cells, Window.root, ClientState overlay fields) via the
// exported accessors this package already provides.
func (s *Server) Render(c *ClientState) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	buf.WriteString("\033[2J\033[H")

	win, ok := s.activeWindowLocked(c.ID)
	if !ok {
		return buf.Bytes()
	}

	rows, cols := c.Rows, c.Cols
	if s.SessionOpts.GetBool("status") {
		rows--
	}
	rects := Layout(win, cols, rows)
	for pane, r := range rects {
		p, ok := s.panes[pane.ID]
		if !ok {
			continue
		}
		renderPane(&buf, p.Screen, r, c.ColorDepth)
	}
	drawBorders(&buf, win, rects)

	if c.paneNumbersVisible {
		drawPaneNumbers(&buf, rects)
	}

	if s.SessionOpts.GetBool("status") {
		drawStatusLine(&buf, s, c, win, rows+1, cols)
	}

	if active, ok := rects[win.Active]; ok && win.Active != nil && !c.promptPending && !c.confirming {
		p := s.panes[win.Active.ID]
		if p != nil {
			cx, cy := localCursor(p.Screen, active.H)
			fmt.Fprintf(&buf, "\033[%d;%dH", active.Y+cy+1, active.X+cx+1)
		}
	}

	c.Dirty = false
	return buf.Bytes()
}

// renderPane writes scr's visible rows into buf at r, emitting SGR
// codes for each cell's attributes and colors, downgraded to fit
// depth — the client's negotiated ClientState.ColorDepth.
func renderPane(buf *bytes.Buffer, scr *screen.Screen, r Rect, depth string) {
	top := scr.CursorY - r.H + 1
	if top < 0 {
		top = 0
	}
	var active cellStyle
	for i := 0; i < r.H; i++ {
		fmt.Fprintf(buf, "\033[%d;%dH", r.Y+i+1, r.X+1)
		row := top + i
		for x := 0; x < r.W; x++ {
			cell := scr.Cell(x, row)
			writeStyleTransition(buf, &active, cellStyle{cell.Attrs, cell.Fg, cell.Bg}, depth)
			if cell.Rune == 0 {
				buf.WriteByte(' ')
				continue
			}
			buf.WriteString(cell.Text())
		}
	}
	if active != (cellStyle{}) {
		buf.WriteString("\033[0m")
	}
}

// cellStyle is the subset of a Cell that determines its SGR rendering.
type cellStyle struct {
	attrs  screen.Attr
	fg, bg screen.Color
}

// writeStyleTransition emits the SGR sequence needed to move buf's
// active render state from *active to want, skipping the write
// entirely when nothing changed (the common case across a run of
// plain text).
func writeStyleTransition(buf *bytes.Buffer, active *cellStyle, want cellStyle, depth string) {
	if *active == want {
		return
	}
	codes := []string{"0"}
	if want.attrs&screen.AttrBold != 0 {
		codes = append(codes, "1")
	}
	if want.attrs&screen.AttrDim != 0 {
		codes = append(codes, "2")
	}
	if want.attrs&screen.AttrItalic != 0 {
		codes = append(codes, "3")
	}
	if want.attrs&screen.AttrUnderline != 0 {
		codes = append(codes, "4")
	}
	if want.attrs&screen.AttrBlink != 0 {
		codes = append(codes, "5")
	}
	if want.attrs&screen.AttrReverse != 0 {
		codes = append(codes, "7")
	}
	if want.attrs&screen.AttrHidden != 0 {
		codes = append(codes, "8")
	}
	if want.attrs&screen.AttrStrikethrough != 0 {
		codes = append(codes, "9")
	}
	codes = append(codes, colorCodes(want.fg, depth, false)...)
	codes = append(codes, colorCodes(want.bg, depth, true)...)
	fmt.Fprintf(buf, "\033[%sm", strings.Join(codes, ";"))
	*active = want
}

// colorCodes returns the SGR parameters for c, downgraded to fit depth
// ("ansi", "ansi256", "truecolor"; anything else is treated as
// ansi256, the same fallback detectColorDepth uses for a non-tty
// client). bg selects the background code range.
func colorCodes(c screen.Color, depth string, bg bool) []string {
	if !c.Set {
		return nil
	}
	kind := "38"
	if bg {
		kind = "48"
	}
	switch {
	case c.True && depth == "truecolor":
		return []string{kind, "2", fmt.Sprint(c.R), fmt.Sprint(c.G), fmt.Sprint(c.B)}
	case c.True && depth == "ansi":
		return ansiCode(idx256To16(rgbTo256(c.R, c.G, c.B)), bg)
	case c.True:
		return []string{kind, "5", fmt.Sprint(rgbTo256(c.R, c.G, c.B))}
	case c.Index < 16:
		return ansiCode(c.Index, bg)
	case depth == "ansi":
		return ansiCode(idx256To16(c.Index), bg)
	default:
		return []string{kind, "5", fmt.Sprint(c.Index)}
	}
}

// ansiCode returns the classic 30-37/90-97 (or 40-47/100-107 for bg)
// SGR code for one of the 16 base colors.
func ansiCode(idx uint8, bg bool) []string {
	base := 30
	if bg {
		base = 40
	}
	if idx >= 8 {
		base += 60
		idx -= 8
	}
	return []string{fmt.Sprint(base + int(idx))}
}

// rgbTo256 maps a 24-bit color onto xterm's 6x6x6 color cube
// (indices 16-231), the standard truecolor-to-256 downgrade.
func rgbTo256(r, g, b uint8) uint8 {
	to6 := func(v uint8) int { return int(v) * 5 / 255 }
	return uint8(16 + 36*to6(r) + 6*to6(g) + to6(b))
}

// idx256To16 folds a 256-palette index down to the nearest of the 16
// base colors, for a client too limited even for indexed color.
func idx256To16(idx uint8) uint8 {
	if idx < 16 {
		return idx
	}
	if idx >= 232 {
		if idx < 244 {
			return 0
		}
		return 15
	}
	i := int(idx) - 16
	r, g, b := (i/36)%6, (i/6)%6, i%6
	var idx16 uint8
	if r > 2 {
		idx16 |= 1
	}
	if g > 2 {
		idx16 |= 2
	}
	if b > 2 {
		idx16 |= 4
	}
	if r > 3 || g > 3 || b > 3 {
		idx16 += 8
	}
	return idx16
}

// localCursor returns the cursor's position relative to the visible
// window of height h, anchored so the cursor's row is always shown
// (mirroring a scrollback viewport anchored to the live cursor).
func localCursor(scr *screen.Screen, h int) (x, y int) {
	top := scr.CursorY - h + 1
	if top < 0 {
		top = 0
	}
	return scr.CursorX, scr.CursorY - top
}

func drawBorders(buf *bytes.Buffer, w *arrangement.Window, rects map[*arrangement.Pane]Rect) {
	if w.Zoom || len(rects) < 2 {
		return
	}
	for _, r := range rects {
		if r.X > 0 {
			for y := 0; y < r.H; y++ {
				fmt.Fprintf(buf, "\033[%d;%dH│", r.Y+y+1, r.X)
			}
		}
		if r.Y > 0 {
			for x := 0; x < r.W; x++ {
				fmt.Fprintf(buf, "\033[%d;%dH─", r.Y, r.X+x+1)
			}
		}
	}
}

func drawPaneNumbers(buf *bytes.Buffer, rects map[*arrangement.Pane]Rect) {
	for pane, r := range rects {
		cx, cy := r.X+r.W/2, r.Y+r.H/2
		fmt.Fprintf(buf, "\033[%d;%dH\033[7m %d \033[0m", cy+1, cx, pane.ID)
	}
}

func drawStatusLine(buf *bytes.Buffer, s *Server, c *ClientState, w *arrangement.Window, row, cols int) {
	fmt.Fprintf(buf, "\033[%d;1H\033[K\033[7m", row)
	switch {
	case c.confirming:
		fmt.Fprintf(buf, " %s (y/n)", c.confirmMsg)
	case c.promptPending:
		fmt.Fprintf(buf, " %s%s_", c.promptMsg, c.promptInput)
	case c.Message != "":
		fmt.Fprintf(buf, " %s", c.Message)
	default:
		var names string
		for _, win := range s.Arr.Windows {
			marker := " "
			if win == w {
				marker = "*"
			}
			names += fmt.Sprintf(" %d%s%s", win.Index, marker, win.Name)
		}
		clock := time.Now().Format("15:04:05")
		pad := cols - len(names) - len(clock) - 2
		if pad < 1 {
			pad = 1
		}
		fmt.Fprintf(buf, "%s%*s%s", names, pad, "", clock)
	}
	buf.WriteString("\033[0m")
}

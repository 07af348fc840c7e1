package screen

import (
	"fmt"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Mode is a DEC/ANSI mode flag tracked on a Screen.
type Mode uint32

const (
	ModeAutoWrap Mode = 1 << iota // DECAWM
	ModeCursorVisible              // DECTCEM
	ModeInsert                     // IRM
	ModeOrigin                     // DECOM
	ModeLinefeed                   // LNM
	ModeReverseVideo               // DECSCNM
	ModeMouseX10
	ModeMouseButton
	ModeMouseSGR
	ModeMouseAny
	ModeBracketedPaste
	ModeApplicationCursor
)

// Private DEC mode codes (preceded by '?' in CSI).
const (
	decAppCursorKeys = 1
	decColumn132     = 3
	decOrigin        = 6
	decAutoWrap      = 7
	decCursorVisible = 25
	decMouseX10      = 1000
	decMouseButton   = 1002
	decMouseAny      = 1003
	decMouseSGR      = 1006
	decBracketPaste  = 2004
	decAltScreen     = 1049
)

// ANSI (non-private) mode codes.
const (
	ansiInsert   = 4
	ansiLinefeed = 20
)

type cursorState struct {
	x, y       int
	attrs      Attr
	fg, bg     Color
	origin     bool
	wrap       bool
	g0, g1     rune
	charsetIdx int
}

// Screen is the authoritative cell-grid model for one pane, mutated by
// Stream as it decodes a VT100/ANSI byte stream.
type Screen struct {
	Lines, Columns int

	data map[int]map[int]Cell

	CursorX, CursorY int

	MaxY       int
	LineOffset int

	marginTop, marginBottom int
	marginsExplicit         bool

	tabStops map[int]bool

	g0, g1     rune
	charsetIdx int

	modes Mode

	pendingAttrs Attr
	pendingFg    Color
	pendingBg    Color

	saved []cursorState

	Title, IconName string

	historyLimit int
	indexCalls   int

	altScreen bool
	altBackup *altBackup

	Bell             func()
	WriteProcessInput func([]byte)
}

type altBackup struct {
	data                    map[int]map[int]Cell
	cursorX, cursorY        int
	maxY, lineOffset        int
	marginTop, marginBottom int
	marginsExplicit         bool
	tabStops                map[int]bool
	g0, g1                  rune
	charsetIdx              int
	modes                   Mode
}

// New builds a Screen of the given size with default tab stops every 8
// columns, autowrap and cursor-visible modes on, and the default charset.
func New(lines, columns int) *Screen {
	s := &Screen{
		Lines:        lines,
		Columns:      columns,
		data:         make(map[int]map[int]Cell),
		modes:        ModeAutoWrap | ModeCursorVisible,
		marginTop:    0,
		marginBottom: lines - 1,
		historyLimit: 2000,
		g0:           0,
		g1:           0,
	}
	s.tabStops = defaultTabStops(1000)
	return s
}

func defaultTabStops(upTo int) map[int]bool {
	m := make(map[int]bool)
	for i := 8; i <= upTo; i += 8 {
		m[i] = true
	}
	return m
}

// SetHistoryLimit sets the scrollback row cap used by pruning.
func (s *Screen) SetHistoryLimit(n int) { s.historyLimit = n }

// VisibleText renders the height rows ending at the cursor's row (or
// the first height rows, when the cursor is nearer the top) as plain
// text, one line per row with trailing blanks trimmed, the same
// viewport renderPane draws from. Used by copy-mode yank to capture
// what the client can currently see.
func (s *Screen) VisibleText(height int) string {
	top := s.CursorY - height + 1
	if top < 0 {
		top = 0
	}
	var b []byte
	for i := 0; i < height; i++ {
		row := top + i
		line := make([]rune, 0, s.Columns)
		for x := 0; x < s.Columns; x++ {
			c := s.Cell(x, row)
			if c.Rune == 0 {
				line = append(line, ' ')
				continue
			}
			line = append(line, []rune(c.Text())...)
		}
		for len(line) > 0 && line[len(line)-1] == ' ' {
			line = line[:len(line)-1]
		}
		b = append(b, []byte(string(line))...)
		if i < height-1 {
			b = append(b, '\n')
		}
	}
	return string(b)
}

func (s *Screen) row(y int) map[int]Cell {
	r := s.data[y]
	if r == nil {
		r = make(map[int]Cell)
		s.data[y] = r
	}
	return r
}

// Cell returns the cell at (x, y), or EmptyCell if unset.
func (s *Screen) Cell(x, y int) Cell {
	if r, ok := s.data[y]; ok {
		if c, ok := r[x]; ok {
			return c
		}
	}
	return EmptyCell
}

func (s *Screen) setCell(x, y int, c Cell) {
	s.row(y)[x] = c
	if y > s.MaxY {
		s.MaxY = y
	}
}

// margins returns the top/bottom scrolling bounds; callers decide whether
// DECOM applies.
func (s *Screen) margins() (int, int) {
	return s.marginTop, s.marginBottom
}

func (s *Screen) clampCursor() {
	if s.CursorX < 0 {
		s.CursorX = 0
	}
	if s.CursorX >= s.Columns {
		s.CursorX = s.Columns - 1
	}
	lo, hi := 0, s.Lines-1
	if s.modes&ModeOrigin != 0 {
		lo, hi = s.margins()
	}
	if s.CursorY < lo {
		s.CursorY = lo
	}
	if s.CursorY > hi {
		s.CursorY = hi
	}
	if s.CursorY > s.MaxY {
		s.MaxY = s.CursorY
	}
}

// Draw writes a run of printable characters at the cursor honoring
// autowrap, insert mode, and the current pending SGR attributes. text is
// walked one grapheme cluster at a time (via uniseg, the same clustering
// Stream.groundRun already used to assemble it) so a zero-width cluster —
// a combining mark landing on its own, or one that survived groundRun's
// clustering at a chunk boundary — merges into the previous cell instead
// of being dropped or occupying its own column.
func (s *Screen) Draw(text string) {
	gstate := -1
	for len(text) > 0 {
		cluster, rest, _, newState := uniseg.FirstGraphemeClusterInString(text, gstate)
		gstate = newState
		text = rest
		if cluster == "" {
			break
		}
		w := runewidth.StringWidth(cluster)
		if w == 0 {
			s.mergeIntoPrevious(cluster)
			continue
		}
		r, _ := utf8.DecodeRuneInString(cluster)
		cell := Cell{Rune: r, Width: uint8(w), Attrs: s.pendingAttrs, Fg: s.pendingFg, Bg: s.pendingBg}
		if len(cluster) > utf8.RuneLen(r) {
			cell.Grapheme = cluster
		}
		if s.CursorX+w > s.Columns && s.modes&ModeAutoWrap != 0 {
			s.CarriageReturn()
			s.Index()
		}
		if s.modes&ModeInsert != 0 {
			s.shiftRight(s.CursorX, w)
		}
		s.setCell(s.CursorX, s.CursorY, cell)
		if w == 2 && s.CursorX+1 < s.Columns {
			s.setCell(s.CursorX+1, s.CursorY, Cell{Rune: 0, Width: wideContinuation})
		}
		s.CursorX += w
		if s.CursorX > s.Columns {
			s.CursorX = s.Columns
		}
	}
}

// mergeIntoPrevious appends a zero-width grapheme cluster (a combining
// mark with nothing to attach to within its own cluster) onto the cell
// immediately to the left of the cursor, the same cell the base
// character it modifies was just drawn into.
func (s *Screen) mergeIntoPrevious(cluster string) {
	x := s.CursorX - 1
	if x < 0 {
		return
	}
	row := s.row(s.CursorY)
	prev, ok := row[x]
	if !ok {
		prev = EmptyCell
	}
	prev.Grapheme = prev.Text() + cluster
	row[x] = prev
}

func (s *Screen) shiftRight(fromX, width int) {
	row := s.row(s.CursorY)
	for x := s.Columns - 1; x >= fromX+width; x-- {
		if c, ok := row[x-width]; ok {
			row[x] = c
		} else {
			delete(row, x)
		}
	}
}

// CarriageReturn moves the cursor to column 0.
func (s *Screen) CarriageReturn() { s.CursorX = 0 }

// Index is LF with scroll: moves down one line, scrolling the margin
// region up by one when the cursor is already at the bottom margin.
func (s *Screen) Index() {
	s.indexCalls++
	top, bottom := s.margins()
	if s.CursorY == bottom {
		s.scrollUp(top, bottom, 1)
	} else {
		s.CursorY++
	}
	s.clampCursor()
	if s.indexCalls%100 == 0 {
		s.pruneHistory()
	}
}

// ReverseIndex moves up one line, scrolling down at the top margin.
func (s *Screen) ReverseIndex() {
	top, bottom := s.margins()
	if s.CursorY == top {
		s.scrollDown(top, bottom, 1)
	} else {
		s.CursorY--
	}
	s.clampCursor()
}

// Linefeed moves down one line; under LNM it also carriage-returns.
func (s *Screen) Linefeed() {
	s.Index()
	if s.modes&ModeLinefeed != 0 {
		s.CarriageReturn()
	}
}

// NextLine is carriage return followed by index.
func (s *Screen) NextLine() {
	s.CarriageReturn()
	s.Index()
}

// Tab advances the cursor to the next tab stop, or the last column.
func (s *Screen) Tab() {
	for x := s.CursorX + 1; x < s.Columns; x++ {
		if s.tabStops[x] {
			s.CursorX = x
			return
		}
	}
	s.CursorX = s.Columns - 1
}

// Backspace moves the cursor left one column, not past column 0.
func (s *Screen) Backspace() {
	if s.CursorX > 0 {
		s.CursorX--
	}
}

func (s *Screen) CursorUp(n int)    { s.CursorY -= n; s.clampCursor() }
func (s *Screen) CursorDown(n int)  { s.CursorY += n; s.clampCursor() }
func (s *Screen) CursorBack(n int)  { s.CursorX -= n; s.clampCursor() }
func (s *Screen) CursorForward(n int) { s.CursorX += n; s.clampCursor() }

func (s *Screen) CursorToColumn(n int) { s.CursorX = n; s.clampCursor() }
func (s *Screen) CursorToLine(n int)   { s.CursorY = n; s.clampCursor() }

func (s *Screen) CursorPosition(line, col int) {
	base := 0
	if s.modes&ModeOrigin != 0 {
		base = s.marginTop
	}
	s.CursorY = base + line
	s.CursorX = col
	s.clampCursor()
}

func (s *Screen) scrollUp(top, bottom, n int) {
	for i := 0; i < n; i++ {
		for y := top; y < bottom; y++ {
			s.data[y] = s.data[y+1]
		}
		delete(s.data, bottom)
	}
}

func (s *Screen) scrollDown(top, bottom, n int) {
	for i := 0; i < n; i++ {
		for y := bottom; y > top; y-- {
			s.data[y] = s.data[y-1]
		}
		delete(s.data, top)
	}
}

// InsertLines inserts n blank lines at the cursor row, within margins.
func (s *Screen) InsertLines(n int) {
	top, bottom := s.margins()
	if s.CursorY < top || s.CursorY > bottom {
		return
	}
	for i := 0; i < n; i++ {
		for y := bottom; y > s.CursorY; y-- {
			s.data[y] = s.data[y-1]
		}
		delete(s.data, s.CursorY)
	}
}

// DeleteLines deletes n lines at the cursor row, within margins.
func (s *Screen) DeleteLines(n int) {
	top, bottom := s.margins()
	if s.CursorY < top || s.CursorY > bottom {
		return
	}
	for i := 0; i < n; i++ {
		for y := s.CursorY; y < bottom; y++ {
			s.data[y] = s.data[y+1]
		}
		delete(s.data, bottom)
	}
}

// InsertCharacters shifts n blank cells in at the cursor column.
func (s *Screen) InsertCharacters(n int) { s.shiftRight(s.CursorX, n) }

// DeleteCharacters removes n cells at the cursor column, shifting left.
func (s *Screen) DeleteCharacters(n int) {
	row := s.row(s.CursorY)
	for x := s.CursorX; x < s.Columns; x++ {
		if c, ok := row[x+n]; ok {
			row[x] = c
		} else {
			delete(row, x)
		}
	}
}

// EraseCharacters blanks n cells starting at the cursor without shifting.
func (s *Screen) EraseCharacters(n int) {
	row := s.row(s.CursorY)
	for x := s.CursorX; x < s.CursorX+n && x < s.Columns; x++ {
		delete(row, x)
	}
}

// EraseInLine erases part of the cursor's row. mode: 0 cursor→EOL,
// 1 BOL→cursor, 2 whole line.
func (s *Screen) EraseInLine(mode int) {
	row := s.row(s.CursorY)
	switch mode {
	case 0:
		for x := s.CursorX; x < s.Columns; x++ {
			delete(row, x)
		}
	case 1:
		for x := 0; x <= s.CursorX; x++ {
			delete(row, x)
		}
	case 2:
		for x := 0; x < s.Columns; x++ {
			delete(row, x)
		}
	}
}

// EraseInDisplay erases part of the screen. mode: 0 cursor→end,
// 1 start→cursor, 2 whole screen, 3 also clears history.
func (s *Screen) EraseInDisplay(mode int) {
	switch mode {
	case 0:
		s.EraseInLine(0)
		for y := s.CursorY + 1; y <= s.MaxY; y++ {
			delete(s.data, y)
		}
	case 1:
		s.EraseInLine(1)
		for y := 0; y < s.CursorY; y++ {
			delete(s.data, y)
		}
	case 2:
		for y := 0; y <= s.MaxY; y++ {
			delete(s.data, y)
		}
	case 3:
		s.ClearHistory()
		for y := 0; y <= s.MaxY; y++ {
			delete(s.data, y)
		}
	}
}

// ClearHistory drops all rows above the visible window.
func (s *Screen) ClearHistory() {
	for y := range s.data {
		if y < s.LineOffset {
			delete(s.data, y)
		}
	}
}

func (s *Screen) pruneHistory() {
	floor := s.CursorY - s.historyLimit
	if floor <= 0 {
		return
	}
	for y := range s.data {
		if y < floor {
			delete(s.data, y)
		}
	}
}

func privateCode(code int) int { return code | (1 << 20) }

// SetMode applies a batch of mode codes, private when preceded by '?'.
func (s *Screen) SetMode(codes []int, private bool) {
	for _, code := range codes {
		s.applyMode(code, private, true)
	}
}

// ResetMode clears a batch of mode codes.
func (s *Screen) ResetMode(codes []int, private bool) {
	for _, code := range codes {
		s.applyMode(code, private, false)
	}
}

func (s *Screen) applyMode(code int, private, on bool) {
	if !private {
		switch code {
		case ansiInsert:
			s.setFlag(ModeInsert, on)
		case ansiLinefeed:
			s.setFlag(ModeLinefeed, on)
		}
		return
	}
	switch code {
	case decAppCursorKeys:
		s.setFlag(ModeApplicationCursor, on)
	case decColumn132:
		cols := 80
		if on {
			cols = 132
		}
		s.Resize(s.Lines, cols)
		s.EraseInDisplay(2)
	case decOrigin:
		s.setFlag(ModeOrigin, on)
		s.CursorPosition(0, 0)
	case decAutoWrap:
		s.setFlag(ModeAutoWrap, on)
	case decCursorVisible:
		s.setFlag(ModeCursorVisible, on)
	case decMouseX10:
		s.setFlag(ModeMouseX10, on)
	case decMouseButton:
		s.setFlag(ModeMouseButton, on)
	case decMouseAny:
		s.setFlag(ModeMouseAny, on)
	case decMouseSGR:
		s.setFlag(ModeMouseSGR, on)
	case decBracketPaste:
		s.setFlag(ModeBracketedPaste, on)
	case decAltScreen:
		if on {
			s.enterAltScreen()
		} else {
			s.exitAltScreen()
		}
	}
}

func (s *Screen) setFlag(m Mode, on bool) {
	if on {
		s.modes |= m
	} else {
		s.modes &^= m
	}
}

// Mode reports whether m is currently set.
func (s *Screen) Mode(m Mode) bool { return s.modes&m != 0 }

// CursorVisible reports DECTCEM's current state. Derived from modes
// rather than tracked separately, so it can never drift from the
// swap-variable backup an alt-screen enter/exit round-trip restores.
func (s *Screen) CursorVisible() bool { return s.modes&ModeCursorVisible != 0 }

func (s *Screen) enterAltScreen() {
	if s.altScreen {
		return
	}
	s.altBackup = &altBackup{
		data:            s.data,
		cursorX:         s.CursorX,
		cursorY:         s.CursorY,
		maxY:            s.MaxY,
		lineOffset:      s.LineOffset,
		marginTop:       s.marginTop,
		marginBottom:    s.marginBottom,
		marginsExplicit: s.marginsExplicit,
		tabStops:        s.tabStops,
		g0:              s.g0,
		g1:              s.g1,
		charsetIdx:      s.charsetIdx,
		modes:           s.modes,
	}
	s.altScreen = true
	s.data = make(map[int]map[int]Cell)
	s.CursorX, s.CursorY, s.MaxY, s.LineOffset = 0, 0, 0, 0
}

func (s *Screen) exitAltScreen() {
	if !s.altScreen || s.altBackup == nil {
		return
	}
	b := s.altBackup
	s.data = b.data
	s.CursorX, s.CursorY = b.cursorX, b.cursorY
	s.MaxY, s.LineOffset = b.maxY, b.lineOffset
	s.marginTop, s.marginBottom = b.marginTop, b.marginBottom
	s.marginsExplicit = b.marginsExplicit
	s.tabStops = b.tabStops
	s.g0, s.g1 = b.g0, b.g1
	s.charsetIdx = b.charsetIdx
	s.modes = b.modes
	s.altScreen = false
	s.altBackup = nil
}

// SetScrollRegion sets the explicit scrolling margins (DECSTBM).
func (s *Screen) SetScrollRegion(top, bottom int) {
	if top < 0 {
		top = 0
	}
	if bottom >= s.Lines {
		bottom = s.Lines - 1
	}
	if top >= bottom {
		return
	}
	s.marginTop, s.marginBottom = top, bottom
	s.marginsExplicit = true
	s.CursorPosition(0, 0)
}

// SetCharset selects code into G0 ('(') or G1 (')').
func (s *Screen) SetCharset(code rune, mode rune) {
	switch mode {
	case '(':
		s.g0 = code
	case ')':
		s.g1 = code
	}
}

// ShiftIn/ShiftOut select the active charset slot (G0/G1).
func (s *Screen) ShiftIn()  { s.charsetIdx = 0 }
func (s *Screen) ShiftOut() { s.charsetIdx = 1 }

// SelectGraphicRendition accumulates SGR attribute codes into the pending
// text attributes applied by subsequent Draw calls.
func (s *Screen) SelectGraphicRendition(attrs ...int) {
	i := 0
	for i < len(attrs) {
		a := attrs[i]
		switch {
		case a == 0:
			s.pendingAttrs = 0
			s.pendingFg, s.pendingBg = DefaultColor, DefaultColor
		case a == 1:
			s.pendingAttrs |= AttrBold
		case a == 2:
			s.pendingAttrs |= AttrDim
		case a == 3:
			s.pendingAttrs |= AttrItalic
		case a == 4:
			s.pendingAttrs |= AttrUnderline
		case a == 5 || a == 6:
			s.pendingAttrs |= AttrBlink
		case a == 7:
			s.pendingAttrs |= AttrReverse
		case a == 8:
			s.pendingAttrs |= AttrHidden
		case a == 9:
			s.pendingAttrs |= AttrStrikethrough
		case a == 22:
			s.pendingAttrs &^= (AttrBold | AttrDim)
		case a == 23:
			s.pendingAttrs &^= AttrItalic
		case a == 24:
			s.pendingAttrs &^= AttrUnderline
		case a == 25:
			s.pendingAttrs &^= AttrBlink
		case a == 27:
			s.pendingAttrs &^= AttrReverse
		case a == 28:
			s.pendingAttrs &^= AttrHidden
		case a == 29:
			s.pendingAttrs &^= AttrStrikethrough
		case a >= 30 && a <= 37:
			s.pendingFg = Color{Set: true, Index: uint8(a - 30)}
		case a == 38:
			n, consumed := s.parseExtendedColor(attrs[i:])
			s.pendingFg = n
			i += consumed - 1
		case a == 39:
			s.pendingFg = DefaultColor
		case a >= 40 && a <= 47:
			s.pendingBg = Color{Set: true, Index: uint8(a - 40)}
		case a == 48:
			n, consumed := s.parseExtendedColor(attrs[i:])
			s.pendingBg = n
			i += consumed - 1
		case a == 49:
			s.pendingBg = DefaultColor
		case a >= 90 && a <= 97:
			s.pendingFg = Color{Set: true, Index: uint8(a - 90 + 8)}
		case a >= 100 && a <= 107:
			s.pendingBg = Color{Set: true, Index: uint8(a - 100 + 8)}
		}
		i++
	}
}

// parseExtendedColor consumes a 38/48-prefixed 256-color or true-color
// sequence and returns the resulting Color plus the number of ints used.
func (s *Screen) parseExtendedColor(rest []int) (Color, int) {
	if len(rest) < 2 {
		return DefaultColor, 1
	}
	switch rest[1] {
	case 5:
		if len(rest) >= 3 {
			return Color{Set: true, Index: uint8(rest[2])}, 3
		}
	case 2:
		if len(rest) >= 5 {
			return Color{Set: true, True: true, R: uint8(rest[2]), G: uint8(rest[3]), B: uint8(rest[4])}, 5
		}
	}
	return DefaultColor, 2
}

// CursorPositionReport formats the CPR response for the current cursor.
func (s *Screen) CursorPositionReport() string {
	return csi(fmt.Sprintf("%d;%dR", s.CursorY+1, s.CursorX+1))
}

// DeviceAttributesReport is the fixed secondary-DA response.
func (s *Screen) DeviceAttributesReport() string { return csi(">84;0;0c") }

func csi(s string) string { return "\x1b[" + s }

// SaveCursor pushes the DECSC-relevant state.
func (s *Screen) SaveCursor() {
	s.saved = append(s.saved, cursorState{
		x: s.CursorX, y: s.CursorY,
		attrs: s.pendingAttrs, fg: s.pendingFg, bg: s.pendingBg,
		origin: s.modes&ModeOrigin != 0, wrap: s.modes&ModeAutoWrap != 0,
		g0: s.g0, g1: s.g1, charsetIdx: s.charsetIdx,
	})
}

// RestoreCursor pops the most recently saved cursor state, or resets DECOM
// and homes the cursor if nothing was saved.
func (s *Screen) RestoreCursor() {
	if len(s.saved) == 0 {
		s.setFlag(ModeOrigin, false)
		s.CursorX, s.CursorY = 0, 0
		return
	}
	st := s.saved[len(s.saved)-1]
	s.saved = s.saved[:len(s.saved)-1]
	s.CursorX, s.CursorY = st.x, st.y
	s.pendingAttrs, s.pendingFg, s.pendingBg = st.attrs, st.fg, st.bg
	s.setFlag(ModeOrigin, st.origin)
	s.setFlag(ModeAutoWrap, st.wrap)
	s.g0, s.g1, s.charsetIdx = st.g0, st.g1, st.charsetIdx
}

// RingBell invokes the bell callback, if one is installed.
func (s *Screen) RingBell() {
	if s.Bell != nil {
		s.Bell()
	}
}

// RespondCursorPosition writes a CPR response via WriteProcessInput.
func (s *Screen) RespondCursorPosition() {
	if s.WriteProcessInput != nil {
		s.WriteProcessInput([]byte(s.CursorPositionReport()))
	}
}

// RespondDeviceAttributes writes the secondary-DA response.
func (s *Screen) RespondDeviceAttributes() {
	if s.WriteProcessInput != nil {
		s.WriteProcessInput([]byte(s.DeviceAttributesReport()))
	}
}

// NonEmptyCells returns the set of occupied (x, y) coordinates on row y.
func (s *Screen) NonEmptyCells(y int) []int {
	row, ok := s.data[y]
	if !ok {
		return nil
	}
	xs := make([]int, 0, len(row))
	for x := range row {
		xs = append(xs, x)
	}
	return xs
}

// SetTitle/SetIconName handle OSC 0/2 and OSC 1 respectively.
func (s *Screen) SetTitle(title string)  { s.Title = title }
func (s *Screen) SetIconName(icon string) { s.IconName = icon }

// Resize changes the screen's dimensions. Shrinking caps MaxY so the
// cursor never hides below the new visible window, preserving scrollback.
func (s *Screen) Resize(lines, columns int) {
	if lines < s.Lines {
		if s.CursorY+lines-1 < s.MaxY {
			s.MaxY = s.CursorY + lines - 1
		}
	}
	s.Lines, s.Columns = lines, columns
	if !s.marginsExplicit {
		s.marginTop, s.marginBottom = 0, lines-1
	} else if s.marginBottom >= lines {
		s.marginBottom = lines - 1
	}
	s.clampCursor()
}

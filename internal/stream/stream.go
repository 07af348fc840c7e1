// Package stream implements the byte-level VT100/ANSI parser that turns a
// PTY's raw output into calls against a screen.Screen. It never blocks and
// is restartable across chunk boundaries: only the state needed to resume
// mid-sequence is kept between Feed calls.
package stream

import (
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

type state int

const (
	stateGround state = iota
	stateEsc
	stateCSI
	stateOSC
	stateOSCEsc
	stateCharsetSelect
	stateSharp
	statePercent
)

const maxParam = 9999

// Screen is the subset of screen.Screen operations Stream dispatches to.
// Declaring it as an interface lets tests substitute a recording fake and
// documents the exact handler surface a Screen implementation must expose.
type Screen interface {
	Draw(text string)
	CarriageReturn()
	Index()
	ReverseIndex()
	Linefeed()
	NextLine()
	Tab()
	Backspace()
	CursorUp(n int)
	CursorDown(n int)
	CursorBack(n int)
	CursorForward(n int)
	CursorToColumn(n int)
	CursorToLine(n int)
	CursorPosition(line, col int)
	InsertLines(n int)
	DeleteLines(n int)
	InsertCharacters(n int)
	DeleteCharacters(n int)
	EraseCharacters(n int)
	EraseInLine(mode int)
	EraseInDisplay(mode int)
	SetMode(codes []int, private bool)
	ResetMode(codes []int, private bool)
	SetCharset(code rune, mode rune)
	ShiftIn()
	ShiftOut()
	SelectGraphicRendition(attrs ...int)
	RespondCursorPosition()
	RespondDeviceAttributes()
	SetTitle(title string)
	SetIconName(icon string)
	SaveCursor()
	RestoreCursor()
	Resize(lines, columns int)
	ClearHistory()
	RingBell()
	SetScrollRegion(top, bottom int)
}

// Stream is a single restartable VT100/ANSI state machine feeding a Screen.
type Stream struct {
	screen Screen

	st state

	params       []int
	curParam     int
	haveDigits   bool
	private      bool
	intermediate byte

	oscBuf []byte

	charsetMode rune

	pending []byte // leftover bytes of a not-yet-complete UTF-8 rune
}

// New returns a Stream that feeds scr and is ready to consume bytes. The
// Screen interface type ensures at compile time that scr implements every
// handler Stream needs.
func New(scr Screen) *Stream {
	return &Stream{screen: scr}
}

// Feed decodes data and dispatches Screen operations. It may be called
// repeatedly with successive chunks of a single child's output; state
// persists correctly across calls, including partial escape sequences
// and partial UTF-8 runes.
func (s *Stream) Feed(data []byte) {
	if len(s.pending) > 0 {
		data = append(s.pending, data...)
		s.pending = nil
	}
	i := 0
	for i < len(data) {
		if s.st == stateGround {
			run, n := s.groundRun(data[i:])
			if n > 0 {
				s.screen.Draw(run)
				i += n
				continue
			}
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			if !utf8.FullRune(data[i:]) && i+size >= len(data) {
				s.pending = append(s.pending, data[i:]...)
				return
			}
			i++
			continue
		}
		s.step(r)
		i += size
	}
}

// groundRun scans the longest prefix of data that is plain drawable text:
// no ESC, no C0 control code, no DEL. It walks grapheme clusters (via
// uniseg) rather than raw runes, and decodes full runes only — a trailing
// partial rune is left for the next pass. A cluster cut by the end of
// data is consumed as far as it goes; a combining mark that arrives in
// the next chunk is merged onto the previous cell by Screen.Draw.
// Returns the run as a string and the number of bytes consumed (0 if the
// next byte is control).
func (s *Stream) groundRun(data []byte) (string, int) {
	i := 0
	gstate := -1
	for i < len(data) {
		b := data[i]
		if b < 0x20 || b == 0x7f || b == 0x1b {
			break
		}
		if !utf8.FullRune(data[i:]) {
			break
		}
		cluster, _, _, newState := uniseg.FirstGraphemeClusterInString(string(data[i:]), gstate)
		if cluster == "" {
			break
		}
		i += len(cluster)
		gstate = newState
	}
	if i == 0 {
		return "", 0
	}
	return string(data[:i]), i
}

func (s *Stream) step(r rune) {
	switch s.st {
	case stateGround:
		s.ground(r)
	case stateEsc:
		s.esc(r)
	case stateCSI:
		s.csi(r)
	case stateOSC:
		s.osc(r)
	case stateOSCEsc:
		s.oscEsc(r)
	case stateCharsetSelect:
		s.screen.SetCharset(r, s.charsetMode)
		s.st = stateGround
	case stateSharp:
		s.st = stateGround // DECALN etc. not modeled; consume and drop
	case statePercent:
		s.st = stateGround // UTF-8 mode selection; consume and drop
	}
}

// setCharsetMode remembers whether ESC( or ESC) started the pending
// CHARSET-SELECT sequence.
func (s *Stream) setCharsetMode(m rune) { s.charsetMode = m }

func (s *Stream) ground(r rune) {
	switch r {
	case 0x08:
		s.screen.Backspace()
	case 0x09:
		s.screen.Tab()
	case 0x0A, 0x0B, 0x0C:
		s.screen.Linefeed()
	case 0x0D:
		s.screen.CarriageReturn()
	case 0x0E:
		s.screen.ShiftOut()
	case 0x0F:
		s.screen.ShiftIn()
	case 0x07:
		s.screen.RingBell()
	case 0x1B:
		s.st = stateEsc
	default:
		if r >= 0x20 {
			s.screen.Draw(string(r))
		}
	}
}

func (s *Stream) esc(r rune) {
	switch r {
	case '[':
		s.resetParams()
		s.st = stateCSI
	case ']':
		s.oscBuf = s.oscBuf[:0]
		s.st = stateOSC
	case '(', ')':
		s.setCharsetMode(r)
		s.st = stateCharsetSelect
	case '#':
		s.st = stateSharp
	case '%':
		s.st = statePercent
	case 'c':
		s.st = stateGround // RIS full reset, not modeled beyond returning to ground
	case '7':
		s.screen.SaveCursor()
		s.st = stateGround
	case '8':
		s.screen.RestoreCursor()
		s.st = stateGround
	case 'D':
		s.screen.Index()
		s.st = stateGround
	case 'M':
		s.screen.ReverseIndex()
		s.st = stateGround
	case 'E':
		s.screen.NextLine()
		s.st = stateGround
	default:
		s.st = stateGround
	}
}

func (s *Stream) resetParams() {
	s.params = s.params[:0]
	s.curParam = 0
	s.haveDigits = false
	s.private = false
	s.intermediate = 0
}

func (s *Stream) csi(r rune) {
	switch {
	case r == '?':
		s.private = true
	case r >= '0' && r <= '9':
		s.curParam = s.curParam*10 + int(r-'0')
		if s.curParam > maxParam {
			s.curParam = maxParam
		}
		s.haveDigits = true
	case r == ';':
		s.params = append(s.params, s.curParam)
		s.curParam = 0
		s.haveDigits = false
	case r >= 0x20 && r <= 0x2F:
		s.intermediate = byte(r)
	case r >= 0x40 && r <= 0x7E:
		if s.haveDigits || len(s.params) == 0 {
			s.params = append(s.params, s.curParam)
		}
		s.dispatchCSI(r)
		s.st = stateGround
	default:
		s.st = stateGround
	}
}

func (s *Stream) param(i int, def int) int {
	if i >= len(s.params) || s.params[i] == 0 {
		return def
	}
	return s.params[i]
}

func (s *Stream) dispatchCSI(final rune) {
	scr := s.screen
	switch final {
	case 'A':
		scr.CursorUp(s.param(0, 1))
	case 'B':
		scr.CursorDown(s.param(0, 1))
	case 'C':
		scr.CursorForward(s.param(0, 1))
	case 'D':
		scr.CursorBack(s.param(0, 1))
	case 'G', '`':
		scr.CursorToColumn(s.param(0, 1) - 1)
	case 'd':
		scr.CursorToLine(s.param(0, 1) - 1)
	case 'H', 'f':
		scr.CursorPosition(s.param(0, 1)-1, s.param(1, 1)-1)
	case 'J':
		scr.EraseInDisplay(s.param(0, 0))
	case 'K':
		scr.EraseInLine(s.param(0, 0))
	case 'L':
		scr.InsertLines(s.param(0, 1))
	case 'M':
		scr.DeleteLines(s.param(0, 1))
	case '@':
		scr.InsertCharacters(s.param(0, 1))
	case 'P':
		scr.DeleteCharacters(s.param(0, 1))
	case 'X':
		scr.EraseCharacters(s.param(0, 1))
	case 'h':
		scr.SetMode(s.params, s.private)
	case 'l':
		scr.ResetMode(s.params, s.private)
	case 'm':
		ints := s.params
		if len(ints) == 0 {
			ints = []int{0}
		}
		scr.SelectGraphicRendition(ints...)
	case 'n':
		if s.param(0, 0) == 6 {
			scr.RespondCursorPosition()
		}
	case 'c':
		if s.intermediate == '>' {
			scr.RespondDeviceAttributes()
		}
	case 'r':
		scr.SetScrollRegion(s.param(0, 1)-1, s.param(1, s.fallbackBottom())-1)
	}
}

// fallbackBottom is used when DECSTBM omits its second parameter; the
// caller (Screen.SetScrollRegion) clamps it to the screen's line count
// regardless, so any sufficiently large default is safe here.
func (s *Stream) fallbackBottom() int { return maxParam }

func (s *Stream) osc(r rune) {
	switch r {
	case 0x07:
		s.finishOSC()
		s.st = stateGround
	case 0x1B:
		s.st = stateOSCEsc
	default:
		s.oscBuf = append(s.oscBuf, string(r)...)
	}
}

func (s *Stream) oscEsc(r rune) {
	if r == '\\' {
		s.finishOSC()
		s.st = stateGround
		return
	}
	s.oscBuf = append(s.oscBuf, '\x1b')
	s.st = stateOSC
	s.osc(r)
}

func (s *Stream) finishOSC() {
	body := string(s.oscBuf)
	var code, rest string
	for i, c := range body {
		if c == ';' {
			code, rest = body[:i], body[i+1:]
			break
		}
	}
	switch code {
	case "0", "2":
		s.screen.SetTitle(rest)
	case "1":
		s.screen.SetIconName(rest)
	}
}

package keybinding

import "unicode/utf8"

// Key-name to VT100 byte-sequence table, carried over in full from
// pymux/key_mappings.py (SPEC_FULL.md §4): arrow keys (both normal and
// application-cursor variants), function keys F1-F20, and the named keys
// the binding engine accepts in bind-key/send-keys.
var normalSequences = map[string]string{
	"Up":     "\x1b[A",
	"Down":   "\x1b[B",
	"Right":  "\x1b[C",
	"Left":   "\x1b[D",
	"Home":   "\x1b[H",
	"End":    "\x1b[F",
	"PgUp":   "\x1b[5~",
	"PgDn":   "\x1b[6~",
	"Insert": "\x1b[2~",
	"Delete": "\x1b[3~",
	"Enter":  "\r",
	"Tab":    "\t",
	"BSpace": "\x7f",
	"Escape": "\x1b",
	"Space":  " ",
}

var applicationSequences = map[string]string{
	"Up":    "\x1bOA",
	"Down":  "\x1bOB",
	"Right": "\x1bOC",
	"Left":  "\x1bOD",
	"Home":  "\x1bOH",
	"End":   "\x1bOF",
}

var functionKeySequences = map[string]string{
	"F1": "\x1bOP", "F2": "\x1bOQ", "F3": "\x1bOR", "F4": "\x1bOS",
	"F5": "\x1b[15~", "F6": "\x1b[17~", "F7": "\x1b[18~", "F8": "\x1b[19~",
	"F9": "\x1b[20~", "F10": "\x1b[21~", "F11": "\x1b[23~", "F12": "\x1b[24~",
	"F13": "\x1b[25~", "F14": "\x1b[26~", "F15": "\x1b[28~", "F16": "\x1b[29~",
	"F17": "\x1b[31~", "F18": "\x1b[32~", "F19": "\x1b[33~", "F20": "\x1b[34~",
}

// Encode translates an abstract key name (e.g. "Left", "C-a", "F5") into
// the VT100 byte sequence written to a pane's PTY, honoring application
// cursor mode for the arrow/Home/End keys.
func Encode(name string, applicationCursor bool) string {
	if seq, ok := functionKeySequences[name]; ok {
		return seq
	}
	if applicationCursor {
		if seq, ok := applicationSequences[name]; ok {
			return seq
		}
	}
	if seq, ok := normalSequences[name]; ok {
		return seq
	}
	if ctrl, ok := decodeControl(name); ok {
		return ctrl
	}
	if meta, ok := decodeMeta(name); ok {
		return meta
	}
	return name
}

// decodeControl handles "C-x" names: the control byte for the letter x.
func decodeControl(name string) (string, bool) {
	if len(name) == 3 && name[0] == 'C' && name[1] == '-' {
		c := name[2]
		if c >= 'a' && c <= 'z' {
			return string(rune(c - 'a' + 1)), true
		}
		if c >= 'A' && c <= 'Z' {
			return string(rune(c - 'A' + 1)), true
		}
	}
	return "", false
}

// decodeMeta handles "M-x" names: ESC followed by x.
func decodeMeta(name string) (string, bool) {
	if len(name) >= 3 && name[0] == 'M' && name[1] == '-' {
		return "\x1b" + name[2:], true
	}
	return "", false
}

// reverseSequences maps a raw VT100 byte sequence straight back to its
// key name, built once from the same tables Encode reads, so the
// attach loop's incoming-byte decoder and the outgoing pane writer
// never drift apart.
var reverseSequences = buildReverseSequences()

func buildReverseSequences() map[string]string {
	m := make(map[string]string, len(normalSequences)+len(applicationSequences)+len(functionKeySequences))
	// Insert application/normal first so a later, shorter collision (there
	// are none today) would prefer the explicit function-key table.
	for name, seq := range applicationSequences {
		m[seq] = name
	}
	for name, seq := range normalSequences {
		m[seq] = name
	}
	for name, seq := range functionKeySequences {
		m[seq] = name
	}
	return m
}

// Decode reads one key press worth of bytes off the front of data and
// returns its key name plus the number of bytes consumed. Multi-byte
// escape sequences are matched against the same table Encode uses;
// anything else is either a control byte ("C-x"), a literal UTF-8
// rune, or (for an unrecognized escape prefix) the literal "Escape"
// key alone.
func Decode(data []byte) (key string, consumed int) {
	if len(data) == 0 {
		return "", 0
	}

	if data[0] == 0x1b && len(data) > 1 {
		for seqLen := len(data); seqLen >= 2; seqLen-- {
			if name, ok := reverseSequences[string(data[:seqLen])]; ok {
				return name, seqLen
			}
		}
		return "Escape", 1
	}

	b := data[0]
	switch {
	case b == 0x1b:
		return "Escape", 1
	case b == '\r' || b == '\n':
		return "Enter", 1
	case b == '\t':
		return "Tab", 1
	case b == 0x7f:
		return "BSpace", 1
	case b == ' ':
		return "Space", 1
	case b >= 1 && b <= 26 && b != '\t' && b != '\r':
		return "C-" + string(rune('a'+b-1)), 1
	}

	return decodeRune(data)
}

// decodeRune reads one UTF-8 rune off the front of data and returns it
// as a key name, falling back to the raw byte for invalid encodings.
func decodeRune(data []byte) (string, int) {
	r, size := utf8.DecodeRune(data)
	if r == utf8.RuneError && size <= 1 {
		return string(data[0]), 1
	}
	return string(r), size
}

package cli

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// colorDepth is the terminal color depth a client negotiates with the
// server at attach time, mirroring termenv's profile tiers.
type colorDepth string

const (
	colorDepthANSI      colorDepth = "ansi"      // 4-bit, 16 colors
	colorDepthANSI256   colorDepth = "ansi256"    // 8-bit, 256 colors
	colorDepthTrueColor colorDepth = "truecolor" // 24-bit
)

// detectColorDepth picks a color depth for the attaching terminal:
// explicit --truecolor/--ansicolor flags win, otherwise termenv probes
// the real terminal, falling back to ansi256 (pymux's default) when
// stdout isn't a TTY at all.
func detectColorDepth(truecolor, ansicolor bool) colorDepth {
	switch {
	case truecolor:
		return colorDepthTrueColor
	case ansicolor:
		return colorDepthANSI
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return colorDepthANSI256
	}

	switch termenv.NewOutput(os.Stdout).ColorProfile() {
	case termenv.TrueColor:
		return colorDepthTrueColor
	case termenv.ANSI:
		return colorDepthANSI
	default:
		return colorDepthANSI256
	}
}

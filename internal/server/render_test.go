package server

import (
	"bytes"
	"testing"

	"wmux/internal/screen"
)

func TestRenderPaneDowngradesTruecolorByDepth(t *testing.T) {
	scr := screen.New(1, 10)
	scr.SelectGraphicRendition(38, 2, 255, 0, 0) // bright red foreground
	scr.Draw("x")

	r := Rect{X: 0, Y: 0, W: 1, H: 1}

	var truecolorBuf, ansi256Buf, ansiBuf bytes.Buffer
	renderPane(&truecolorBuf, scr, r, "truecolor")
	renderPane(&ansi256Buf, scr, r, "ansi256")
	renderPane(&ansiBuf, scr, r, "ansi")

	if !bytes.Contains(truecolorBuf.Bytes(), []byte("38;2;255;0;0")) {
		t.Fatalf("truecolor render = %q, want a 38;2;r;g;b escape", truecolorBuf.String())
	}
	if bytes.Contains(ansi256Buf.Bytes(), []byte("38;2;")) {
		t.Fatalf("ansi256 render = %q, should not contain a truecolor escape", ansi256Buf.String())
	}
	if !bytes.Contains(ansi256Buf.Bytes(), []byte("38;5;")) {
		t.Fatalf("ansi256 render = %q, want a 38;5;n indexed escape", ansi256Buf.String())
	}
	if bytes.Contains(ansiBuf.Bytes(), []byte("38;5;")) || bytes.Contains(ansiBuf.Bytes(), []byte("38;2;")) {
		t.Fatalf("ansi render = %q, should be a plain 3x/9x code", ansiBuf.String())
	}
}

func TestRenderPaneSkipsStyleCodesWhenUnchanged(t *testing.T) {
	scr := screen.New(1, 10)
	scr.Draw("ab")

	r := Rect{X: 0, Y: 0, W: 2, H: 1}
	var buf bytes.Buffer
	renderPane(&buf, scr, r, "truecolor")

	if bytes.Count(buf.Bytes(), []byte("\033[0m")) != 0 {
		t.Fatalf("plain unstyled text should not emit SGR resets mid-render, got %q", buf.String())
	}
}

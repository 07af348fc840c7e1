package stream

import (
	"bytes"
	"testing"

	"wmux/internal/screen"
)

func TestDrawPrintableText(t *testing.T) {
	scr := screen.New(24, 80)
	st := New(scr)
	st.Feed([]byte("hello"))
	if scr.CursorX != 5 {
		t.Fatalf("cursor x = %d, want 5", scr.CursorX)
	}
}

func TestRestartabilityAcrossChunks(t *testing.T) {
	data := []byte("abc\x1b[31mred\x1b[0mdone\r\n123")

	whole := screen.New(24, 80)
	New(whole).Feed(data)

	chunked := screen.New(24, 80)
	st := New(chunked)
	for i := 0; i < len(data); i++ {
		st.Feed(data[i : i+1])
	}

	if whole.CursorX != chunked.CursorX || whole.CursorY != chunked.CursorY {
		t.Fatalf("cursor mismatch: whole=(%d,%d) chunked=(%d,%d)",
			whole.CursorX, whole.CursorY, chunked.CursorX, chunked.CursorY)
	}
	for y := 0; y <= whole.MaxY; y++ {
		for x := 0; x < whole.Columns; x++ {
			if whole.Cell(x, y) != chunked.Cell(x, y) {
				t.Fatalf("cell (%d,%d) mismatch: whole=%v chunked=%v", x, y, whole.Cell(x, y), chunked.Cell(x, y))
			}
		}
	}
}

func TestCursorPositionReportWritesOnce(t *testing.T) {
	scr := screen.New(24, 80)
	st := New(scr)
	var writes [][]byte
	scr.WriteProcessInput = func(b []byte) { writes = append(writes, append([]byte(nil), b...)) }
	st.Feed([]byte("\x1b[6n"))
	if len(writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(writes))
	}
	want := []byte("\x1b[1;1R")
	if !bytes.Equal(writes[0], want) {
		t.Fatalf("write = %q, want %q", writes[0], want)
	}
}

func TestSplitEscapeAcrossFeedCalls(t *testing.T) {
	scr := screen.New(24, 80)
	st := New(scr)
	st.Feed([]byte("x"))
	st.Feed([]byte("\x1b"))
	st.Feed([]byte("[2"))
	st.Feed([]byte("J"))
	if scr.Cell(0, 0) != screen.EmptyCell {
		t.Fatalf("expected screen cleared after split CSI sequence")
	}
}

func TestUnrecognizedFinalByteDropsSequence(t *testing.T) {
	scr := screen.New(24, 80)
	st := New(scr)
	st.Feed([]byte("\x1b[1;2zabc"))
	if scr.CursorX != 3 {
		t.Fatalf("cursor x = %d, want 3 (abc drawn after dropped sequence)", scr.CursorX)
	}
}

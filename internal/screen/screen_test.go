package screen

import "testing"

func TestDrawAdvancesCursor(t *testing.T) {
	s := New(24, 80)
	s.Draw("hello")
	if s.CursorX != 5 {
		t.Fatalf("cursor x = %d, want 5", s.CursorX)
	}
	if s.CursorY != 0 {
		t.Fatalf("cursor y = %d, want 0", s.CursorY)
	}
	for i, r := range "hello" {
		c := s.Cell(i, 0)
		if c.Rune != r {
			t.Fatalf("cell %d = %q, want %q", i, c.Rune, r)
		}
	}
}

func TestCursorMovementRoundTrip(t *testing.T) {
	s := New(24, 80)
	s.Draw("abc")
	s.CursorBack(2)
	s.CursorForward(2)
	if s.CursorX != 3 {
		t.Fatalf("cursor x = %d, want 3", s.CursorX)
	}
}

func TestAlternateScreenRoundTrip(t *testing.T) {
	s := New(24, 80)
	s.Draw("primary")
	s.SetMode([]int{1049}, true)
	s.Draw("secondary")
	if s.Cell(0, 0).Rune != 's' {
		t.Fatalf("alt screen draw did not apply")
	}
	s.ResetMode([]int{1049}, true)
	if s.Cell(0, 0).Rune != 'p' {
		t.Fatalf("primary screen not restored, got %q", s.Cell(0, 0).Rune)
	}
	if s.CursorX != 7 {
		t.Fatalf("cursor not restored, got %d", s.CursorX)
	}
}

func TestEraseInDisplayFull(t *testing.T) {
	s := New(24, 80)
	s.Draw("hello")
	s.EraseInDisplay(2)
	s.Draw("hi")
	count := 0
	for x := 0; x < s.Columns; x++ {
		if s.Cell(x, 0) != EmptyCell {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("non-empty cells after erase+draw = %d, want 2", count)
	}
}

func TestResizeCapsMaxY(t *testing.T) {
	s := New(24, 80)
	s.CursorY = 20
	s.MaxY = 50
	cursorY := s.CursorY
	s.Resize(10, 80)
	if s.MaxY != cursorY+10-1 {
		t.Fatalf("MaxY = %d, want %d", s.MaxY, cursorY+10-1)
	}
}

func TestCursorPositionReport(t *testing.T) {
	s := New(24, 80)
	s.CursorY, s.CursorX = 4, 9
	var got []byte
	s.WriteProcessInput = func(b []byte) { got = b }
	s.RespondCursorPosition()
	want := "\x1b[5;10R"
	if string(got) != want {
		t.Fatalf("cpr = %q, want %q", got, want)
	}
}

// TestDrawMergesStandaloneCombiningMarkIntoPreviousCell covers the case
// where a combining mark arrives in a Draw call of its own (e.g. split
// across two pty reads): it must merge onto the previous cell's
// grapheme instead of being dropped or occupying its own column.
func TestDrawMergesStandaloneCombiningMarkIntoPreviousCell(t *testing.T) {
	const combiningAcute = "́"
	s := New(24, 80)
	s.Draw("e")
	s.Draw(combiningAcute)
	if s.CursorX != 1 {
		t.Fatalf("combining mark should not advance the cursor, got CursorX=%d", s.CursorX)
	}
	got := s.Cell(0, 0).Text()
	want := "e" + combiningAcute
	if got != want {
		t.Fatalf("Cell(0,0).Text() = %q, want %q", got, want)
	}
}

func TestVisibleTextTrimsTrailingBlanksPerLine(t *testing.T) {
	s := New(3, 10)
	s.Draw("hi")
	s.CarriageReturn()
	s.Linefeed()
	s.Draw("there")

	got := s.VisibleText(3)
	want := "hi\nthere\n"
	if got != want {
		t.Fatalf("VisibleText = %q, want %q", got, want)
	}
}

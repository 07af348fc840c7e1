package server

import (
	"bytes"
	"testing"

	"wmux/internal/command"
)

type bufOutput struct{ bytes.Buffer }

func (b *bufOutput) Write(p []byte) (int, error) { return b.Buffer.Write(p) }

func TestAttachClientCreatesFirstWindow(t *testing.T) {
	s := New(Opts{BaseIndex: 0})
	out := &bufOutput{}
	cl := s.AttachClient("c1", 24, 80, out, "truecolor")
	if len(s.Arr.Windows) != 1 {
		t.Fatalf("expected one window, got %d", len(s.Arr.Windows))
	}
	if s.Arr.ActiveWindow("c1") == nil {
		t.Fatal("expected client to focus a window")
	}
	if !cl.Dirty {
		t.Fatal("expected freshly attached client to be dirty")
	}
}

func TestNewWindowSpawnsProcess(t *testing.T) {
	s := New(Opts{BaseIndex: 0})
	s.AttachClient("c1", 24, 80, &bufOutput{}, "truecolor")

	if err := s.NewWindow("c1", windowOptsEcho()); err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	if len(s.Arr.Windows) != 2 {
		t.Fatalf("expected two windows, got %d", len(s.Arr.Windows))
	}
	w := s.Arr.ActiveWindow("c1")
	if w.Active == nil {
		t.Fatal("expected new window to have an active pane")
	}
	if _, ok := s.Pane(w.Active.ID); !ok {
		t.Fatal("expected pane process to be registered")
	}
}

func TestKillPaneRemovesEmptyWindow(t *testing.T) {
	s := New(Opts{BaseIndex: 0})
	s.AttachClient("c1", 24, 80, &bufOutput{}, "truecolor")
	w := s.Arr.ActiveWindow("c1")
	pane := w.Active

	if err := s.KillPane("c1"); err != nil {
		t.Fatalf("KillPane: %v", err)
	}
	if _, ok := s.Pane(pane.ID); ok {
		t.Fatal("expected pane process to be removed")
	}
	if len(s.Arr.Windows) != 0 {
		t.Fatalf("expected window with no panes left to be removed, got %d windows", len(s.Arr.Windows))
	}
}

func TestSplitWindowDividesSpace(t *testing.T) {
	s := New(Opts{BaseIndex: 0})
	s.AttachClient("c1", 24, 80, &bufOutput{}, "truecolor")

	if err := s.SplitWindow("c1", windowOptsEcho(), true); err != nil {
		t.Fatalf("SplitWindow: %v", err)
	}
	w := s.Arr.ActiveWindow("c1")
	rows, cols := s.ClientSizeForWindow(w)
	rects := Layout(w, cols, rows)
	if len(rects) != 2 {
		t.Fatalf("expected 2 pane rects, got %d", len(rects))
	}
}

func TestSetOptionValidates(t *testing.T) {
	s := New(Opts{BaseIndex: 0})
	s.AttachClient("c1", 24, 80, &bufOutput{}, "truecolor")

	if err := s.SetOption("c1", "status", "bogus", false); err == nil {
		t.Fatal("expected validation error for bad bool value")
	}
	if err := s.SetOption("c1", "status", "off", false); err != nil {
		t.Fatalf("SetOption: %v", err)
	}
	if s.SessionOpts.GetBool("status") {
		t.Fatal("expected status to be off after SetOption")
	}
}

func TestConfirmBeforeGatesCommand(t *testing.T) {
	s := New(Opts{BaseIndex: 0})
	cl := s.AttachClient("c1", 24, 80, &bufOutput{}, "truecolor")

	if err := s.ConfirmBefore("c1", "kill?", "kill-window"); err != nil {
		t.Fatalf("ConfirmBefore: %v", err)
	}
	if !cl.ConfirmPending() {
		t.Fatal("expected confirm to be pending")
	}
	cl.HandleConfirmKey("n")
	if cl.ConfirmPending() {
		t.Fatal("expected confirm to clear on n")
	}
	if len(s.Arr.Windows) != 1 {
		t.Fatal("expected window to survive a declined confirmation")
	}
}

func windowOptsEcho() command.WindowOpts {
	return command.WindowOpts{Command: "/bin/cat"}
}

func TestPasteBufferErrorsWithoutBuffer(t *testing.T) {
	s := New(Opts{BaseIndex: 0})
	s.AttachClient("c1", 24, 80, &bufOutput{}, "truecolor")

	if err := s.PasteBuffer("c1"); err == nil {
		t.Fatal("expected an error with no buffer recorded")
	}
}

func TestDetachAllClientsKeepsOnlyGivenID(t *testing.T) {
	s := New(Opts{BaseIndex: 0})
	s.AttachClient("c1", 24, 80, &bufOutput{}, "truecolor")
	s.AttachClient("c2", 24, 80, &bufOutput{}, "truecolor")
	if s.ClientCount() != 2 {
		t.Fatalf("expected 2 clients, got %d", s.ClientCount())
	}

	s.DetachAllClients("c2")

	if s.ClientCount() != 1 {
		t.Fatalf("expected 1 client after detach-others, got %d", s.ClientCount())
	}
}

func TestSetBufferThenPasteWritesToActivePane(t *testing.T) {
	s := New(Opts{BaseIndex: 0})
	s.AttachClient("c1", 24, 80, &bufOutput{}, "truecolor")

	s.SetBuffer("hello from copy mode")
	if text, ok := s.Buffer(); !ok || text != "hello from copy mode" {
		t.Fatalf("Buffer() = %q, %v", text, ok)
	}

	if err := s.PasteBuffer("c1"); err != nil {
		t.Fatalf("PasteBuffer: %v", err)
	}
}

// controlBufOutput is a bufOutput that also records control frames, so
// tests can assert on SuspendClient's out-of-band messages without a
// real transport.Conn.
type controlBufOutput struct {
	bufOutput
	controls [][]byte
}

func (c *controlBufOutput) WriteControl(p []byte) error {
	c.controls = append(c.controls, append([]byte(nil), p...))
	return nil
}

var _ ControlWriter = (*controlBufOutput)(nil)

func TestSuspendClientSendsModeThenSuspend(t *testing.T) {
	s := New(Opts{BaseIndex: 0})
	out := &controlBufOutput{}
	s.AttachClient("c1", 24, 80, out, "truecolor")

	if err := s.SuspendClient("c1"); err != nil {
		t.Fatalf("SuspendClient: %v", err)
	}
	if len(out.controls) != 2 {
		t.Fatalf("expected 2 control frames, got %d", len(out.controls))
	}
	if !bytes.Contains(out.controls[0], []byte(`"mode":"cooked"`)) {
		t.Fatalf("first control frame = %s, want a cooked mode request", out.controls[0])
	}
	if !bytes.Contains(out.controls[1], []byte(`"suspend"`)) {
		t.Fatalf("second control frame = %s, want a suspend request", out.controls[1])
	}
}

func TestSuspendClientOnPlainOutputIsNoop(t *testing.T) {
	s := New(Opts{BaseIndex: 0})
	s.AttachClient("c1", 24, 80, &bufOutput{}, "truecolor")

	if err := s.SuspendClient("c1"); err != nil {
		t.Fatalf("SuspendClient against a non-ControlWriter output: %v", err)
	}
}

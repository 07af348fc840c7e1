package keybinding

import "testing"

type fakeClient struct {
	hasPrefix     bool
	confirm       bool
	popup         bool
	paneNumbers   bool
	clock         bool
	copyMode      bool
	prompt        bool
	sync          bool
	appCursor     bool
	ran           []string
	forwarded     []string
	forwardedAll  []string
	confirmResult bool
}

func (f *fakeClient) HasPrefix() bool          { return f.hasPrefix }
func (f *fakeClient) SetHasPrefix(v bool)      { f.hasPrefix = v }
func (f *fakeClient) ConfirmPending() bool     { return f.confirm }
func (f *fakeClient) HandleConfirmKey(key string) bool {
	f.confirm = false
	return f.confirmResult
}
func (f *fakeClient) PopupVisible() bool { return f.popup }
func (f *fakeClient) HidePopup()         { f.popup = false }
func (f *fakeClient) PaneNumbersVisible() bool { return f.paneNumbers }
func (f *fakeClient) HidePaneNumbers()         { f.paneNumbers = false }
func (f *fakeClient) ClockActive() bool { return f.clock }
func (f *fakeClient) ExitClock()        { f.clock = false }
func (f *fakeClient) CopyModeActive() bool       { return f.copyMode }
func (f *fakeClient) HandleCopyModeKey(key string) { f.ran = append(f.ran, "copy:"+key) }
func (f *fakeClient) PromptActive() bool         { return f.prompt }
func (f *fakeClient) HandlePromptKey(key string) { f.ran = append(f.ran, "prompt:"+key) }
func (f *fakeClient) RunCommand(cmd string, args []string) {
	f.ran = append(f.ran, cmd)
}
func (f *fakeClient) SynchronizePanes() bool { return f.sync }
func (f *fakeClient) ForwardKey(key string)  { f.forwarded = append(f.forwarded, key) }
func (f *fakeClient) ForwardKeyToAllPanes(key string) {
	f.forwardedAll = append(f.forwardedAll, key)
}
func (f *fakeClient) ApplicationCursor() bool { return f.appCursor }

func TestRoutePrefixThenBoundKey(t *testing.T) {
	table := NewTable()
	table.Bind(true, "c", "new-window", nil)
	c := &fakeClient{}

	Route(table, c, table.Prefix)
	if !c.hasPrefix {
		t.Fatal("expected prefix flag set after sending prefix key")
	}

	Route(table, c, "c")
	if c.hasPrefix {
		t.Fatal("prefix flag should clear after consuming a prefixed key")
	}
	if len(c.ran) != 1 || c.ran[0] != "new-window" {
		t.Fatalf("expected new-window run, got %v", c.ran)
	}
}

func TestRouteUnprefixedForwardsToPane(t *testing.T) {
	table := NewTable()
	c := &fakeClient{}
	Route(table, c, "Left")
	if len(c.forwarded) != 1 {
		t.Fatalf("expected key forwarded to pane, got %v", c.forwarded)
	}
	if c.forwarded[0] != "\x1b[D" {
		t.Fatalf("expected encoded arrow sequence, got %q", c.forwarded[0])
	}
}

func TestRouteSynchronizePanesFansOut(t *testing.T) {
	table := NewTable()
	c := &fakeClient{sync: true}
	Route(table, c, "a")
	if len(c.forwardedAll) != 1 || len(c.forwarded) != 0 {
		t.Fatalf("expected fan-out forward, got all=%v single=%v", c.forwardedAll, c.forwarded)
	}
}

func TestRouteConfirmPendingTakesPrecedence(t *testing.T) {
	table := NewTable()
	table.Bind(false, "y", "kill-window", nil)
	c := &fakeClient{confirm: true}
	Route(table, c, "y")
	if c.confirm {
		t.Fatal("expected confirm to be cleared")
	}
	if len(c.ran) != 0 {
		t.Fatalf("confirm handling must not fall through to command dispatch, got %v", c.ran)
	}
}

func TestRouteCopyModeTakesPrecedenceOverBinding(t *testing.T) {
	table := NewTable()
	table.Bind(false, "j", "select-pane", nil)
	c := &fakeClient{copyMode: true}
	Route(table, c, "j")
	if len(c.ran) != 1 || c.ran[0] != "copy:j" {
		t.Fatalf("copy mode should intercept the key, got ran=%v", c.ran)
	}
	if len(c.forwarded) != 0 {
		t.Fatalf("copy mode should not forward to pane, got %v", c.forwarded)
	}
}

func TestRouteApplicationCursorEncoding(t *testing.T) {
	table := NewTable()
	c := &fakeClient{appCursor: true}
	Route(table, c, "Up")
	if len(c.forwarded) != 1 || c.forwarded[0] != "\x1bOA" {
		t.Fatalf("expected application-mode Up sequence, got %v", c.forwarded)
	}
}

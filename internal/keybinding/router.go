package keybinding

// Client is the per-client state and actions the router needs in order
// to implement spec.md §4.6's routing precedence. server.ClientState
// implements this so that package keybinding has no dependency on
// package server.
type Client interface {
	HasPrefix() bool
	SetHasPrefix(bool)

	ConfirmPending() bool
	HandleConfirmKey(key string) bool // true if key was y/Y, n/N, or Ctrl-C

	PopupVisible() bool
	HidePopup()

	PaneNumbersVisible() bool
	HidePaneNumbers()

	ClockActive() bool
	ExitClock()

	CopyModeActive() bool
	HandleCopyModeKey(key string)

	PromptActive() bool
	HandlePromptKey(key string)

	RunCommand(cmd string, args []string)

	SynchronizePanes() bool
	ForwardKey(key string)
	ForwardKeyToAllPanes(key string)

	ApplicationCursor() bool
}

// Route dispatches one key press for a client against the first matching
// case in spec.md §4.6's precedence list.
func Route(table *Table, c Client, key string) {
	switch {
	case c.ConfirmPending():
		c.HandleConfirmKey(key)
	case c.PopupVisible():
		if key == "q" {
			c.HidePopup()
		}
	case c.PaneNumbersVisible():
		c.HidePaneNumbers()
	case c.ClockActive():
		c.ExitClock()
	case c.CopyModeActive():
		c.HandleCopyModeKey(key)
	case c.PromptActive():
		c.HandlePromptKey(key)
	case c.HasPrefix():
		c.SetHasPrefix(false)
		if b, ok := table.Lookup(true, key); ok {
			c.RunCommand(b.Command, b.Args)
		}
	case key == table.Prefix:
		c.SetHasPrefix(true)
	default:
		if b, ok := table.Lookup(false, key); ok {
			c.RunCommand(b.Command, b.Args)
			return
		}
		seq := Encode(key, c.ApplicationCursor())
		if c.SynchronizePanes() {
			c.ForwardKeyToAllPanes(seq)
		} else {
			c.ForwardKey(seq)
		}
	}
}

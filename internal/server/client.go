package server

import (
	"encoding/json"

	"github.com/aymanbagabas/go-osc52/v2"

	"wmux/internal/arrangement"
	"wmux/internal/keybinding"
	"wmux/internal/process"
	"wmux/internal/screen"
)

// OutputWriter is the per-client sink a ClientState renders through;
// satisfied by a transport frame writer in the real server, and by a
// plain buffer in tests.
type OutputWriter interface {
	Write(p []byte) (int, error)
}

// ControlWriter is implemented by an OutputWriter that can also push a
// control message out of band from a data redraw — a TTY mode request
// or a suspend request. The transport-backed frame writer implements
// it; a plain test buffer or the standalone in-process client doesn't,
// so sendControl is a silent no-op for those.
type ControlWriter interface {
	WriteControl(payload []byte) error
}

// sendControl JSON-encodes v and pushes it as a control message to c's
// output, when the output supports out-of-band control frames at all.
func (c *ClientState) sendControl(v interface{}) {
	cw, ok := c.Output.(ControlWriter)
	if !ok {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	cw.WriteControl(b)
}

// ClientState is the per-client state spec.md §3 describes: transport
// handle, terminal size, prefix-pressed flag, the transient overlays
// (message, confirm, command-prompt, popup, pane-numbers), and the
// single editable text buffer used while typing into a prompt.
type ClientState struct {
	ID     string
	Rows   int
	Cols   int
	Output OutputWriter

	// ColorDepth is the client's negotiated terminal color depth
	// ("ansi", "ansi256", "truecolor"), sent once at attach time.
	// Render downgrades any cell color that exceeds it.
	ColorDepth string

	srv *Server

	Dirty bool // cleared by the renderer after a redraw

	Message string // transient status line, cleared on next keypress

	hasPrefix bool

	confirming  bool
	confirmMsg  string
	confirmCmd  string

	promptPending  bool
	promptMsg      string
	promptTemplate string
	promptInput    string

	popupVisible bool
	popupText    string

	paneNumbersVisible bool

	copyModeActive bool
}

// applicationCursorForFocus reports whether the focused pane's process
// currently has DECCKM (application cursor mode) set.
func (c *ClientState) applicationCursorForFocus() bool {
	p, ok := c.focusedProcess()
	if !ok {
		return false
	}
	return p.Screen.Mode(screen.ModeApplicationCursor)
}

func (c *ClientState) focusedWindow() (w *arrangement.Window, ok bool) {
	win := c.srv.Arr.ActiveWindow(c.ID)
	return win, win != nil
}

func (c *ClientState) focusedProcess() (*process.Process, bool) {
	win, ok := c.focusedWindow()
	if !ok || win.Active == nil {
		return nil, false
	}
	return c.srv.Pane(win.Active.ID)
}

// --- keybinding.Client ---

func (c *ClientState) HasPrefix() bool     { return c.hasPrefix }
func (c *ClientState) SetHasPrefix(v bool) { c.hasPrefix = v }

func (c *ClientState) ConfirmPending() bool { return c.confirming }

func (c *ClientState) HandleConfirmKey(key string) bool {
	switch key {
	case "y", "Y":
		c.confirming = false
		cmd := c.confirmCmd
		c.confirmCmd = ""
		if cmd != "" {
			c.RunCommandLine(cmd)
		}
		return true
	case "n", "N", "C-c":
		c.confirming = false
		c.confirmCmd = ""
		return true
	}
	return false
}

func (c *ClientState) PopupVisible() bool { return c.popupVisible }
func (c *ClientState) HidePopup()         { c.popupVisible = false; c.popupText = "" }

func (c *ClientState) PaneNumbersVisible() bool { return c.paneNumbersVisible }
func (c *ClientState) HidePaneNumbers()         { c.paneNumbersVisible = false }

func (c *ClientState) ClockActive() bool {
	win, ok := c.focusedWindow()
	return ok && win.Active != nil && win.Active.ClockMode
}

func (c *ClientState) ExitClock() {
	if win, ok := c.focusedWindow(); ok && win.Active != nil {
		win.Active.ClockMode = false
	}
}

func (c *ClientState) CopyModeActive() bool { return c.copyModeActive }

func (c *ClientState) HandleCopyModeKey(key string) {
	switch key {
	case "Enter":
		c.yankVisibleScreen()
		c.copyModeActive = false
	case "q", "C-c":
		c.copyModeActive = false
	}
}

// yankVisibleScreen copies the focused pane's currently visible text
// into the server's paste buffer and, when the attached terminal
// supports it, the host clipboard via an OSC 52 escape sequence.
func (c *ClientState) yankVisibleScreen() {
	p, ok := c.focusedProcess()
	if !ok {
		return
	}
	rows, _ := p.Size()
	text := p.Screen.VisibleText(rows)
	c.srv.SetBuffer(text)
	if c.Output != nil {
		c.Output.Write([]byte(osc52.New(text).String()))
	}
}

func (c *ClientState) PromptActive() bool { return c.promptPending }

func (c *ClientState) HandlePromptKey(key string) {
	switch key {
	case "Enter":
		c.promptPending = false
		line := expandPromptTemplate(c.promptTemplate, c.promptInput)
		c.promptInput = ""
		if line != "" {
			c.RunCommandLine(line)
		}
	case "Escape", "C-c":
		c.promptPending = false
		c.promptInput = ""
	case "BSpace":
		if n := len(c.promptInput); n > 0 {
			c.promptInput = c.promptInput[:n-1]
		}
	default:
		if len(key) == 1 {
			c.promptInput += key
		}
	}
}

// expandPromptTemplate substitutes "%%" in template with the typed
// text, or runs the typed text verbatim when no template was given.
func expandPromptTemplate(template, typed string) string {
	if template == "" {
		return typed
	}
	out := make([]byte, 0, len(template))
	for i := 0; i < len(template); i++ {
		if i+1 < len(template) && template[i] == '%' && template[i+1] == '%' {
			out = append(out, typed...)
			i++
			continue
		}
		out = append(out, template[i])
	}
	return string(out)
}

// RunCommandLine dispatches a full text command line through the
// server's command registry with this client as the acting client.
func (c *ClientState) RunCommandLine(line string) {
	if err := c.srv.Commands.Dispatch(c.srv, c.ID, line); err != nil {
		c.Message = err.Error()
	}
}

func (c *ClientState) RunCommand(cmd string, args []string) {
	line := cmd
	for _, a := range args {
		line += " " + a
	}
	c.RunCommandLine(line)
}

func (c *ClientState) SynchronizePanes() bool {
	win, ok := c.focusedWindow()
	return ok && win.SynchronizePanes
}

func (c *ClientState) ForwardKey(key string) {
	p, ok := c.focusedProcess()
	if !ok {
		return
	}
	p.WriteInput(key, false)
}

func (c *ClientState) ForwardKeyToAllPanes(key string) {
	win, ok := c.focusedWindow()
	if !ok {
		return
	}
	for _, pane := range arrangement.Panes(win) {
		if p, ok := c.srv.Pane(pane.ID); ok {
			p.WriteInput(key, false)
		}
	}
}

func (c *ClientState) ApplicationCursor() bool {
	return c.applicationCursorForFocus()
}

var _ keybinding.Client = (*ClientState)(nil)

package server

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"wmux/internal/arrangement"
	"wmux/internal/command"
	"wmux/internal/config"
	"wmux/internal/keybinding"
	"wmux/internal/screen"
	"wmux/internal/transport"
)

// newWindowLocked creates a window with one pane running the default
// shell and spawns its process. Callers must
// hold s.mu.
func (s *Server) newWindowLocked(name string) (*arrangement.Window, error) {
	w, pane := s.Arr.NewWindow(name)
	if err := s.spawnPaneLocked(pane, w, command.WindowOpts{}); err != nil {
		s.Arr.RemoveWindow(w)
		return nil, err
	}
	return w, nil
}

func (s *Server) NewWindow(clientID string, opts command.WindowOpts) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, pane := s.Arr.NewWindow(opts.Name)
	if err := s.spawnPaneLocked(pane, w, opts); err != nil {
		s.Arr.RemoveWindow(w)
		return err
	}
	s.Arr.SetActiveWindow(clientID, w)
	s.dirtyAllLocked()
	return nil
}

func (s *Server) SplitWindow(clientID string, opts command.WindowOpts, vertical bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.activeWindowLocked(clientID)
	if !ok {
		return command.NewException("no active window")
	}
	pane := &arrangement.Pane{ID: s.Arr.NewPaneID()}
	w.AddPane(pane, vertical)
	if err := s.spawnPaneLocked(pane, w, opts); err != nil {
		w.RemovePane(pane)
		return err
	}
	s.resizeWindowLocked(w)
	s.dirtyAllLocked()
	return nil
}

func (s *Server) KillPane(clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.activeWindowLocked(clientID)
	if !ok || w.Active == nil {
		return command.NewException("no active pane")
	}
	pane := w.Active
	if p, ok := s.panes[pane.ID]; ok {
		p.Kill()
		p.Close()
		delete(s.panes, pane.ID)
	}
	w.RemovePane(pane)
	if len(arrangement.Panes(w)) == 0 {
		s.Arr.RemoveWindow(w)
	} else {
		s.resizeWindowLocked(w)
	}
	s.dirtyAllLocked()
	return nil
}

func (s *Server) KillWindow(clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.activeWindowLocked(clientID)
	if !ok {
		return command.NewException("no active window")
	}
	for _, pane := range arrangement.Panes(w) {
		if p, ok := s.panes[pane.ID]; ok {
			p.Kill()
			p.Close()
			delete(s.panes, pane.ID)
		}
	}
	s.Arr.RemoveWindow(w)
	s.dirtyAllLocked()
	return nil
}

func (s *Server) SelectPaneDirection(clientID, dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.activeWindowLocked(clientID)
	if !ok || w.Active == nil {
		return command.NewException("no active pane")
	}
	var d arrangement.Direction
	switch dir {
	case "-L":
		d = arrangement.Left
	case "-R":
		d = arrangement.Right
	case "-U":
		d = arrangement.Up
	case "-D":
		d = arrangement.Down
	default:
		return command.NewException("select-pane: unknown direction %q", dir)
	}
	rows, cols := s.ClientSizeForWindow(w)
	rects := Layout(w, cols, rows)
	if next := NeighborInDirection(rects, w.Active, d); next != nil {
		w.PreviousActive = w.Active
		w.Active = next
	}
	s.dirtyAllLocked()
	return nil
}

func (s *Server) SelectPaneTarget(clientID, target string) error {
	return command.NewException("select-pane: target syntax not supported, use -L/-R/-U/-D")
}

func (s *Server) SelectWindow(clientID string, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := atoiOrDefault(target, -1)
	w := s.Arr.WindowByIndex(idx)
	if w == nil {
		return command.NewException("no such window: %s", target)
	}
	s.Arr.SetActiveWindow(clientID, w)
	s.dirtyAllLocked()
	return nil
}

func (s *Server) SelectLayout(clientID, kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.activeWindowLocked(clientID)
	if !ok {
		return command.NewException("no active window")
	}
	if err := w.SelectLayout(kind); err != nil {
		return command.NewException("%v", err)
	}
	s.resizeWindowLocked(w)
	s.dirtyAllLocked()
	return nil
}

func (s *Server) ResizePane(clientID string, dirAmounts map[string]int, zoom bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.activeWindowLocked(clientID)
	if !ok || w.Active == nil {
		return command.NewException("no active pane")
	}
	if zoom {
		w.Zoom = !w.Zoom
		s.resizeWindowLocked(w)
		s.dirtyAllLocked()
		return nil
	}
	dirs := map[string]arrangement.Direction{"-L": arrangement.Left, "-R": arrangement.Right, "-U": arrangement.Up, "-D": arrangement.Down}
	for flag, amount := range dirAmounts {
		if d, ok := dirs[flag]; ok {
			w.ChangeSizeForPane(w.Active, d, amount)
		}
	}
	s.resizeWindowLocked(w)
	s.dirtyAllLocked()
	return nil
}

func (s *Server) RotateWindow(clientID string, restrict string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.activeWindowLocked(clientID)
	if !ok {
		return command.NewException("no active window")
	}
	w.Rotate(1, restrict != "")
	s.resizeWindowLocked(w)
	s.dirtyAllLocked()
	return nil
}

func (s *Server) SwapPane(clientID string, next bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.activeWindowLocked(clientID)
	if !ok {
		return command.NewException("no active window")
	}
	w.SwapPane(next)
	s.resizeWindowLocked(w)
	s.dirtyAllLocked()
	return nil
}

func (s *Server) BreakPane(clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.activeWindowLocked(clientID)
	if !ok {
		return command.NewException("no active window")
	}
	pane := w.BreakPane()
	if pane == nil {
		return command.NewException("no active pane")
	}
	if len(arrangement.Panes(w)) == 0 {
		s.Arr.RemoveWindow(w)
	}
	nw, _ := s.Arr.NewWindow("")
	nw.Root = &arrangement.Split{Orientation: arrangement.Horizontal, Children: []arrangement.Node{pane}, Weights: []int{1}}
	nw.Active = pane
	if p, ok := s.panes[pane.ID]; ok {
		p.HasPriority = func() bool {
			s.mu.Lock()
			defer s.mu.Unlock()
			return nw.Active == pane
		}
	}
	s.Arr.SetActiveWindow(clientID, nw)
	s.dirtyAllLocked()
	return nil
}

func (s *Server) DetachClient(clientID string) error {
	s.mu.Lock()
	cl, ok := s.clients[clientID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if cl.Output != nil {
		if closer, ok := cl.Output.(interface{ Close() error }); ok {
			closer.Close()
		}
	}
	s.DetachClientState(clientID)
	return nil
}

// SuspendClient asks an attached client to put its terminal back into
// cooked mode and stop itself with SIGTSTP, the way a foreground shell
// job is suspended with Ctrl-Z. The client resumes on SIGCONT and
// returns to raw mode on its own; the server doesn't track suspended
// state because the connection stays open throughout.
func (s *Server) SuspendClient(clientID string) error {
	s.mu.Lock()
	cl, ok := s.clients[clientID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	cl.sendControl(transport.ModeControl{Type: "mode", Mode: "cooked"})
	cl.sendControl(transport.SuspendControl{Type: "suspend"})
	return nil
}

func (s *Server) CommandPrompt(clientID, prompt, initial, template string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cl, ok := s.clients[clientID]
	if !ok {
		return command.NewException("unknown client")
	}
	cl.promptPending = true
	cl.promptMsg = prompt
	cl.promptTemplate = template
	cl.promptInput = initial
	return nil
}

func (s *Server) ConfirmBefore(clientID, prompt, cmd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cl, ok := s.clients[clientID]
	if !ok {
		return command.NewException("unknown client")
	}
	cl.confirming = true
	cl.confirmMsg = prompt
	cl.confirmCmd = cmd
	return nil
}

func (s *Server) BindKey(noPrefix bool, key string, cmd string, args []string) error {
	if err := keybinding.ValidateKeyName(key); err != nil {
		return command.NewException("%v", err)
	}
	s.Keys.Bind(!noPrefix, key, cmd, args)
	return nil
}

func (s *Server) UnbindKey(noPrefix bool, key string) error {
	s.Keys.Unbind(!noPrefix, key)
	return nil
}

func (s *Server) SendKeys(clientID string, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.activeWindowLocked(clientID)
	if !ok || w.Active == nil {
		return command.NewException("no active pane")
	}
	p, ok := s.panes[w.Active.ID]
	if !ok {
		return command.NewException("pane has no process")
	}
	for _, k := range keys {
		p.WriteInput(keybinding.Encode(k, p.Screen.Mode(screen.ModeApplicationCursor)), false)
	}
	return nil
}

func (s *Server) SendPrefix(clientID string) error {
	s.mu.Lock()
	prefix := s.Keys.Prefix
	w, ok := s.activeWindowLocked(clientID)
	s.mu.Unlock()
	if !ok || w.Active == nil {
		return command.NewException("no active pane")
	}
	p, ok := s.Pane(w.Active.ID)
	if !ok {
		return command.NewException("pane has no process")
	}
	p.WriteInput(keybinding.Encode(prefix, false), false)
	return nil
}

func (s *Server) CopyMode(clientID string, fromBottom bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cl, ok := s.clients[clientID]
	if !ok {
		return command.NewException("unknown client")
	}
	cl.copyModeActive = true
	if w, ok := s.activeWindowLocked(clientID); ok && w.Active != nil {
		w.Active.DisplayScrollBuffer = true
	}
	return nil
}

func (s *Server) PasteBuffer(clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.buffer, s.buffer != ""
	if !ok {
		return command.NewException("paste-buffer: no buffer recorded")
	}
	w, ok := s.activeWindowLocked(clientID)
	if !ok || w.Active == nil {
		return command.NewException("no active pane")
	}
	p, ok := s.panes[w.Active.ID]
	if !ok {
		return command.NewException("pane has no process")
	}
	_, err := p.WriteInput(text, true)
	return err
}

func (s *Server) ClearHistory(clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.activeWindowLocked(clientID)
	if !ok || w.Active == nil {
		return command.NewException("no active pane")
	}
	p, ok := s.panes[w.Active.ID]
	if !ok {
		return command.NewException("pane has no process")
	}
	p.Screen.ClearHistory()
	return nil
}

func (s *Server) SetOption(clientID, name, value string, windowScope bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if windowScope {
		w, ok := s.activeWindowLocked(clientID)
		if !ok {
			return command.NewException("no active window")
		}
		if err := s.WindowOptions(w.ID).Set(name, value); err != nil {
			return command.NewException("%v", err)
		}
		if name == "synchronize-panes" {
			w.SynchronizePanes = s.WindowOptions(w.ID).GetBool("synchronize-panes")
		}
		return nil
	}
	if err := s.SessionOpts.Set(name, value); err != nil {
		return command.NewException("%v", err)
	}
	if name == "prefix" {
		s.Keys.SetPrefix(value)
	}
	return nil
}

func (s *Server) SourceFile(clientID, path string) error {
	if err := config.SourceFile(path, s.Commands, s, clientID); err != nil {
		return command.NewException("%v", err)
	}
	return nil
}

func (s *Server) ListKeys(clientID string) error {
	s.mu.Lock()
	cl, ok := s.clients[clientID]
	s.mu.Unlock()
	if !ok {
		return command.NewException("unknown client")
	}
	cl.popupVisible = true
	cl.popupText = "key bindings"
	return nil
}

func (s *Server) ListPanes(clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.activeWindowLocked(clientID)
	if !ok {
		return command.NewException("no active window")
	}
	cl, ok := s.clients[clientID]
	if !ok {
		return command.NewException("unknown client")
	}
	text := ""
	for _, p := range arrangement.Panes(w) {
		line := fmt.Sprintf("pane %d", p.ID)
		if proc, ok := s.panes[p.ID]; ok {
			if last := proc.LastOutput(); !last.IsZero() {
				line += fmt.Sprintf(" (%s)", humanize.Time(last))
			}
		}
		text += line + "\n"
	}
	cl.popupVisible = true
	cl.popupText = text
	return nil
}

func (s *Server) ListWindows(clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cl, ok := s.clients[clientID]
	if !ok {
		return command.NewException("unknown client")
	}
	text := ""
	for _, w := range s.Arr.Windows {
		text += fmt.Sprintf("%d: %s\n", w.Index, w.Name)
	}
	cl.popupVisible = true
	cl.popupText = text
	return nil
}

func (s *Server) DisplayMessage(clientID, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cl, ok := s.clients[clientID]
	if !ok {
		return command.NewException("unknown client")
	}
	cl.Message = msg
	return nil
}

func (s *Server) DisplayPanes(clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cl, ok := s.clients[clientID]
	if !ok {
		return command.NewException("unknown client")
	}
	cl.paneNumbersVisible = true
	return nil
}

// activeWindowLocked returns the window clientID currently focuses.
// Callers must hold s.mu.
func (s *Server) activeWindowLocked(clientID string) (*arrangement.Window, bool) {
	w := s.Arr.ActiveWindow(clientID)
	return w, w != nil
}

func (s *Server) dirtyAllLocked() {
	for _, cl := range s.clients {
		cl.Dirty = true
	}
}

var _ command.Backend = (*Server)(nil)

// Package server is the process-wide core: it owns the arrangement of
// windows and panes, the option tables, the key-binding table and
// command registry, every pane's child process, and the set of
// attached clients. It implements command.Backend and
// keybinding.Client so those packages never import it.
package server

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"wmux/internal/arrangement"
	"wmux/internal/command"
	"wmux/internal/keybinding"
	"wmux/internal/options"
	"wmux/internal/process"
)

// Server is the single process-wide session core. A standalone
// invocation keeps exactly one client; a daemonized one serves
// however many attach.
type Server struct {
	mu sync.Mutex

	Arr         *arrangement.Arrangement
	SessionOpts *options.Set
	windowOpts  map[int]*options.Set

	Keys     *keybinding.Table
	Commands *command.Registry

	panes   map[int]*process.Process
	clients map[string]*ClientState

	buffer string // most recent copy-mode yank, read back by paste-buffer

	Logger *log.Logger

	// SockPath is this server's own socket path, exported to every pane's
	// child process as WMUX=<path>,<pane_id> so nested wmux invocations can
	// detect they're already inside a session.
	SockPath string

	refreshStop chan struct{}
	shutdown    chan struct{}
	onEmpty     func()
}

// Opts configures a new Server.
type Opts struct {
	BaseIndex int
	Logger    *log.Logger
	SockPath  string
	OnEmpty   func() // called once every window has been closed
}

// New constructs a Server with an empty arrangement, default options,
// the default key-binding table (Ctrl-B prefix), and the full command
// registry.
func New(opts Opts) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "wmux: ", log.LstdFlags)
	}
	s := &Server{
		Arr:         arrangement.New(opts.BaseIndex),
		SessionOpts: options.NewSet(options.SessionDefaults),
		windowOpts:  make(map[int]*options.Set),
		Keys:        keybinding.NewTable(),
		Commands:    command.NewRegistry(),
		panes:       make(map[int]*process.Process),
		clients:     make(map[string]*ClientState),
		Logger:      logger,
		SockPath:    opts.SockPath,
		refreshStop: make(chan struct{}),
		shutdown:    make(chan struct{}),
		onEmpty:     opts.OnEmpty,
	}
	if prefix, ok := s.SessionOpts.Get("prefix"); ok {
		s.Keys.SetPrefix(prefix)
	}
	return s
}

// RunAutoRefresh broadcasts an invalidate message to every client once
// per status-interval seconds, so the status bar clock keeps moving
// even when nothing else happens. Call in its own goroutine; stops
// when Shutdown is called.
func (s *Server) RunAutoRefresh() {
	for {
		interval := 4 * time.Second
		s.mu.Lock()
		if v, ok := s.SessionOpts.Get("status-interval"); ok {
			if secs := atoiOrDefault(v, 4); secs > 0 {
				interval = time.Duration(secs) * time.Second
			}
		}
		s.mu.Unlock()

		select {
		case <-time.After(interval):
			s.BroadcastInvalidate()
		case <-s.refreshStop:
			return
		}
	}
}

func atoiOrDefault(s string, def int) int {
	n := 0
	neg := false
	for i, r := range s {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
	}
	if neg {
		n = -n
	}
	return n
}

// BroadcastInvalidate marks every attached client's cached layout
// dirty so the next render pass redraws (used by the auto-refresh
// ticker and by any structural change to the arrangement).
func (s *Server) BroadcastInvalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cl := range s.clients {
		cl.Dirty = true
	}
}

// WindowOptions returns (creating if absent) the per-window option set.
func (s *Server) WindowOptions(windowID int) *options.Set {
	o, ok := s.windowOpts[windowID]
	if !ok {
		o = options.NewSet(options.WindowDefaults)
		s.windowOpts[windowID] = o
	}
	return o
}

// AttachClient registers a newly connected client and gives it a
// window to focus: the arrangement's active window, or a fresh one if
// this is the first client and no window exists yet.
func (s *Server) AttachClient(id string, rows, cols int, out OutputWriter, colorDepth string) *ClientState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Arr.Windows) == 0 {
		s.newWindowLocked("")
	}

	cl := &ClientState{
		ID:         id,
		Rows:       rows,
		Cols:       cols,
		Output:     out,
		ColorDepth: colorDepth,
		srv:        s,
		Dirty:      true,
	}
	s.clients[id] = cl
	if s.Arr.ActiveWindow(id) == nil {
		s.Arr.SetActiveWindow(id, s.Arr.Windows[0])
	}
	return cl
}

// DetachClientState removes a client's state and its arrangement focus
// entries, without sending it anything (the caller already knows it is
// gone).
func (s *Server) DetachClientState(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
	s.Arr.ForgetClient(id)
}

// ClientCount reports how many clients are currently attached.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// DetachAllClients gracefully detaches every currently attached client
// except keepID, the spec's "detach-others" attach option.
func (s *Server) DetachAllClients(keepID string) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.clients))
	for id := range s.clients {
		if id != keepID {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.DetachClient(id)
	}
}

// ClientSizeForWindow computes the minimum terminal size across every
// attached client currently focusing w, minus one row for the status
// bar if enabled. Returns (0, 0) if no client focuses w.
func (s *Server) ClientSizeForWindow(w *arrangement.Window) (rows, cols int) {
	rows, cols = 0, 0
	first := true
	for id, cl := range s.clients {
		if s.Arr.ActiveWindow(id) != w {
			continue
		}
		if first || cl.Rows < rows {
			rows = cl.Rows
		}
		if first || cl.Cols < cols {
			cols = cl.Cols
		}
		first = false
	}
	if first {
		return 0, 0
	}
	if s.SessionOpts.GetBool("status") {
		rows--
	}
	if rows < 1 {
		rows = 1
	}
	return rows, cols
}

// resizeWindowLocked recomputes w's client-minimum size and resizes
// every pane process to its computed rectangle. Callers must hold s.mu.
func (s *Server) resizeWindowLocked(w *arrangement.Window) {
	rows, cols := s.ClientSizeForWindow(w)
	if rows == 0 || cols == 0 {
		return
	}
	rects := Layout(w, cols, rows)
	for pane, r := range rects {
		if p, ok := s.panes[pane.ID]; ok {
			p.Resize(r.H, r.W)
		}
	}
}

// Pane returns the process backing a pane id.
func (s *Server) Pane(id int) (*process.Process, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.panes[id]
	return p, ok
}

// SetBuffer records text as the paste buffer, replacing any previous
// copy-mode yank.
func (s *Server) SetBuffer(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = text
}

// Buffer returns the current paste buffer and whether one has ever
// been set.
func (s *Server) Buffer() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer, s.buffer != ""
}

// spawnPaneLocked starts a pane's child process and registers it, wiring its
// output pump to mark every client focusing its window dirty and to
// tear the pane down on exit. Callers must hold s.mu.
func (s *Server) spawnPaneLocked(pane *arrangement.Pane, w *arrangement.Window, opts command.WindowOpts) error {
	rows, cols := s.ClientSizeForWindow(w)
	if rows == 0 {
		rows = 24
	}
	if cols == 0 {
		cols = 80
	}
	command := opts.Command
	if command == "" {
		if shell, ok := s.SessionOpts.Get("default-shell"); ok && shell != "" {
			command = shell
		}
	}
	args := opts.Args
	var extraEnv map[string]string
	if s.SockPath != "" {
		extraEnv = map[string]string{"WMUX": fmt.Sprintf("%s,%d", s.SockPath, pane.ID)}
	}
	p, err := process.Start(process.StartOpts{
		Command:  command,
		Args:     args,
		Dir:      opts.Dir,
		Rows:     rows,
		Cols:     cols,
		ExtraEnv: extraEnv,
	})
	if err != nil {
		return fmt.Errorf("spawn pane: %w", err)
	}
	p.HasPriority = func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return w.Active == pane
	}
	s.panes[pane.ID] = p

	go p.PumpOutput(func() {
		s.mu.Lock()
		for id, cl := range s.clients {
			if s.Arr.ActiveWindow(id) == w {
				cl.Dirty = true
			}
		}
		s.mu.Unlock()
	}, func(err error) {
		s.paneExited(pane, w)
	})

	return nil
}

// paneExited tears down a pane whose child process has exited: remove
// it from the window, close its process, and close the window/shut
// down the server if nothing is left.
func (s *Server) paneExited(pane *arrangement.Pane, w *arrangement.Window) {
	s.mu.Lock()
	if p, ok := s.panes[pane.ID]; ok {
		p.Close()
		delete(s.panes, pane.ID)
	}
	w.RemovePane(pane)
	if len(arrangement.Panes(w)) == 0 {
		s.Arr.RemoveWindow(w)
	}
	empty := len(s.Arr.Windows) == 0
	for _, cl := range s.clients {
		cl.Dirty = true
	}
	s.mu.Unlock()

	if empty {
		s.Shutdown()
	}
}

// Shutdown stops the auto-refresh loop and calls the configured
// on-empty callback, once.
func (s *Server) Shutdown() {
	select {
	case <-s.shutdown:
		return // already shut down
	default:
		close(s.shutdown)
		close(s.refreshStop)
	}
	if s.onEmpty != nil {
		s.onEmpty()
	}
}

// DumpCrash writes a diagnostic snapshot to a temp file and returns its
// path, for the top-level recover() handler to report to the user
// without losing the panic's context.
func DumpCrash(r interface{}) string {
	f, err := os.CreateTemp("", "wmux-crash-*.log")
	if err != nil {
		return ""
	}
	defer f.Close()
	fmt.Fprintf(f, "wmux crashed: %v\n", r)
	return filepath.Clean(f.Name())
}

package server

import "wmux/internal/keybinding"

// HandleKey routes one named key press from clientID through the
// key-binding table, honoring the routing precedence in
// keybinding.Route. It also clears any transient status message, which
// only survives until the client's next keystroke.
func (s *Server) HandleKey(clientID string, key string) {
	s.mu.Lock()
	cl, ok := s.clients[clientID]
	s.mu.Unlock()
	if !ok {
		return
	}
	cl.Message = ""
	keybinding.Route(s.Keys, cl, key)
	s.BroadcastInvalidate()
}

// Resize updates a client's reported terminal size and recomputes its
// focused window's layout.
func (s *Server) Resize(clientID string, rows, cols int) {
	s.mu.Lock()
	cl, ok := s.clients[clientID]
	if ok {
		cl.Rows, cl.Cols = rows, cols
		cl.Dirty = true
	}
	w, winOK := s.activeWindowLocked(clientID)
	if winOK {
		s.resizeWindowLocked(w)
	}
	s.mu.Unlock()
}

package cli

import (
	"encoding/json"
	"time"

	"wmux/internal/keybinding"
	"wmux/internal/server"
	"wmux/internal/transport"
)

// redrawPollInterval bounds how quickly a dirty client catches a
// redraw frame. Structural changes (new pane, key press) set Dirty
// immediately; this just bounds the worst-case latency of noticing it.
const redrawPollInterval = 16 * time.Millisecond

func redrawTick() <-chan time.Time { return time.After(redrawPollInterval) }

// splitKeys decodes a raw data frame's payload into the sequence of
// named key presses it represents, so the server's key-binding router
// never has to see raw bytes.
func splitKeys(payload []byte) []string {
	var keys []string
	for len(payload) > 0 {
		key, n := keybinding.Decode(payload)
		if n == 0 {
			break
		}
		keys = append(keys, key)
		payload = payload[n:]
	}
	return keys
}

// handleControlFrame applies a client's resize control message to its
// focused window.
func handleControlFrame(srv *server.Server, clientID string, payload []byte) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return
	}
	switch probe.Type {
	case "resize":
		var ctrl transport.ResizeControl
		if err := json.Unmarshal(payload, &ctrl); err == nil {
			srv.Resize(clientID, ctrl.Rows, ctrl.Cols)
		}
	}
}

// pushRedraws watches cl for dirty marks and writes a fresh render
// frame whenever one appears, until stop is closed.
func pushRedraws(srv *server.Server, cl *server.ClientState, fw *frameWriter, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		if cl.Dirty {
			if _, err := fw.Write(srv.Render(cl)); err != nil {
				return
			}
		}
		select {
		case <-stop:
			return
		case <-redrawTick():
		}
	}
}

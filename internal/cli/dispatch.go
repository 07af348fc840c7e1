package cli

import (
	"fmt"
	"strings"

	"wmux/internal/transport"
)

// dispatchCommand opens a one-shot connection to a running server and
// runs a single command line against it without entering the attach
// loop (spec.md §6's "command dispatch via socket" case, e.g.
// `wmux -S <path> new-window -n foo`).
func dispatchCommand(socket string, args []string) error {
	sockPath, err := resolveSocket(socket)
	if err != nil {
		return err
	}

	conn, err := transport.Dial(sockPath)
	if err != nil {
		return fmt.Errorf("dial %s: %w", sockPath, err)
	}
	defer conn.Close()

	line := strings.Join(args, " ")
	if err := transport.SendRequest(conn, &transport.Request{
		Type:    transport.RequestRunCommand,
		Command: line,
	}); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	resp, err := transport.ReadResponse(conn)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("%s: %s", args[0], resp.Error)
	}
	return nil
}

// resolveSocket returns an explicit socket path unchanged, or finds the
// sole running session's socket when none was given.
func resolveSocket(socket string) (string, error) {
	if socket != "" {
		return socket, nil
	}
	return transport.Find(transport.SocketDir(), "")
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"wmux/internal/transport"
)

func newAttachCmd() *cobra.Command {
	var flags sharedFlags
	var name string

	cmd := &cobra.Command{
		Use:   "attach [name]",
		Short: "Attach to a running wmux session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := refuseIfNested("attach"); err != nil {
				return err
			}
			if len(args) > 0 {
				name = args[0]
			}
			sockPath, err := resolveAttachSocket(flags.socket, name)
			if err != nil {
				return err
			}
			depth := detectColorDepth(flags.truecolor, flags.ansicolor)
			return runAttachLoop(sockPath, name, depth, flags.detachOthers)
		},
	}
	flags.register(cmd)
	return cmd
}

// resolveAttachSocket resolves an explicit socket, falling back to a
// named or sole session the same way dispatchCommand's resolveSocket
// does.
func resolveAttachSocket(socket, name string) (string, error) {
	if socket != "" {
		return socket, nil
	}
	return transport.Find(transport.SocketDir(), name)
}

// runAttachLoop dials sockPath, negotiates an attach, puts the local
// terminal into raw mode, and pumps bytes between stdin/stdout and the
// server's framed stream until the connection closes or the user's
// terminal hangs up.
func runAttachLoop(sockPath, name string, depth colorDepth, detachOthers bool) error {
	conn, err := transport.Dial(sockPath)
	if err != nil {
		return fmt.Errorf("dial %s: %w", sockPath, err)
	}
	defer conn.Close()

	fd := int(os.Stdin.Fd())
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		return fmt.Errorf("get terminal size (is this a terminal?): %w", err)
	}

	if err := transport.SendRequest(conn, &transport.Request{
		Type:         transport.RequestAttach,
		Session:      name,
		Rows:         rows,
		Cols:         cols,
		DetachOthers: detachOthers,
		ColorDepth:   string(depth),
	}); err != nil {
		return fmt.Errorf("send attach request: %w", err)
	}
	resp, err := transport.ReadResponse(conn)
	if err != nil {
		return fmt.Errorf("read attach response: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("attach: %s", resp.Error)
	}

	os.Setenv("COLORTERM", string(depth))

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	os.Stdout.Write([]byte("\033[?1000h\033[?1006h"))
	defer os.Stdout.Write([]byte("\033[?1000l\033[?1006l\033[?25h\033[0m\r\n"))

	sigWinch := make(chan os.Signal, 1)
	signal.Notify(sigWinch, syscall.SIGWINCH)
	defer signal.Stop(sigWinch)

	done := make(chan struct{})
	var readErr error

	go func() {
		defer close(done)
		readErr = pumpServerFrames(conn, os.Stdout, fd, oldState)
	}()
	go pumpWinch(conn, sigWinch, fd)
	go pumpStdin(conn, os.Stdin, done)

	<-done
	return readErr
}

// pumpServerFrames reads framed output from the server, writing data
// frames straight to out and dispatching control frames (mode changes,
// suspend requests) against the local terminal at fd. rawState is the
// terminal state term.MakeRaw saved on attach, needed to drop back to
// cooked mode and to re-enter raw mode afterward.
func pumpServerFrames(conn transport.Conn, out io.Writer, fd int, rawState *term.State) error {
	for {
		ft, payload, err := transport.ReadFrame(conn)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		switch ft {
		case transport.FrameData:
			out.Write(payload)
		case transport.FrameControl:
			handleServerControlFrame(payload, fd, rawState)
		}
	}
}

// handleServerControlFrame dispatches a "mode" or "suspend" control
// message pushed by the server. "mode" switches the local TTY between
// raw and cooked without otherwise interrupting the session; "suspend"
// drops to cooked mode and stops this process with SIGTSTP, the same
// way a foreground shell job suspends on Ctrl-Z, re-entering raw mode
// once a SIGCONT resumes it.
func handleServerControlFrame(payload []byte, fd int, rawState *term.State) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return
	}
	switch probe.Type {
	case "mode":
		var mc transport.ModeControl
		if err := json.Unmarshal(payload, &mc); err != nil {
			return
		}
		switch mc.Mode {
		case "cooked":
			term.Restore(fd, rawState)
		case "raw":
			term.MakeRaw(fd)
		}
	case "suspend":
		term.Restore(fd, rawState)
		syscall.Kill(syscall.Getpid(), syscall.SIGTSTP)
		term.MakeRaw(fd)
	}
}

// pumpStdin copies raw input bytes from in into data frames until in
// errors out or done is closed by the reader side hanging up.
func pumpStdin(conn transport.Conn, in io.Reader, done <-chan struct{}) {
	buf := make([]byte, 4096)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if werr := transport.WriteFrame(conn, transport.FrameData, buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
		select {
		case <-done:
			return
		default:
		}
	}
}

// pumpWinch forwards SIGWINCH as resize control frames until sigCh is
// stopped by the caller's deferred signal.Stop.
func pumpWinch(conn transport.Conn, sigCh <-chan os.Signal, fd int) {
	for range sigCh {
		cols, rows, err := term.GetSize(fd)
		if err != nil {
			continue
		}
		payload, err := json.Marshal(transport.ResizeControl{Type: "resize", Rows: rows, Cols: cols})
		if err != nil {
			continue
		}
		if err := transport.WriteFrame(conn, transport.FrameControl, payload); err != nil {
			return
		}
	}
}

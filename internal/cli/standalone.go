package cli

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"wmux/internal/config"
	"wmux/internal/keybinding"
	"wmux/internal/server"
)

func newStandaloneCmd() *cobra.Command {
	var flags sharedFlags

	cmd := &cobra.Command{
		Use:   "standalone",
		Short: "Run a wmux server and client in a single process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := refuseIfNested("standalone"); err != nil {
				return err
			}
			depth := detectColorDepth(flags.truecolor, flags.ansicolor)
			os.Setenv("COLORTERM", string(depth))
			return runStandalone(flags.confFile, depth)
		},
	}
	flags.register(cmd)
	return cmd
}

// runStandalone builds a server in this process (no socket, spec.md
// §6's alternative to client/server) and attaches the host TTY to it
// directly, driving HandleKey/Resize in-process instead of over a
// framed connection.
func runStandalone(confFile string, depth colorDepth) error {
	fd := int(os.Stdin.Fd())
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, "wmux: ", log.LstdFlags)
	quit := make(chan struct{})
	srv := server.New(server.Opts{
		Logger:  logger,
		OnEmpty: func() { close(quit) },
	})

	if cfg, cfgErr := config.Load(); cfgErr == nil {
		_ = cfg.ApplyTo(srv, "")
	}
	if confFile != "" {
		if cfg2, err := config.LoadFrom(confFile); err == nil {
			_ = cfg2.ApplyTo(srv, "")
		}
		if err := config.SourceFile(confFile, srv.Commands, srv, ""); err != nil {
			logger.Printf("warning: source %s: %v", confFile, err)
		}
	}

	clientID := "standalone"
	cl := srv.AttachClient(clientID, rows, cols, os.Stdout, string(depth))
	defer srv.DetachClientState(clientID)

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, oldState)

	os.Stdout.Write([]byte("\033[?1000h\033[?1006h"))
	defer os.Stdout.Write([]byte("\033[?1000l\033[?1006l\033[?25h\033[0m\r\n"))

	sigWinch := make(chan os.Signal, 1)
	signal.Notify(sigWinch, syscall.SIGWINCH)
	defer signal.Stop(sigWinch)

	go srv.RunAutoRefresh()
	go standaloneResizeLoop(srv, clientID, sigWinch, fd)
	go standaloneInputLoop(srv, clientID)
	go standaloneRedrawLoop(srv, cl, quit)

	<-quit
	return nil
}

// standaloneInputLoop decodes raw stdin bytes into named key presses
// and routes each one through the server, the in-process analog of
// splitKeys/HandleKey in the socket-attached path.
func standaloneInputLoop(srv *server.Server, clientID string) {
	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			payload := buf[:n]
			for len(payload) > 0 {
				key, consumed := keybinding.Decode(payload)
				if consumed == 0 {
					break
				}
				srv.HandleKey(clientID, key)
				payload = payload[consumed:]
			}
		}
		if err != nil {
			return
		}
	}
}

func standaloneResizeLoop(srv *server.Server, clientID string, sigCh <-chan os.Signal, fd int) {
	for range sigCh {
		cols, rows, err := term.GetSize(fd)
		if err != nil {
			continue
		}
		srv.Resize(clientID, rows, cols)
	}
}

// standaloneRedrawLoop is runServer's pushRedraws, minus the framing:
// writes cl's render straight to its OutputWriter whenever it's dirty.
func standaloneRedrawLoop(srv *server.Server, cl *server.ClientState, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		if cl.Dirty {
			if _, err := cl.Output.Write(srv.Render(cl)); err != nil {
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

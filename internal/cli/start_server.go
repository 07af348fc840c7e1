package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"wmux/internal/transport"
)

// foregroundEnvVar, when set, makes start-server run the server loop in
// place instead of forking, the same as the hidden --foreground flag
// that forkServerProcess passes to the re-exec'd daemon process.
const foregroundEnvVar = "WMUX_FOREGROUND"

func newStartServerCmd() *cobra.Command {
	var flags sharedFlags
	var name string
	var foreground bool

	cmd := &cobra.Command{
		Use:   "start-server [name]",
		Short: "Start a wmux server in the background",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := refuseIfNested("start-server"); err != nil {
				return err
			}
			if len(args) > 0 {
				name = args[0]
			}
			if name == "" {
				name = "main"
			}

			if foreground || os.Getenv(foregroundEnvVar) != "" {
				return runServerForeground(name, flags.confFile)
			}
			return daemonizeServer(name, flags.confFile)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "session name (default: main)")
	cmd.Flags().BoolVar(&foreground, "foreground", false, "run the server loop in this process instead of forking")
	cmd.Flags().MarkHidden("foreground")

	return cmd
}

// runServerForeground runs the accept loop in the calling process until
// the server's last window closes.
func runServerForeground(name, confFile string) error {
	logger := log.New(os.Stderr, "wmux: ", log.LstdFlags)
	_, _, done, err := runServer(serveOpts{
		sockDir:  transport.SocketDir(),
		name:     name,
		confFile: confFile,
		logger:   logger,
	})
	if err != nil {
		return err
	}
	<-done
	return nil
}

// daemonizeServer starts the real server loop in one re-exec'd child
// process placed in its own session (setsid); there is no second fork.
// It then waits for the child's socket to appear
// before returning (mirroring session.ForkDaemon's poll-for-socket
// handshake).
func daemonizeServer(name, confFile string) error {
	sockPath, err := forkServerProcess(name, confFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "server started: %s\n", sockPath)
	return nil
}

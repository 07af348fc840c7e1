// Package cli is wmux's cobra command surface: standalone, start-server,
// attach, list-sessions, and the bare-command socket dispatch described in
// spec.md §6.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// nestingEnvVar is set inside every pane's child process to
// "<socket>,<pane-id>" (spec.md §6). Its presence in the calling
// shell's environment means this invocation is itself running inside a
// wmux pane, and start-server/attach must refuse to nest.
const nestingEnvVar = "WMUX"

// sharedFlags are the -S/-f/--truecolor/--ansicolor/-d flags common to
// standalone, start-server, attach, and bare command dispatch.
type sharedFlags struct {
	socket     string
	confFile   string
	truecolor  bool
	ansicolor  bool
	detachOthers bool
}

func (f *sharedFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.socket, "socket", "S", "", "socket path (default: discover or derive from session name)")
	cmd.Flags().StringVarP(&f.confFile, "file", "f", "", "config file to source at startup")
	cmd.Flags().BoolVar(&f.truecolor, "truecolor", false, "force 24-bit color")
	cmd.Flags().BoolVar(&f.ansicolor, "ansicolor", false, "force 4-bit color")
	cmd.Flags().BoolVarP(&f.detachOthers, "detach-others", "d", false, "detach other clients on attach")
}

// NewRootCmd builds the root command and its full subcommand tree. The
// root command itself, when invoked with positional arguments that
// don't match any subcommand, dispatches them as a single command line
// against a running server's socket (spec.md §6's "command dispatch via
// socket" edge case, e.g. `wmux -S <path> new-window -n foo`).
func NewRootCmd() *cobra.Command {
	var flags sharedFlags

	root := &cobra.Command{
		Use:           "wmux [command args...]",
		Short:         "A terminal multiplexer",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return dispatchCommand(flags.socket, args)
		},
	}
	flags.register(root)
	root.Flags().SetInterspersed(false)

	root.AddCommand(
		newStandaloneCmd(),
		newStartServerCmd(),
		newAttachCmd(),
		newListSessionsCmd(),
		newVersionCmd(),
	)

	return root
}

// refuseIfNested returns an error when this process is already running
// inside a wmux pane, preventing a client from attaching to itself.
func refuseIfNested(cmd string) error {
	if v := os.Getenv(nestingEnvVar); v != "" {
		return fmt.Errorf("%s: refusing to nest: %s is already set to %q", cmd, nestingEnvVar, v)
	}
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"wmux/internal/transport"
)

func newListSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-sessions",
		Short: "List running wmux sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := transport.List(transport.SocketDir())
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no sessions running")
				return nil
			}
			for _, s := range sessions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", s.Name, s.Path)
			}
			return nil
		},
	}
}

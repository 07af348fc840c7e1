// Command wmux is a tmux/pymux-compatible terminal multiplexer.
package main

import (
	"fmt"
	"os"

	"wmux/internal/cli"
	"wmux/internal/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			path := server.DumpCrash(r)
			fmt.Fprintf(os.Stderr, "wmux: crashed: %v\n", r)
			if path != "" {
				fmt.Fprintf(os.Stderr, "wmux: details written to %s\n", path)
			}
			os.Exit(1)
		}
	}()

	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "wmux:", err)
		os.Exit(1)
	}
}

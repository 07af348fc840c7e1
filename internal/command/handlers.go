package command

import "strings"

// registerHandlers installs the minimum handler set from spec.md §4.5's
// table, each a thin adapter translating parsed tokens into one Backend
// call.
func registerHandlers(r *Registry) {
	r.Register("new-window", func(b Backend, client string, args []string) error {
		flags, _, pos := parseFlags(args, map[string]bool{"-n": true, "-c": true})
		opts := WindowOpts{Name: flags["-n"], Dir: flags["-c"]}
		if len(pos) > 0 {
			opts.Command, opts.Args = pos[0], pos[1:]
		}
		return b.NewWindow(client, opts)
	})

	r.Register("split-window", func(b Backend, client string, args []string) error {
		flags, bools, pos := parseFlags(args, map[string]bool{"-c": true})
		opts := WindowOpts{Dir: flags["-c"]}
		if len(pos) > 0 {
			opts.Command, opts.Args = pos[0], pos[1:]
		}
		return b.SplitWindow(client, opts, bools["-v"])
	})

	r.Register("kill-pane", func(b Backend, client string, args []string) error {
		return b.KillPane(client)
	})
	r.Register("kill-window", func(b Backend, client string, args []string) error {
		return b.KillWindow(client)
	})

	r.Register("select-pane", func(b Backend, client string, args []string) error {
		flags, bools, _ := parseFlags(args, map[string]bool{"-t": true})
		for _, d := range []string{"-L", "-R", "-U", "-D"} {
			if bools[d] {
				return b.SelectPaneDirection(client, d)
			}
		}
		if t, ok := flags["-t"]; ok {
			return b.SelectPaneTarget(client, t)
		}
		return NewException("select-pane: no target given")
	})

	r.Register("select-window", func(b Backend, client string, args []string) error {
		flags, _, _ := parseFlags(args, map[string]bool{"-t": true})
		return b.SelectWindow(client, flags["-t"])
	})

	r.Register("select-layout", func(b Backend, client string, args []string) error {
		_, _, pos := parseFlags(args, nil)
		if len(pos) == 0 {
			return NewException("select-layout: layout name required")
		}
		return b.SelectLayout(client, pos[0])
	})

	r.Register("resize-pane", func(b Backend, client string, args []string) error {
		flags, bools, _ := parseFlags(args, map[string]bool{"-L": true, "-R": true, "-U": true, "-D": true})
		amounts := make(map[string]int)
		for _, d := range []string{"-L", "-R", "-U", "-D"} {
			if v, ok := flags[d]; ok {
				amounts[d] = atoiOrZero(v)
			}
		}
		return b.ResizePane(client, amounts, bools["-Z"])
	})

	r.Register("rotate-window", func(b Backend, client string, args []string) error {
		_, bools, _ := parseFlags(args, nil)
		restrict := ""
		if bools["-U"] {
			restrict = "-U"
		} else if bools["-D"] {
			restrict = "-D"
		}
		return b.RotateWindow(client, restrict)
	})

	r.Register("swap-pane", func(b Backend, client string, args []string) error {
		_, bools, _ := parseFlags(args, nil)
		return b.SwapPane(client, bools["-D"])
	})

	r.Register("break-pane", func(b Backend, client string, args []string) error {
		return b.BreakPane(client)
	})

	r.Register("detach-client", func(b Backend, client string, args []string) error {
		return b.DetachClient(client)
	})

	r.Register("suspend-client", func(b Backend, client string, args []string) error {
		return b.SuspendClient(client)
	})

	r.Register("command-prompt", func(b Backend, client string, args []string) error {
		flags, _, pos := parseFlags(args, map[string]bool{"-p": true, "-I": true})
		template := ""
		if len(pos) > 0 {
			template = strings.Join(pos, " ")
		}
		return b.CommandPrompt(client, flags["-p"], flags["-I"], template)
	})

	r.Register("confirm-before", func(b Backend, client string, args []string) error {
		flags, _, pos := parseFlags(args, map[string]bool{"-p": true})
		if len(pos) == 0 {
			return NewException("confirm-before: command required")
		}
		return b.ConfirmBefore(client, flags["-p"], strings.Join(pos, " "))
	})

	r.Register("bind-key", func(b Backend, client string, args []string) error {
		// Dispatch has already injected "--" after the key (see
		// injectBindKeySeparator), so parseFlags folds everything from
		// the command onward into positional args untouched.
		_, bools, pos := parseFlags(args, nil)
		if len(pos) == 0 {
			return NewException("bind-key: key required")
		}
		key := pos[0]
		var cmd string
		var rest []string
		if len(pos) > 1 {
			cmd = pos[1]
			rest = pos[2:]
		}
		return b.BindKey(bools["-n"], key, cmd, rest)
	})

	r.Register("unbind-key", func(b Backend, client string, args []string) error {
		_, bools, pos := parseFlags(args, nil)
		if len(pos) == 0 {
			return NewException("unbind-key: key required")
		}
		return b.UnbindKey(bools["-n"], pos[0])
	})

	r.Register("send-keys", func(b Backend, client string, args []string) error {
		return b.SendKeys(client, args)
	})
	r.Register("send-prefix", func(b Backend, client string, args []string) error {
		return b.SendPrefix(client)
	})

	r.Register("copy-mode", func(b Backend, client string, args []string) error {
		_, bools, _ := parseFlags(args, nil)
		return b.CopyMode(client, bools["-u"])
	})
	r.Register("paste-buffer", func(b Backend, client string, args []string) error {
		return b.PasteBuffer(client)
	})
	r.Register("clear-history", func(b Backend, client string, args []string) error {
		return b.ClearHistory(client)
	})

	r.Register("set-option", func(b Backend, client string, args []string) error {
		_, _, pos := parseFlags(args, nil)
		if len(pos) < 2 {
			return NewException("set-option: option and value required")
		}
		return b.SetOption(client, pos[0], strings.Join(pos[1:], " "), false)
	})
	r.Register("set-window-option", func(b Backend, client string, args []string) error {
		_, _, pos := parseFlags(args, nil)
		if len(pos) < 2 {
			return NewException("set-window-option: option and value required")
		}
		return b.SetOption(client, pos[0], strings.Join(pos[1:], " "), true)
	})

	r.Register("source-file", func(b Backend, client string, args []string) error {
		_, _, pos := parseFlags(args, nil)
		if len(pos) == 0 {
			return NewException("source-file: path required")
		}
		return b.SourceFile(client, pos[0])
	})

	r.Register("list-keys", func(b Backend, client string, args []string) error { return b.ListKeys(client) })
	r.Register("list-panes", func(b Backend, client string, args []string) error { return b.ListPanes(client) })
	r.Register("list-windows", func(b Backend, client string, args []string) error { return b.ListWindows(client) })

	r.Register("display-message", func(b Backend, client string, args []string) error {
		return b.DisplayMessage(client, strings.Join(args, " "))
	})
	r.Register("display-panes", func(b Backend, client string, args []string) error {
		return b.DisplayPanes(client)
	})
}

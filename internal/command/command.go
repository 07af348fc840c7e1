// Package command implements the tmux-compatible text command language:
// alias resolution, shell-style tokenization, a handler registry, and the
// option-spec parsing pipeline described in spec.md §4.5.
package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/shlex"
)

// Exception is a user-visible command error: it is displayed in the
// calling client's message area rather than tearing down the session.
type Exception struct{ Message string }

func (e *Exception) Error() string { return e.Message }

// NewException builds an Exception with a formatted message.
func NewException(format string, args ...interface{}) *Exception {
	return &Exception{Message: fmt.Sprintf(format, args...)}
}

// Backend is every operation a command handler may invoke against the
// server core. It is defined here (not imported from package server) so
// that server.Server can satisfy it without an import cycle.
type Backend interface {
	NewWindow(clientID string, opts WindowOpts) error
	SplitWindow(clientID string, opts WindowOpts, vertical bool) error
	KillPane(clientID string) error
	KillWindow(clientID string) error
	SelectPaneDirection(clientID, dir string) error
	SelectPaneTarget(clientID, target string) error
	SelectWindow(clientID string, target string) error
	SelectLayout(clientID, kind string) error
	ResizePane(clientID string, dirAmounts map[string]int, zoom bool) error
	RotateWindow(clientID string, restrict string) error
	SwapPane(clientID string, next bool) error
	BreakPane(clientID string) error
	DetachClient(clientID string) error
	SuspendClient(clientID string) error
	CommandPrompt(clientID, prompt, initial, template string) error
	ConfirmBefore(clientID, prompt, cmd string) error
	BindKey(noPrefix bool, key string, cmd string, args []string) error
	UnbindKey(noPrefix bool, key string) error
	SendKeys(clientID string, keys []string) error
	SendPrefix(clientID string) error
	CopyMode(clientID string, fromBottom bool) error
	PasteBuffer(clientID string) error
	ClearHistory(clientID string) error
	SetOption(clientID, name, value string, windowScope bool) error
	SourceFile(clientID, path string) error
	ListKeys(clientID string) error
	ListPanes(clientID string) error
	ListWindows(clientID string) error
	DisplayMessage(clientID, msg string) error
	DisplayPanes(clientID string) error
}

// WindowOpts carries the common -n/-c/[command] options shared by
// new-window and split-window.
type WindowOpts struct {
	Name    string
	Dir     string
	Command string
	Args    []string
}

// Handler runs one parsed invocation of a registered command.
type Handler func(b Backend, clientID string, args []string) error

// Registry is the global mapping from canonical command name to handler.
type Registry struct {
	handlers map[string]Handler
	aliases  map[string]string
}

// NewRegistry builds a Registry with every spec.md §4.5 handler and the
// full pymux alias table registered.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler), aliases: make(map[string]string)}
	registerHandlers(r)
	for alias, canon := range Aliases {
		r.aliases[alias] = canon
	}
	return r
}

// Register adds or replaces a handler under name.
func (r *Registry) Register(name string, h Handler) { r.handlers[name] = h }

// Resolve follows the alias table to a canonical command name.
func (r *Registry) Resolve(name string) string {
	if canon, ok := r.aliases[name]; ok {
		return canon
	}
	return name
}

// Lookup returns the handler for a (possibly aliased) command name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[r.Resolve(name)]
	return h, ok
}

// Dispatch runs the full parsing pipeline (spec.md §4.5) against one raw
// input line: trim, skip comments, tokenize, resolve alias, look up
// handler, and invoke it. Parse/lookup/tokenize failures are returned as
// *Exception so the caller can surface them without tearing down state.
func (r *Registry) Dispatch(b Backend, clientID, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	tokens, err := shlex.Split(line)
	if err != nil {
		return NewException("parse error: %v", err)
	}
	if len(tokens) == 0 {
		return nil
	}
	name := r.Resolve(tokens[0])
	h, ok := r.handlers[name]
	if !ok {
		return NewException("unknown command: %s", tokens[0])
	}
	args := tokens[1:]
	if name == "bind-key" {
		args = injectBindKeySeparator(args)
	}
	if err := h(b, clientID, args); err != nil {
		if _, ok := err.(*Exception); ok {
			return err
		}
		return NewException("%v", err)
	}
	return nil
}

// injectBindKeySeparator implements bind-key's special case: a "--" is
// inserted after the first non-flag argument so the trailing command and
// its arguments are captured as a single list rather than re-parsed as
// bind-key's own flags.
func injectBindKeySeparator(args []string) []string {
	for i, a := range args {
		if strings.HasPrefix(a, "-") {
			continue
		}
		out := make([]string, 0, len(args)+1)
		out = append(out, args[:i+1]...)
		out = append(out, "--")
		out = append(out, args[i+1:]...)
		return out
	}
	return args
}

// parseFlags is a tiny docopt-style option parser shared by handlers: it
// extracts known boolean/value flags from args and returns the remaining
// positional tokens. valueFlags names flags that consume the following
// token as their value; all others are treated as booleans.
func parseFlags(args []string, valueFlags map[string]bool) (flags map[string]string, bools map[string]bool, positional []string) {
	flags = make(map[string]string)
	bools = make(map[string]bool)
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if strings.HasPrefix(a, "-") && len(a) > 1 {
			if valueFlags[a] && i+1 < len(args) {
				flags[a] = args[i+1]
				i++
			} else {
				bools[a] = true
			}
			continue
		}
		positional = append(positional, a)
	}
	return
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

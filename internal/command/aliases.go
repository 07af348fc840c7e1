package command

// Aliases is the fixed alias table resolved before handler lookup,
// carried over from pymux's commands/aliases.py in full (spec.md §4.5
// only shows three examples; SPEC_FULL.md §4 restores the rest).
var Aliases = map[string]string{
	"bind":     "bind-key",
	"unbind":   "unbind-key",
	"killp":    "kill-pane",
	"killw":    "kill-window",
	"splitw":   "split-window",
	"selectw":  "select-window",
	"selectp":  "select-pane",
	"neww":     "new-window",
	"lsw":      "list-windows",
	"lsp":      "list-panes",
	"lsk":      "list-keys",
	"setw":     "set-window-option",
	"set":      "set-option",
	"send":     "send-keys",
	"resizep":  "resize-pane",
	"swapp":    "swap-pane",
	"rotatew":  "rotate-window",
	"detach":   "detach-client",
	"suspendc": "suspend-client",
	"confirm":  "confirm-before",
}

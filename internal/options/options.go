// Package options implements the validated option map shared by session-wide
// and per-window scopes: value plus type plus allowed-values, mutated only
// through a registered per-option validator.
package options

import "fmt"

// Kind is the type tag of an option's value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
)

// Spec describes one settable option: its kind, default, and (for string
// options with a closed vocabulary) the allowed values.
type Spec struct {
	Name     string
	Kind     Kind
	Default  string
	Allowed  []string // empty means unrestricted
}

// Set is a flat name -> (value, spec) mapping for one scope (session-wide
// or per-window).
type Set struct {
	specs  map[string]Spec
	values map[string]string
}

// NewSet builds a Set pre-populated with specs's defaults.
func NewSet(specs []Spec) *Set {
	s := &Set{specs: make(map[string]Spec, len(specs)), values: make(map[string]string, len(specs))}
	for _, spec := range specs {
		s.specs[spec.Name] = spec
		s.values[spec.Name] = spec.Default
	}
	return s
}

// Get returns an option's current string value and whether it is known.
func (s *Set) Get(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// GetBool returns an option's value coerced to bool ("on"/"1"/"true").
func (s *Set) GetBool(name string) bool {
	v, _ := s.Get(name)
	return v == "on" || v == "1" || v == "true"
}

// Set validates and stores a new value for name, per its registered Spec.
func (s *Set) Set(name, value string) error {
	spec, ok := s.specs[name]
	if !ok {
		return fmt.Errorf("unknown option %q", name)
	}
	if err := validate(spec, value); err != nil {
		return err
	}
	s.values[name] = value
	return nil
}

func validate(spec Spec, value string) error {
	switch spec.Kind {
	case KindBool:
		if value != "on" && value != "off" {
			return fmt.Errorf("option %q must be 'on' or 'off', got %q", spec.Name, value)
		}
	case KindInt:
		for _, r := range value {
			if (r < '0' || r > '9') && r != '-' {
				return fmt.Errorf("option %q must be an integer, got %q", spec.Name, value)
			}
		}
	case KindString:
		if len(spec.Allowed) > 0 {
			ok := false
			for _, a := range spec.Allowed {
				if a == value {
					ok = true
					break
				}
			}
			if !ok {
				return fmt.Errorf("option %q must be one of %v, got %q", spec.Name, spec.Allowed, value)
			}
		}
	}
	return nil
}

// All returns every known option name to its current value.
func (s *Set) All() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// SessionDefaults are the session-scope options pymux-compatible configs
// expect to be able to set (prefix, status bar, history limit, base index,
// bell, mouse).
var SessionDefaults = []Spec{
	{Name: "prefix", Kind: KindString, Default: "C-b"},
	{Name: "status", Kind: KindBool, Default: "on"},
	{Name: "status-interval", Kind: KindInt, Default: "4"},
	{Name: "base-index", Kind: KindInt, Default: "0"},
	{Name: "enable-bell", Kind: KindBool, Default: "on"},
	{Name: "mouse", Kind: KindBool, Default: "off"},
	{Name: "history-limit", Kind: KindInt, Default: "2000"},
	{Name: "default-shell", Kind: KindString, Default: ""},
}

// WindowDefaults are the per-window-scope options (synchronize, main-pane
// size, automatic rename).
var WindowDefaults = []Spec{
	{Name: "synchronize-panes", Kind: KindBool, Default: "off"},
	{Name: "main-pane-width", Kind: KindInt, Default: "80"},
	{Name: "main-pane-height", Kind: KindInt, Default: "24"},
	{Name: "automatic-rename", Kind: KindBool, Default: "on"},
}

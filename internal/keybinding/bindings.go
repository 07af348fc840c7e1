package keybinding

import "fmt"

// Binding is the command a custom key binding triggers.
type Binding struct {
	Command string
	Args    []string
}

type bindingKey struct {
	NeedsPrefix bool
	Key         string
}

// Table is the custom-binding registry: (needs_prefix, key_name) ->
// (command, args). The default prefix key is Ctrl-B; `set prefix`
// replaces it atomically.
type Table struct {
	bindings map[bindingKey]Binding
	Prefix   string
}

// NewTable returns a Table with the default Ctrl-B prefix and no custom
// bindings.
func NewTable() *Table {
	return &Table{bindings: make(map[bindingKey]Binding), Prefix: "C-b"}
}

// Bind registers (or replaces) a custom binding.
func (t *Table) Bind(needsPrefix bool, key, cmd string, args []string) {
	t.bindings[bindingKey{needsPrefix, key}] = Binding{Command: cmd, Args: args}
}

// Unbind removes a custom binding, if present.
func (t *Table) Unbind(needsPrefix bool, key string) {
	delete(t.bindings, bindingKey{needsPrefix, key})
}

// Lookup finds a custom binding for (needsPrefix, key).
func (t *Table) Lookup(needsPrefix bool, key string) (Binding, bool) {
	b, ok := t.bindings[bindingKey{needsPrefix, key}]
	return b, ok
}

// SetPrefix atomically replaces the prefix key.
func (t *Table) SetPrefix(key string) { t.Prefix = key }

// ValidateKeyName reports an error for key names the encoder can't
// translate, surfaced to bind-key callers per spec.md §7.
func ValidateKeyName(key string) error {
	if key == "" {
		return fmt.Errorf("empty key name")
	}
	return nil
}

package settings

import (
	"fmt"
	"maps"
	"strconv"
)

// Top-level names read from a configuration file.
const (
	KeyWorkspaces = "workspaces"
	KeyLayouts    = "layouts"
	KeyDynamic    = "dynamic"
	KeyBindings   = "bindings"
)

// Configuration is a loaded e3wm configuration. It is immutable once built;
// the values handed out by its getters are the decoded values themselves and
// must not be modified by callers.
type Configuration struct {
	attrs map[string]any
}

// FromTree builds a Configuration from a decoded top-level mapping.
func FromTree(tree map[string]any) *Configuration {
	attrs := make(map[string]any, len(tree))
	maps.Copy(attrs, tree)
	return &Configuration{attrs: attrs}
}

// Tree returns a shallow copy of the top-level mapping.
func (c *Configuration) Tree() map[string]any {
	out := make(map[string]any, len(c.attrs))
	maps.Copy(out, c.attrs)
	return out
}

// Has reports whether the top-level name is defined.
func (c *Configuration) Has(name string) bool {
	_, ok := c.attrs[name]
	return ok
}

// Workspaces returns the workspace definitions verbatim.
func (c *Configuration) Workspaces() ([]any, error) {
	return c.sequence(KeyWorkspaces)
}

// Layouts returns the layout definitions verbatim.
func (c *Configuration) Layouts() ([]any, error) {
	return c.sequence(KeyLayouts)
}

// Dynamic returns the dynamic-behaviour settings verbatim.
func (c *Configuration) Dynamic() (map[string]any, error) {
	raw, ok := c.attrs[KeyDynamic]
	if !ok {
		return nil, &AttributeError{Name: KeyDynamic, Err: ErrAttributeMissing}
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, &AttributeError{Name: KeyDynamic, Err: fmt.Errorf("%w: want mapping, got %T", ErrAttributeType, raw)}
	}
	return m, nil
}

// Binding returns the keybinding entry at index. Bindings may be declared as
// a sequence (index is the position) or as a mapping keyed by integers.
func (c *Configuration) Binding(index int) (Binding, error) {
	raw, ok := c.attrs[KeyBindings]
	if !ok {
		return Binding{}, &AttributeError{Name: KeyBindings, Err: ErrAttributeMissing}
	}
	if index < 0 {
		return Binding{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	var entry any
	switch v := raw.(type) {
	case []any:
		if index >= len(v) {
			return Binding{}, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(v))
		}
		entry = v[index]
	case map[string]any:
		e, found := lookupIndex(v, index)
		if !found {
			return Binding{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}
		entry = e
	default:
		return Binding{}, &AttributeError{Name: KeyBindings, Err: fmt.Errorf("%w: want sequence or mapping, got %T", ErrAttributeType, raw)}
	}

	b, err := bindingFromValue(entry)
	if err != nil {
		return Binding{}, &AttributeError{Name: fmt.Sprintf("%s[%d]", KeyBindings, index), Err: err}
	}
	return b, nil
}

func (c *Configuration) sequence(name string) ([]any, error) {
	raw, ok := c.attrs[name]
	if !ok {
		return nil, &AttributeError{Name: name, Err: ErrAttributeMissing}
	}
	seq, ok := raw.([]any)
	if !ok {
		return nil, &AttributeError{Name: name, Err: fmt.Errorf("%w: want sequence, got %T", ErrAttributeType, raw)}
	}
	return seq, nil
}

// lookupIndex finds the entry keyed by the canonical decimal form of index.
// Keys such as "01", "+1" or " 1" never match, so a lookup has exactly one
// possible answer.
func lookupIndex(m map[string]any, index int) (any, bool) {
	e, ok := m[strconv.Itoa(index)]
	return e, ok
}

package settings

import "fmt"

// Binding is one keybinding entry: the key string, the command it runs, and
// the group and description shown in help listings.
type Binding struct {
	Keys        string `json:"keys,omitempty" yaml:"keys,omitempty"`
	Command     string `json:"command" yaml:"command"`
	Group       string `json:"group,omitempty" yaml:"group,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// bindingFromValue accepts a bare command string, a [keys, command, group,
// description] sequence, or a mapping with those field names.
func bindingFromValue(v any) (Binding, error) {
	switch entry := v.(type) {
	case string:
		return Binding{Command: entry}, nil
	case []any:
		return bindingFromSequence(entry)
	case map[string]any:
		return bindingFromMapping(entry)
	default:
		return Binding{}, fmt.Errorf("%w: binding entry is %T", ErrAttributeType, v)
	}
}

func bindingFromSequence(seq []any) (Binding, error) {
	if len(seq) == 0 || len(seq) > 4 {
		return Binding{}, fmt.Errorf("%w: binding sequence must have 1 to 4 elements, got %d", ErrAttributeType, len(seq))
	}
	fields := make([]string, 4)
	for i, item := range seq {
		s, ok := item.(string)
		if !ok {
			return Binding{}, fmt.Errorf("%w: binding element %d is %T", ErrAttributeType, i, item)
		}
		fields[i] = s
	}
	return Binding{
		Keys:        fields[0],
		Command:     fields[1],
		Group:       fields[2],
		Description: fields[3],
	}, nil
}

var bindingFieldAliases = map[string]string{
	"keys":        "keys",
	"key":         "keys",
	"command":     "command",
	"cmd":         "command",
	"group":       "group",
	"description": "description",
	"desc":        "description",
}

func bindingFromMapping(m map[string]any) (Binding, error) {
	var b Binding
	for name, value := range m {
		field, known := bindingFieldAliases[name]
		if !known {
			continue
		}
		s, ok := value.(string)
		if !ok {
			return Binding{}, fmt.Errorf("%w: binding field %q is %T", ErrAttributeType, name, value)
		}
		switch field {
		case "keys":
			b.Keys = s
		case "command":
			b.Command = s
		case "group":
			b.Group = s
		case "description":
			b.Description = s
		}
	}
	return b, nil
}

package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/e3wm/e3wm-api/internal/source"
)

// Load reads and decodes the configuration file named by loc.
func Load(loc source.Location) (*Configuration, error) {
	data, err := os.ReadFile(loc.File)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", source.ErrConfigurationNotFound, loc.File)
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Decode(loc.Format, data)
}

// Decode parses data in the given format.
func Decode(format source.Format, data []byte) (*Configuration, error) {
	var (
		tree map[string]any
		err  error
	)
	switch format {
	case source.FormatYAML:
		tree, err = decodeYAML(data)
	case source.FormatTOML:
		tree, err = decodeTOML(data)
	case source.FormatJSONC:
		tree, err = decodeJSONC(data)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidConfiguration, format)
	}
	if err != nil {
		return nil, err
	}
	return FromTree(tree), nil
}

func decodeYAML(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse YAML: %w", ErrInvalidConfiguration, err)
	}
	tree := make(map[string]any, len(raw))
	for k, v := range raw {
		tree[k] = normalizeYAML(v)
	}
	return tree, nil
}

func decodeTOML(data []byte) (map[string]any, error) {
	tree := map[string]any{}
	if err := toml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("%w: parse TOML: %w", ErrInvalidConfiguration, err)
	}
	return tree, nil
}

func decodeJSONC(data []byte) (map[string]any, error) {
	tree := map[string]any{}
	if err := json.Unmarshal(jsonc.ToJSON(data), &tree); err != nil {
		return nil, fmt.Errorf("%w: parse JSON: %w", ErrInvalidConfiguration, err)
	}
	return tree, nil
}

// normalizeYAML rewrites mappings with non-string keys (for example
// `bindings: {0: ...}`) into string-keyed mappings so every format yields the
// same tree shape. Scalars are left untouched.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case map[string]any:
		for k, item := range t {
			t[k] = normalizeYAML(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = normalizeYAML(item)
		}
		return t
	default:
		return v
	}
}

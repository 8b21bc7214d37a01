// Package settings holds the declarative e3wm configuration model. A
// configuration file (YAML, TOML, or JSON with comments) is decoded into a
// generic tree whose top-level names are workspaces, layouts, dynamic, and
// bindings. Values are kept as decoded; the typed getters only check shape.
package settings

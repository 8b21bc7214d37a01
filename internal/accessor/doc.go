// Package accessor exposes a loaded e3wm configuration through four getters.
// Workspaces, Layouts, and Dynamic fail fast: they return the load error or
// an attribute error. Keybinding is a guarded lookup that reports any failure
// as an absent binding.
package accessor

// Package keybinding parses e3wm key strings such as "M-S-<enter>" into a
// modifier set and a key name.
package keybinding

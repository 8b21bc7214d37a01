// Package source decides which e3wm configuration directory is active. The
// user directory under $XDG_CONFIG_HOME is checked first; the system-wide
// /etc/xdg/e3wm directory is the fallback.
package source

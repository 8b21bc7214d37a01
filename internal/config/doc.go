// Package config loads runtime settings of the e3wm-api tool from multiple
// sources (a YAML settings file, environment variables, CLI flags) with
// precedence: CLI flags > YAML settings > Environment variables > Defaults.
// It does not hold the window-manager configuration itself; see package
// settings for that.
package config

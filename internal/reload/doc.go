// Package reload swaps in a freshly loaded configuration accessor on demand
// or when a configuration file in a watched directory changes.
package reload

// Package application wires the e3wm-api service together: it resolves the
// configuration source, loads the first accessor into snapshot storage, and
// builds the reloader, handlers, router and HTTP server around it. This keeps
// the main package focused on CLI parsing and orchestration.
package application

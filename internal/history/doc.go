// Package history persists completed run outcomes across restarts.
//
// It implements schedule.Recorder on top of two interchangeable backends
// (JSON Lines file, SQLite) and adds querying of recent runs for
// inspection. Persistence is optional; with no driver configured the
// in-memory ring inside pkg/schedule is all the history there is.
package history

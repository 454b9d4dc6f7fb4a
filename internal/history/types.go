package history

import (
	"context"
	"errors"
	"time"

	"metron/pkg/schedule"
)

var ErrDisabled = errors.New("history disabled")

// Config configures run-history persistence.
//
// Driver values:
//   - "file": dependency-free append-only JSON Lines backend
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", persistence is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
	Retention   time.Duration // sqlite only; 0 disables pruning
}

// Store persists completed runs and serves them back for inspection.
// Implementations are safe for concurrent use across schedules.
type Store interface {
	schedule.Recorder

	// RecentRuns returns up to limit runs for the named schedule, newest
	// first. An empty name matches all schedules.
	RecentRuns(ctx context.Context, name string, limit int) ([]schedule.HistoryItem, error)

	Close() error
}

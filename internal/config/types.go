package config

import (
	"fmt"
	"strings"
	"time"

	"metron/pkg/schedule"
)

// Config is metrond's root configuration.
//
// Durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Logging LoggingConfig `json:"logging"`

	// Timezone is an IANA name (e.g. "Asia/Jakarta") used to evaluate
	// wall-clock schedules (daily/weekly/cron). Empty means local time.
	Timezone string `json:"timezone,omitempty"`

	// History persists run outcomes. If omitted, history is in-memory only.
	History *HistoryConfig `json:"history,omitempty"`

	Jobs []JobConfig `json:"jobs"`
}

type LoggingConfig struct {
	Level   string     `json:"level,omitempty"`
	Console bool       `json:"console,omitempty"`
	File    FileConfig `json:"file,omitempty"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// HistoryConfig configures persistent run history.
//
// Driver values:
//   - "file": dependency-free jsonl backend
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", persistence is disabled.
type HistoryConfig struct {
	Driver string `json:"driver"`
	Path   string `json:"path,omitempty"`

	// BusyTimeout applies to sqlite only; empty means the driver default.
	BusyTimeout string `json:"busy_timeout,omitempty"`

	// Retention prunes runs older than this age (sqlite only).
	// Empty disables pruning.
	Retention string `json:"retention,omitempty"`
}

// JobConfig declares one scheduled command job.
type JobConfig struct {
	Name string `json:"name"`

	// Schedule uses the schedule.ParseRule grammar: cron expressions,
	// durations, "daily@HH:MM", "weekly:mon,fri@HH:MM", "once:+10m".
	Schedule string `json:"schedule"`

	// Command is run through the shell for each execution.
	Command string `json:"command"`

	// Timeout bounds each run (Go duration string). Empty means none.
	Timeout string `json:"timeout,omitempty"`

	Disabled bool `json:"disabled,omitempty"`
}

// Validate checks the whole config, including that every schedule string
// parses. It is used both at startup and as the hot-reload validator so a
// broken edit never replaces a working config.
func (c *Config) Validate() error {
	loc := time.Local
	if tz := strings.TrimSpace(c.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("timezone: invalid %q: %w", tz, err)
		}
		loc = l
	}

	if c.History != nil {
		if _, err := ParseDurationField("history.busy_timeout", c.History.BusyTimeout); err != nil {
			return err
		}
		if _, err := ParseDurationField("history.retention", c.History.Retention); err != nil {
			return err
		}
	}

	seen := map[string]bool{}
	for i, j := range c.Jobs {
		path := fmt.Sprintf("jobs[%d]", i)
		name := strings.TrimSpace(j.Name)
		if name == "" {
			return fmt.Errorf("%s: name required", path)
		}
		if seen[name] {
			return fmt.Errorf("%s: duplicate job name %q", path, name)
		}
		seen[name] = true
		if strings.TrimSpace(j.Command) == "" {
			return fmt.Errorf("%s (%s): command required", path, name)
		}
		if _, err := schedule.ParseRule(j.Schedule, loc); err != nil {
			return fmt.Errorf("%s (%s): %w", path, name, err)
		}
		if _, err := ParseDurationField(path+".timeout", j.Timeout); err != nil {
			return err
		}
	}
	return nil
}

// Location resolves the configured timezone; Validate must have passed.
func (c *Config) Location() *time.Location {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Local
	}
	return loc
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", `
logging:
  level: DEBUG
  console: true
timezone: UTC
history:
  driver: sqlite
  path: ./runs.db
  busy_timeout: 5s
jobs:
  - name: heartbeat
    schedule: 30s
    command: "echo ok"
    timeout: 10s
  - name: nightly
    schedule: daily@02:30
    command: "/usr/local/bin/backup.sh"
`)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Logging.Level != "DEBUG" || !cfg.Logging.Console {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.History == nil || cfg.History.Driver != "sqlite" {
		t.Fatalf("unexpected history config: %+v", cfg.History)
	}
	if len(cfg.Jobs) != 2 || cfg.Jobs[0].Name != "heartbeat" || cfg.Jobs[1].Schedule != "daily@02:30" {
		t.Fatalf("unexpected jobs: %+v", cfg.Jobs)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get did not return the committed config")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", `
jobs:
  - name: x
    schedule: 30s
    command: "echo ok"
    shedule_typo: oops
`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParseRejectsTrailingJSON(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"jobs":[]}{"jobs":[]}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()
	job := func(mut func(*JobConfig)) *Config {
		j := JobConfig{Name: "a", Schedule: "30s", Command: "echo ok"}
		mut(&j)
		return &Config{Jobs: []JobConfig{j}}
	}

	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "empty name", cfg: job(func(j *JobConfig) { j.Name = " " })},
		{name: "empty command", cfg: job(func(j *JobConfig) { j.Command = "" })},
		{name: "bad schedule", cfg: job(func(j *JobConfig) { j.Schedule = "whenever" })},
		{name: "bad timeout", cfg: job(func(j *JobConfig) { j.Timeout = "10 parsecs" })},
		{name: "bad timezone", cfg: &Config{Timezone: "Mars/Olympus"}},
		{name: "duplicate names", cfg: &Config{Jobs: []JobConfig{
			{Name: "a", Schedule: "30s", Command: "echo"},
			{Name: "a", Schedule: "1m", Command: "echo"},
		}}},
		{name: "bad retention", cfg: &Config{History: &HistoryConfig{Driver: "sqlite", Retention: "-1h"}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty = (%v, %v), want (0, nil)", d, err)
	}
	if _, err := ParseDurationField("x", "-5s"); err == nil {
		t.Fatal("expected error for negative duration")
	}
	if d, err := ParseDurationOrDefault("x", "", 42); err != nil || d != 42 {
		t.Fatalf("default = (%v, %v), want (42, nil)", d, err)
	}
}

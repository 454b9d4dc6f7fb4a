package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"metron/pkg/logx"
	"metron/pkg/schedule"
)

// fileStore is a dependency-free persistence backend: one append-only JSON
// Lines file holding every recorded run. Reads scan the whole file; this
// backend suits small deployments where the sqlite driver is unwanted.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	file *os.File
	path string
}

// runRecord is the on-disk shape. Schema-stable: add fields, never rename.
type runRecord struct {
	Name        string    `json:"name"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Started     time.Time `json:"started"`
	DurationMS  int64     `json:"duration_ms"`
	Error       string    `json:"err,omitempty"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("history.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &fileStore{log: log, file: f, path: path}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *fileStore) Record(ctx context.Context, item schedule.HistoryItem) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.New("history file closed")
	}
	rec := runRecord{
		Name:        item.Name,
		ScheduledAt: item.ScheduledAt,
		Started:     item.Started,
		DurationMS:  item.Duration.Milliseconds(),
		Error:       item.Error,
	}
	return json.NewEncoder(s.file).Encode(rec)
}

func (s *fileStore) RecentRuns(ctx context.Context, name string, limit int) ([]schedule.HistoryItem, error) {
	_ = ctx
	if limit <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	path := s.path
	s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	// Keep only the last `limit` matches while scanning forward.
	var items []schedule.HistoryItem
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec runRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			// A torn last line after a crash is expected; skip it.
			continue
		}
		if name != "" && rec.Name != name {
			continue
		}
		items = append(items, schedule.HistoryItem{
			Name:        rec.Name,
			ScheduledAt: rec.ScheduledAt,
			Started:     rec.Started,
			Duration:    time.Duration(rec.DurationMS) * time.Millisecond,
			Error:       rec.Error,
		})
		if len(items) > limit {
			items = items[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	// newest first
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

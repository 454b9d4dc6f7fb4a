package schedule

import "time"

// defaultHistorySize caps the in-memory run history when Options.HistorySize
// is unset. Unbounded growth would slowly retain memory on long-running
// processes, so there is always a cap.
const defaultHistorySize = 200

// HistoryItem records the outcome of one run.
type HistoryItem struct {
	Name        string
	ScheduledAt time.Time
	Started     time.Time
	Duration    time.Duration
	Error       string // empty on success
}

// Snapshot is a point-in-time view of a schedule.
type Snapshot struct {
	Name     string
	Running  bool
	InFlight bool // a run is currently executing
	NextRun  time.Time
	History  []HistoryItem // oldest first, bounded by HistorySize
}

func (c *core) appendHistory(item HistoryItem) {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	c.history = append(c.history, item)
	if len(c.history) > c.histSize {
		c.history = c.history[len(c.history)-c.histSize:]
	}
}

func (c *core) snapshot() Snapshot {
	c.mu.Lock()
	snap := Snapshot{
		Name:    c.name,
		Running: c.active,
		NextRun: c.next,
	}
	c.mu.Unlock()

	snap.InFlight = c.run.get()

	c.hmu.Lock()
	snap.History = append([]HistoryItem(nil), c.history...)
	c.hmu.Unlock()

	return snap
}

// Package daemon wires the config manager, logging service, history store,
// and per-job schedules into the long-running metrond process.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	sd "github.com/coreos/go-systemd/v22/daemon"

	"metron/internal/config"
	"metron/internal/history"
	"metron/internal/runner"
	"metron/pkg/logx"
	"metron/pkg/schedule"
)

// stopStepMax bounds how long one schedule may delay shutdown or reload.
const stopStepMax = 3 * time.Second

type jobEntry struct {
	cfg   config.JobConfig
	sched *schedule.Schedule
}

type Daemon struct {
	cfgm  *config.Manager
	logs  *logx.Service
	log   logx.Logger
	store history.Store

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// histCfg is what the store was opened with; the store is shared by
	// every schedule, so changing it requires a restart.
	histCfg *config.HistoryConfig

	mu   sync.Mutex
	jobs map[string]*jobEntry
}

// New loads and validates the config, then builds the daemon's services.
// Nothing is running yet; call Start.
func New(cfgPath string) (*Daemon, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "daemon"))

	store, err := openHistory(cfg, log)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	return &Daemon{
		cfgm:    cfgm,
		logs:    logSvc,
		log:     log,
		store:   store,
		histCfg: cfg.History,
		jobs:    map[string]*jobEntry{},
	}, nil
}

func openHistory(cfg *config.Config, log logx.Logger) (history.Store, error) {
	if cfg.History == nil {
		return nil, nil
	}
	busy, err := config.ParseDurationField("history.busy_timeout", cfg.History.BusyTimeout)
	if err != nil {
		return nil, err
	}
	retention, err := config.ParseDurationField("history.retention", cfg.History.Retention)
	if err != nil {
		return nil, err
	}
	st, err := history.Open(history.Config{
		Driver:      cfg.History.Driver,
		Path:        cfg.History.Path,
		BusyTimeout: busy,
		Retention:   retention,
	}, log.With(logx.String("comp", "history")))
	if err != nil {
		return nil, err
	}
	if st != nil {
		log.Info("history enabled", logx.String("driver", cfg.History.Driver))
	}
	return st, nil
}

// Start brings up every enabled job, the config watcher, and the hot-reload
// loop, then notifies systemd readiness. It returns once everything is
// running; use Stop for shutdown.
func (d *Daemon) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	cfg := d.cfgm.Get()
	if err := d.applyJobs(runCtx, cfg); err != nil {
		cancel()
		return err
	}

	d.cfgm.SetLogger(d.log.With(logx.String("comp", "config")))
	d.cfgm.SetValidator(func(_ context.Context, c *config.Config) error {
		return c.Validate()
	})

	sub := d.cfgm.Subscribe(8)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.cfgm.Unsubscribe(sub)
		d.reloadLoop(runCtx, sub)
	}()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_ = d.cfgm.Watch(runCtx)
	}()

	// Best-effort; no-op outside a systemd unit with NotifyAccess.
	_, _ = sd.SdNotify(false, sd.SdNotifyReady)

	d.log.Info("daemon started", logx.Int("jobs", d.jobCount()))
	return nil
}

func (d *Daemon) jobCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.jobs)
}

// reloadLoop applies published config updates: logging live, jobs by
// stop-and-rebuild of whatever changed. History driver changes need a
// restart since the store is shared by every schedule.
func (d *Daemon) reloadLoop(ctx context.Context, sub chan *config.Config) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config in the channel.
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						cfg = newer
					}
				default:
					goto APPLY
				}
			}
		APPLY:
			if !equalHistory(cfg.History, d.histCfg) {
				d.log.Warn("history config changed; restart required for changes to take effect")
			}
			d.logs.Apply(logx.Config{
				Level:   cfg.Logging.Level,
				Console: cfg.Logging.Console,
				File: logx.FileConfig{
					Enabled: cfg.Logging.File.Enabled,
					Path:    cfg.Logging.File.Path,
				},
			})
			if err := d.applyJobs(ctx, cfg); err != nil {
				d.log.Warn("config reload failed; keeping previous jobs", logx.Any("err", err))
				continue
			}
			d.log.Info("config reloaded", logx.Int("jobs", d.jobCount()))
		}
	}
}

func equalHistory(a, b *config.HistoryConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// applyJobs reconciles running schedules with the job list: removed or
// changed jobs are stopped, new or changed ones built and started.
func (d *Daemon) applyJobs(ctx context.Context, cfg *config.Config) error {
	loc := cfg.Location()

	want := map[string]config.JobConfig{}
	for _, j := range cfg.Jobs {
		if j.Disabled {
			continue
		}
		want[j.Name] = j
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for name, e := range d.jobs {
		j, keep := want[name]
		if keep && j == e.cfg {
			delete(want, name) // unchanged; leave it running
			continue
		}
		stopCtx, cancel := context.WithTimeout(context.Background(), stopStepMax)
		if !e.sched.StopWait(stopCtx) {
			d.log.Warn("job still finishing; will exit in background", logx.String("job", name))
		}
		cancel()
		delete(d.jobs, name)
		if !keep {
			d.log.Info("job removed", logx.String("job", name))
		}
	}

	for name, j := range want {
		e, err := d.buildJob(ctx, j, loc)
		if err != nil {
			return fmt.Errorf("job %q: %w", name, err)
		}
		if e == nil {
			continue
		}
		d.jobs[name] = e
		if next, ok := e.sched.NextRun(); ok {
			d.log.Info("job scheduled",
				logx.String("job", name),
				logx.String("schedule", j.Schedule),
				logx.Time("next_run", next))
		}
	}
	return nil
}

// buildJob constructs and starts one schedule. A nil entry with nil error
// means the job's rule is already exhausted (e.g. a one-shot in the past).
func (d *Daemon) buildJob(ctx context.Context, j config.JobConfig, loc *time.Location) (*jobEntry, error) {
	rule, err := schedule.ParseRule(j.Schedule, loc)
	if err != nil {
		return nil, err
	}
	timeout, err := config.ParseDurationField("timeout", j.Timeout)
	if err != nil {
		return nil, err
	}

	jobLog := d.log.With(logx.String("job", j.Name))
	var rec schedule.Recorder
	if d.store != nil {
		rec = d.store
	}

	s, err := schedule.New(runner.CommandJob(j.Name, j.Command, jobLog), rule, schedule.Options{
		Name:     j.Name,
		Logger:   jobLog,
		Recorder: rec,
		Timeout:  timeout,
	})
	if err != nil {
		return nil, err
	}

	if err := s.Start(ctx); err != nil {
		if errors.Is(err, schedule.ErrExhausted) {
			d.log.Warn("job has no future run; skipping", logx.String("job", j.Name))
			return nil, nil
		}
		return nil, err
	}
	return &jobEntry{cfg: j, sched: s}, nil
}

// Stop winds everything down: watcher and reload loop first, then every
// schedule (bounded per schedule), then the history store and log sinks.
func (d *Daemon) Stop(ctx context.Context) error {
	_, _ = sd.SdNotify(false, sd.SdNotifyStopping)
	d.log.Info("stopping")

	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()

	d.mu.Lock()
	jobs := make([]*jobEntry, 0, len(d.jobs))
	for _, e := range d.jobs {
		jobs = append(jobs, e)
	}
	d.jobs = map[string]*jobEntry{}
	d.mu.Unlock()

	for _, e := range jobs {
		stopCtx := ctx
		var cancel context.CancelFunc
		if _, ok := ctx.Deadline(); !ok {
			stopCtx, cancel = context.WithTimeout(ctx, stopStepMax)
		}
		if !e.sched.StopWait(stopCtx) {
			d.log.Warn("job did not stop in time", logx.String("job", e.cfg.Name))
		}
		if cancel != nil {
			cancel()
		}
	}

	var firstErr error
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			firstErr = err
		}
	}
	d.log.Info("stopped")
	if err := d.logs.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// RecentRuns exposes the persisted run history (nil store yields nothing).
func (d *Daemon) RecentRuns(ctx context.Context, name string, limit int) ([]schedule.HistoryItem, error) {
	if d.store == nil {
		return nil, nil
	}
	return d.store.RecentRuns(ctx, name, limit)
}

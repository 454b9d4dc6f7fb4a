// Package schedule provides an in-process recurring-job scheduler.
//
// # Overview
//
// A Schedule owns exactly one job and one recurrence Rule. Starting the
// schedule spawns a dedicated background worker that sleeps until the next
// computed instant, runs the job, emits run-started/run-ended notifications,
// and asks the rule for the following instant. Distinct Schedule instances
// share nothing and run fully in parallel.
//
// # Rules
//
// Rules are built once and are immutable while the schedule runs:
//
//   - Once().After(10 * time.Minute)      one-shot, relative
//   - Once().At(t)                        one-shot, absolute
//   - Every(5 * time.Minute)              fixed interval
//   - Every(time.Hour).After(time.Minute) fixed interval, initial delay
//   - Daily().At("07:30", "19:00")        specific wall-clock times
//   - Weekly(time.Monday).At("09:00")     specific weekdays at a time
//   - Cron("*/5 * * * *")                 cron expression (robfig/cron)
//
// ParseRule accepts the equivalent string forms used in config files.
//
// # Lifecycle and stopping
//
// Stop is a non-blocking request; the worker observes it at its next wake-up
// or after the in-flight run completes. StopWait additionally blocks until
// the worker has fully exited, bounded by the caller's context. A run that
// is already executing is never interrupted: Stop does not cancel the job's
// context, and a StopWait whose context elapses first simply returns while
// the worker finishes in the background.
//
// # Notifications
//
// OnRunStarted/OnRunEnded callbacks run synchronously on the worker between
// runs, so they must not block significantly. A started notification always
// precedes its paired ended notification, and notifications for successive
// runs never interleave.
package schedule

// Package scheduler runs named recurring jobs on calendar rules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/internal/metrics"
	"github.com/huangsam/filepulse/schema"
	"github.com/robfig/cron/v3"
)

// JobFunc is the callback of a scheduled job. Returned errors are logged.
type JobFunc = contract.JobFunc

type job struct {
	entry cron.EntryID
	rule  *Rule
	info  schema.JobInfo
}

// Scheduler is a registry of named recurring jobs. All methods are safe
// for concurrent use.
type Scheduler struct {
	mu     sync.Mutex
	cron   *cron.Cron
	loc    *time.Location
	logger *slog.Logger
	jobs   map[string]*job
	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
}

var _ contract.JobScheduler = &Scheduler{} // Compile-time check

// Start creates a scheduler in loc and starts its timer loop. A job that
// is still running when its next fire comes up is skipped for that fire.
func Start(loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   c,
		loc:    loc,
		logger: logger,
		jobs:   make(map[string]*job),
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
	}
	c.Start()
	logger.Info("Scheduler started", "timezone", loc.String())
	return s
}

// Location returns the time zone rules are evaluated in.
func (s *Scheduler) Location() *time.Location {
	return s.loc
}

// ScheduleJob registers fn under id, replacing any job with the same id.
// The old job is removed before the new inputs are validated, so invalid
// input leaves no job under id. It returns false on invalid input; the
// reason is logged.
func (s *Scheduler) ScheduleJob(id string, fn JobFunc, startDate, hhmm string, freq schema.Frequency) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removeLocked(id) {
		s.logger.Info("Removed existing job", "job", id)
	}

	if _, ok := schema.ValidFrequencies[freq]; !ok {
		s.logger.Error("Invalid frequency", "job", id, "frequency", freq)
		return false
	}
	hour, minute, err := ParseClock(hhmm)
	if err != nil {
		s.logger.Error("Invalid schedule time", "job", id, "error", err)
		return false
	}
	start, err := ParseStartDate(startDate, s.loc)
	if err != nil {
		s.logger.Error("Invalid schedule date", "job", id, "error", err)
		return false
	}
	if fn == nil {
		s.logger.Error("Job callback is nil", "job", id)
		return false
	}

	rule, err := RuleFor(freq, hour, minute, s.loc)
	if err != nil {
		s.logger.Error("Failed to schedule job", "job", id, "error", err)
		return false
	}
	rule.NotBefore = start

	entry := s.cron.Schedule(rule, cron.FuncJob(func() { s.runJob(id, fn) }))
	s.jobs[id] = &job{
		entry: entry,
		rule:  rule,
		info: schema.JobInfo{
			ID:        id,
			Frequency: freq,
			Time:      fmt.Sprintf("%02d:%02d", hour, minute),
			StartDate: startDate,
		},
	}
	s.logger.Info("Job scheduled", "job", id, "frequency", freq, "time", s.jobs[id].info.Time,
		"next", rule.Next(s.now()))
	return true
}

// RemoveJob removes the job under id. It reports whether a job existed.
func (s *Scheduler) RemoveJob(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := s.removeLocked(id)
	if removed {
		s.logger.Info("Removed job", "job", id)
	} else {
		s.logger.Debug("Job not found", "job", id)
	}
	return removed
}

func (s *Scheduler) removeLocked(id string) bool {
	j, ok := s.jobs[id]
	if !ok {
		return false
	}
	s.cron.Remove(j.entry)
	delete(s.jobs, id)
	return true
}

// NextFireTime returns the next fire time of the job under id.
func (s *Scheduler) NextFireTime(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return time.Time{}, false
	}
	return s.nextLocked(j), true
}

func (s *Scheduler) nextLocked(j *job) time.Time {
	if next := s.cron.Entry(j.entry).Next; !next.IsZero() {
		return next.In(s.loc)
	}
	return j.rule.Next(s.now())
}

// Jobs lists the registered jobs ordered by id.
func (s *Scheduler) Jobs() []schema.JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		info := j.info
		info.NextFire = s.nextLocked(j)
		out = append(out, info)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

// Shutdown stops firing jobs. With wait set it blocks until running
// callbacks return; otherwise their context is canceled and they are left
// to finish on their own.
func (s *Scheduler) Shutdown(wait bool) {
	stopped := s.cron.Stop()
	if wait {
		<-stopped.Done()
	}
	s.cancel()
	s.logger.Info("Scheduler stopped", "waited", wait)
}

// runJob invokes fn, logging errors and panics. The job stays registered
// whatever the outcome.
func (s *Scheduler) runJob(id string, fn JobFunc) {
	start := time.Now()
	outcome := metrics.OutcomeSuccess
	defer func() {
		if r := recover(); r != nil {
			outcome = metrics.OutcomeFailure
			s.logger.Error("Scheduled job panicked", "job", id, "panic", r)
		}
		metrics.JobRunsTotal.WithLabelValues(id, outcome).Inc()
	}()

	s.logger.Info("Scheduled job fired", "job", id)
	if err := fn(s.ctx); err != nil {
		outcome = metrics.OutcomeFailure
		s.logger.Error("Scheduled job failed", "job", id, "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Info("Scheduled job finished", "job", id, "duration", time.Since(start))
}

// cronLogger forwards cron's logging to slog. Cron's info output is per
// tick, so it is demoted to debug.
type cronLogger struct {
	logger *slog.Logger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

var _ JobSchedulerInterface = (*Scheduler)(nil)

type scheduleKind int

const (
	scheduleInterval scheduleKind = iota
	scheduleDaily
)

type registeredJob struct {
	job      Job
	kind     scheduleKind
	interval time.Duration
	hour     int
	minute   int
	wake     chan struct{}
}

// Scheduler runs registered jobs as independent repeating loops. A
// job's own iterations never overlap; different jobs run concurrently
// and coordinate only through the article store's status field.
type Scheduler struct {
	jobs   []*registeredJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddIntervalJob registers a job that runs once immediately at startup
// and then at the given fixed interval.
func (s *Scheduler) AddIntervalJob(job Job, interval time.Duration) {
	s.jobs = append(s.jobs, &registeredJob{
		job:      job,
		kind:     scheduleInterval,
		interval: interval,
		wake:     make(chan struct{}, 1),
	})
}

// AddDailyJob registers a job that runs once a day at HH:MM local time.
func (s *Scheduler) AddDailyJob(job Job, at string) error {
	hour, minute, err := parseDailyTime(at)
	if err != nil {
		return err
	}

	s.jobs = append(s.jobs, &registeredJob{
		job:    job,
		kind:   scheduleDaily,
		hour:   hour,
		minute: minute,
		wake:   make(chan struct{}, 1),
	})

	return nil
}

func (s *Scheduler) Start() {
	for _, rj := range s.jobs {
		s.wg.Add(1)
		switch rj.kind {
		case scheduleDaily:
			go s.runDailyLoop(rj)
		default:
			go s.runIntervalLoop(rj)
		}
	}
}

// Stop cancels all job loops and waits for in-flight runs to finish,
// so a run is never aborted mid-write.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Trigger wakes the named job for an immediate run. Used by the admin
// API's on-demand fetch/summarize/dispatch endpoints.
func (s *Scheduler) Trigger(name string) error {
	for _, rj := range s.jobs {
		if rj.job.Name() != name {
			continue
		}
		select {
		case rj.wake <- struct{}{}:
		default:
			// A wake-up is already pending; one run covers both.
		}
		return nil
	}

	return fmt.Errorf("unknown job %q", name)
}

func (s *Scheduler) runIntervalLoop(rj *registeredJob) {
	defer s.wg.Done()

	ticker := time.NewTicker(rj.interval)
	defer ticker.Stop()

	s.executeJob(rj.job)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.executeJob(rj.job)
		case <-rj.wake:
			s.executeJob(rj.job)
		}
	}
}

func (s *Scheduler) runDailyLoop(rj *registeredJob) {
	defer s.wg.Done()

	for {
		wait := time.Until(nextDailyRun(time.Now(), rj.hour, rj.minute))
		timer := time.NewTimer(wait)

		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.executeJob(rj.job)
		case <-rj.wake:
			timer.Stop()
			s.executeJob(rj.job)
		}
	}
}

func (s *Scheduler) executeJob(job Job) {
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Job panicked", "job", job.Name(), "panic", r)
		}
	}()

	if err := job.Run(s.ctx); err != nil {
		slog.Error("Job run failed", "job", job.Name(), "duration", time.Since(started), "error", err)
		return
	}

	slog.Debug("Job run completed", "job", job.Name(), "duration", time.Since(started))
}

// nextDailyRun returns the next occurrence of hour:minute strictly
// after now, in now's location.
func nextDailyRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func parseDailyTime(at string) (int, int, error) {
	parts := strings.SplitN(at, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid daily time %q, expected HH:MM", at)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in daily time %q", at)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in daily time %q", at)
	}

	return hour, minute, nil
}

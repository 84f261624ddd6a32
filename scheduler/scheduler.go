package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is a scheduled job. The context is cancelled when the scheduler stops.
type Task func(ctx context.Context)

// Scheduler runs a periodic task on a cron schedule. Runs never overlap,
// including the one-off delayed run: a run that starts while another is still
// going is skipped.
type Scheduler struct {
	cron     *cron.Cron
	mu       sync.Mutex
	entryID  cron.EntryID
	spec     string
	location *time.Location
	delayed  *time.Timer
	running  atomic.Bool
	wg       sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Scheduler in the given timezone.
func New(timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", timezone, err)
	}

	logger := slogLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     c,
		location: loc,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Schedule registers task on spec, a standard five-field cron expression or
// a descriptor such as "@every 30m". A previous schedule is replaced.
func (s *Scheduler) Schedule(spec string, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Remove previous entry if it exists
	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}

	entryID, err := s.cron.AddFunc(spec, func() { s.run(task) })
	if err != nil {
		return fmt.Errorf("adding cron entry %q: %w", spec, err)
	}

	s.entryID = entryID
	s.spec = spec
	slog.Info("task scheduled", "spec", spec, "timezone", s.location.String())
	return nil
}

// RunAfter runs task once after delay, outside the cron schedule. It is used
// for the first sweep after start-up. A pending delayed run is replaced.
func (s *Scheduler) RunAfter(delay time.Duration, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.delayed != nil {
		s.delayed.Stop()
	}
	s.delayed = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.ctx.Err() != nil {
			s.mu.Unlock()
			return
		}
		s.wg.Add(1)
		s.mu.Unlock()

		defer s.wg.Done()
		s.run(task)
	})
}

// run executes task unless another run is in progress.
func (s *Scheduler) run(task Task) {
	if !s.running.CompareAndSwap(false, true) {
		slog.Info("skipping task, previous run still in progress")
		return
	}
	defer s.running.Store(false)
	task(s.ctx)
}

// Next returns the next scheduled run, or the zero time if nothing is scheduled.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return time.Time{}
	}
	entry := s.cron.Entry(s.entryID)
	if entry.Next.IsZero() && entry.Schedule != nil {
		// Not started yet
		return entry.Schedule.Next(time.Now().In(s.location))
	}
	return entry.Next
}

// Start begins the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler, cancels running tasks and waits for them to
// return, including a delayed run already in progress.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.delayed != nil {
		s.delayed.Stop()
	}
	s.cancel()
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.wg.Wait()
}

// slogLogger routes cron's internal logging through slog.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ris-scraper/logger"
	"ris-scraper/models"

	"github.com/robfig/cron/v3"
)

// Runner performs one harvest
type Runner interface {
	Run(ctx context.Context) (models.RunSummary, error)
}

// Scheduler runs harvests on a cron schedule, one at a time
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	runner   Runner
	log      logger.Logger
	ctx      context.Context
	cancel   context.CancelFunc

	mu   sync.Mutex
	runs int
}

// NewScheduler creates a scheduler for a cron schedule, evaluated in loc.
// A run that is still going when the next one is due makes that one skip.
func NewScheduler(schedule string, loc *time.Location, runner Runner, log logger.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:     c,
		schedule: schedule,
		runner:   runner,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}

	if _, err := c.AddFunc(schedule, s.runOnce); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start starts the scheduler in a goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started", logger.String("schedule", s.schedule), logger.Time("next_run", s.Next()))
}

// Stop cancels a running harvest and waits for it to return
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

// Next returns the time of the next scheduled run
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(time.Now())
}

// Runs returns how many harvests have been started
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// runOnce is the cron job
func (s *Scheduler) runOnce() {
	if s.ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	s.runs++
	run := s.runs
	s.mu.Unlock()

	s.log.Info("Starting scheduled harvest", logger.Int("run", run))
	summary, err := s.runner.Run(s.ctx)
	if err != nil {
		s.log.Error("Scheduled harvest failed", logger.Int("run", run), logger.Error(err))
		return
	}
	s.log.Info("Scheduled harvest done",
		logger.Int("run", run),
		logger.String("run_id", summary.RunID),
		logger.Int("sessions", summary.Sessions),
	)
}

// cronLogger adapts the logger to cron's logging interface
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) fields(keysAndValues []any) []logger.Field {
	fields := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1]))
	}
	return fields
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, l.fields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(l.fields(keysAndValues), logger.Error(err))...)
}

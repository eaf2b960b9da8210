package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs a job on a cron schedule, one run at a time.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// New creates a Scheduler. Schedules use the standard five-field syntax
// plus descriptors such as "@every 5m".
// A panicking job is recovered and logged at error level.
func New(logger *zap.Logger) *Scheduler {
	logger = logger.Named("scheduler")
	cronLog := cronLogger{log: logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(
				cron.Recover(cronLog),
				cron.SkipIfStillRunning(cronLog),
			),
		),
		logger: logger,
	}
}

// cronLogger routes cron's own logging into zap. cron reports every wake-up
// through Info, so that goes to debug.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

// Add registers job under spec. job receives ctx.
func (s *Scheduler) Add(ctx context.Context, spec string, job func(context.Context)) error {
	if _, err := s.cron.AddFunc(spec, func() { job(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits
// for a running job to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

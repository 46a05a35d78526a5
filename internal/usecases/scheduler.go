package usecases

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs fn every d until the returned stop func is called
type Scheduler interface {
	Every(d time.Duration, fn func()) (func(), error)
}

// CronScheduler schedules jobs on a robfig/cron runner per registration
type CronScheduler struct {
	logger *zap.Logger
}

// NewCronScheduler creates a cron-backed scheduler
func NewCronScheduler(logger *zap.Logger) *CronScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronScheduler{logger: logger}
}

// Every registers fn on a constant-delay schedule. Intervals are rounded
// down to the second with a one second minimum.
func (s *CronScheduler) Every(d time.Duration, fn func()) (func(), error) {
	if d < time.Second {
		return nil, fmt.Errorf("failed to schedule job: interval %s is below one second", d)
	}

	c := cron.New(cron.WithLogger(cronLogger{s.logger}))
	c.Schedule(cron.Every(d), cron.FuncJob(fn))
	c.Start()
	s.logger.Info("Refresh scheduled", zap.Duration("interval", d))

	// Running jobs are not awaited; the poller guards against late dispatches
	return func() { c.Stop() }, nil
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}

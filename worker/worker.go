package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// Worker is a long-lived loop that runs until ctx is cancelled.
type Worker interface {
	Run(ctx context.Context) error
}

// IJob cron job interface
type IJob interface {
	Start() error
	Run()
	Stop() error
}

type OnWork func() error

// BaseJob wraps a cron schedule around OnWork, skipping ticks that overlap a
// still-running pass.
type BaseJob struct {
	Cron      *cron.Cron
	IsRunning bool
	OnWork    OnWork
}

func (job *BaseJob) Start() error {
	job.Cron.Start()
	return nil
}

func (job *BaseJob) Stop() error {
	job.Cron.Stop()
	return nil
}

func (job *BaseJob) Run() {
	if job.IsRunning {
		return
	}

	job.IsRunning = true
	_ = job.OnWork()
	job.IsRunning = false
}

const (
	defaultTickDelay = 100 * time.Millisecond
	defaultErrDelay  = 500 * time.Millisecond
)

// TickWorker drives onWork in a tight loop, backing off after errors. An
// onWork error is not fatal; only ctx cancellation stops the loop.
type TickWorker struct {
	Delay    time.Duration
	ErrDelay time.Duration
}

func (w *TickWorker) StartTick(ctx context.Context, onWork func(ctx context.Context) error) error {
	dur := time.Millisecond
	timer := time.NewTimer(dur)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if err := onWork(ctx); err == nil {
				dur = w.delay()
			} else {
				dur = w.errDelay()
			}
			timer.Reset(dur)
		}
	}
}

func (w *TickWorker) delay() time.Duration {
	if w.Delay > 0 {
		return w.Delay
	}
	return defaultTickDelay
}

func (w *TickWorker) errDelay() time.Duration {
	if w.ErrDelay > 0 {
		return w.ErrDelay
	}
	return defaultErrDelay
}

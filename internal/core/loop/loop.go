// Package loop drives a tree from a single goroutine.
package loop

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/zeusync/nodetree/internal/core/observability/log"
	"github.com/zeusync/nodetree/internal/core/tree"
)

var (
	ErrStarted = errors.New("loop: already started")
	ErrStopped = errors.New("loop: stopped")
)

// Config holds loop settings.
type Config struct {
	// FrameRate is the variable-rate pass frequency in Hz.
	FrameRate float64
	// JobQueue is the capacity of the pending job queue.
	JobQueue int
}

func DefaultConfig() Config {
	return Config{
		FrameRate: 60,
		JobQueue:  64,
	}
}

// Stats counts work done by a loop.
type Stats struct {
	Frames      uint64
	FixedSteps  uint64
	Jobs        uint64
	FailedTicks uint64
}

type job struct {
	fn     func(*tree.Tree) error
	result chan error
}

// Loop owns the tree while it runs: the variable-rate pass, the fixed-rate
// pass and queued jobs all execute on the Run goroutine.
type Loop struct {
	tree   *tree.Tree
	config Config
	logger log.Log

	jobs    chan job
	started atomic.Bool
	stopped chan struct{}

	frames      atomic.Uint64
	fixedSteps  atomic.Uint64
	jobsDone    atomic.Uint64
	failedTicks atomic.Uint64
}

func New(t *tree.Tree, config Config, logger log.Log) *Loop {
	if config.FrameRate <= 0 {
		config.FrameRate = DefaultConfig().FrameRate
	}
	if config.JobQueue <= 0 {
		config.JobQueue = DefaultConfig().JobQueue
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Loop{
		tree:    t,
		config:  config,
		logger:  logger.With(log.String("component", "loop")),
		jobs:    make(chan job, config.JobQueue),
		stopped: make(chan struct{}),
	}
}

// Run blocks until ctx is done. A loop runs at most once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrStarted
	}
	defer close(l.stopped)

	frameEvery := time.Duration(float64(time.Second) / l.config.FrameRate)
	frames := time.NewTicker(frameEvery)
	defer frames.Stop()
	fixed := time.NewTicker(l.tree.FixedStepDuration())
	defer fixed.Stop()

	l.logger.Info("loop started",
		log.Duration("frame", frameEvery),
		log.Duration("fixed", l.tree.FixedStepDuration()),
	)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			l.drain()
			l.logger.Info("loop stopped", log.Uint64("frames", l.frames.Load()))
			return nil

		case now := <-frames.C:
			delta := now.Sub(last).Seconds()
			last = now
			stats := l.tree.Update(delta)
			l.frames.Add(1)
			l.failedTicks.Add(uint64(stats.Failed))

		case <-fixed.C:
			stats := l.tree.FixedUpdate()
			l.fixedSteps.Add(1)
			l.failedTicks.Add(uint64(stats.Failed))

		case j := <-l.jobs:
			j.result <- l.run(j.fn)
			l.jobsDone.Add(1)
		}
	}
}

// Do runs fn on the loop goroutine and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func(*tree.Tree) error) error {
	select {
	case <-l.stopped:
		return ErrStopped
	default:
	}

	j := job{fn: fn, result: make(chan error, 1)}
	select {
	case l.jobs <- j:
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.result:
		return err
	case <-l.stopped:
		select {
		case err := <-j.result:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) Stats() Stats {
	return Stats{
		Frames:      l.frames.Load(),
		FixedSteps:  l.fixedSteps.Load(),
		Jobs:        l.jobsDone.Load(),
		FailedTicks: l.failedTicks.Load(),
	}
}

func (l *Loop) run(fn func(*tree.Tree) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("job panicked", log.Any("panic", r))
			err = errors.New("loop: job panicked")
		}
	}()
	return fn(l.tree)
}

// drain fails jobs queued before shutdown.
func (l *Loop) drain() {
	for {
		select {
		case j := <-l.jobs:
			j.result <- ErrStopped
		default:
			return
		}
	}
}

// Package worker runs the fixed-size pool that executes the window
// consensus engine in parallel. Workers share nothing mutable; the results
// channel is the only synchronization point, and each worker posts exactly
// one sentinel when the task source is exhausted so the collector knows
// when to stop.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/genomelab/polisher/pkg/engine"
	"github.com/genomelab/polisher/pkg/windows"
)

// Processor computes the consensus summary for one window.
// Implementations must be safe for concurrent use.
type Processor interface {
	ProcessWindow(ctx context.Context, win windows.Window) (engine.Summary, error)
}

// Result is the wire type on the results channel. Exactly one of the
// following holds: Sentinel is set (worker finished), Err is set (the
// window failed), or Summary carries a computed window. Duration is the
// wall time spent computing the window.
type Result struct {
	Summary  engine.Summary
	Win      windows.Window
	Err      error
	Duration time.Duration
	Sentinel bool
}

var (
	ErrInvalidLogger     = errors.New("invalid logger: must not be nil")
	ErrInvalidProcessor  = errors.New("invalid processor: must not be nil")
	ErrInvalidNumWorkers = errors.New("invalid number of workers: must be greater than 0")
)

// Pool is a fixed set of workers pulling window tasks and pushing results.
type Pool struct {
	log        *zap.SugaredLogger
	proc       Processor
	numWorkers int
}

// NewPool validates the arguments and builds a Pool.
func NewPool(log *zap.SugaredLogger, proc Processor, numWorkers int) (*Pool, error) {
	if log == nil {
		return nil, ErrInvalidLogger
	}
	if proc == nil {
		return nil, ErrInvalidProcessor
	}
	if numWorkers <= 0 {
		return nil, ErrInvalidNumWorkers
	}
	return &Pool{log: log, proc: proc, numWorkers: numWorkers}, nil
}

// NumWorkers returns the pool size; the collector must expect this many
// sentinels.
func (p *Pool) NumWorkers() int { return p.numWorkers }

// Run starts the workers and blocks until all of them have drained the
// task channel and posted their sentinel, or ctx is cancelled. tasks must
// be closed by the producer; results is not closed by the pool.
func (p *Pool) Run(ctx context.Context, tasks <-chan windows.Window, results chan<- Result) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.numWorkers; i++ {
		id := i
		g.Go(func() error {
			return p.worker(ctx, id, tasks, results)
		})
	}
	return g.Wait()
}

func (p *Pool) worker(ctx context.Context, id int, tasks <-chan windows.Window, results chan<- Result) error {
	// The sentinel is posted on every exit path, including panics and
	// cancellation, so the collector can never be starved of termination
	// markers by a failing worker.
	defer func() {
		select {
		case results <- Result{Sentinel: true}:
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case win, ok := <-tasks:
			if !ok {
				p.log.Debugw("worker finished", "worker", id)
				return nil
			}
			start := time.Now()
			summary, err := p.safeProcess(ctx, win)
			res := Result{Win: win, Err: err, Duration: time.Since(start)}
			if err == nil {
				res.Summary = summary
			} else {
				p.log.Warnw("failed processing window", "worker", id, "window", win.String(), "error", err)
			}
			select {
			case results <- res:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// safeProcess shields the pool from a panicking window computation.
func (p *Pool) safeProcess(ctx context.Context, win windows.Window) (summary engine.Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing window %s: %v", win, r)
		}
	}()
	return p.proc.ProcessWindow(ctx, win)
}

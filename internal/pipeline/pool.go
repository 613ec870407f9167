package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/backmassage/dsconvert/internal/logging"
)

// WorkFunc processes one job.
type WorkFunc func(ctx context.Context, job Job) Result

// Pool runs jobs with at most Workers in flight.
type Pool struct {
	Workers int
	// Timeout bounds each job when positive.
	Timeout time.Duration
	Log     *logging.Logger
}

// Run dispatches every job at once; each waits for a slot, then calls work.
// Results are folded into the returned RunStats in completion order. A
// failing or panicking job never stops the others. When ctx is cancelled,
// jobs still waiting for a slot fail with the context error without running.
func (p Pool) Run(ctx context.Context, jobs []Job, work WorkFunc) RunStats {
	stats := RunStats{Total: len(jobs)}
	if len(jobs) == 0 {
		return stats
	}
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	log := p.Log
	if log == nil {
		log = logging.Discard()
	}

	sem := semaphore.NewWeighted(int64(workers))
	results := make(chan Result, len(jobs))

	// Plain Group: one failure must not cancel its siblings.
	var g errgroup.Group
	for _, job := range jobs {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				results <- notStarted(job, err)
				return nil
			}
			defer sem.Release(1)
			if err := ctx.Err(); err != nil {
				results <- notStarted(job, err)
				return nil
			}
			results <- p.runOne(ctx, job, work, log)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	start := time.Now()
	done := 0
	for res := range results {
		done++
		stats.Record(res)
		log.Debug("[%d/%d] %s %s", done, stats.Total, res.State, res.Job.Rel)
	}
	stats.Elapsed = time.Since(start)

	if stats.NotStarted > 0 {
		log.Warn("Interrupted: %d jobs were not started", stats.NotStarted)
	}
	return stats
}

func (p Pool) runOne(ctx context.Context, job Job, work WorkFunc, log *logging.Logger) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Conversion failed: %s, error: panic: %v", job.Src, r)
			log.Debug("%s", debug.Stack())
			res = Result{Job: job, State: Failed, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	res = work(ctx, job)
	res.Job = job
	switch res.State {
	case Completed, Skipped, Failed:
	default:
		if res.Err == nil {
			res.Err = fmt.Errorf("job ended in state %s", res.State)
		}
		res.State = Failed
	}
	return res
}

// ErrNotStarted marks jobs that were cancelled while waiting for a slot.
var ErrNotStarted = errors.New("job not started")

func notStarted(job Job, cause error) Result {
	return Result{Job: job, State: Failed, Err: fmt.Errorf("%w: %w", ErrNotStarted, cause)}
}

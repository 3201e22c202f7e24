package batch

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/chipper/logging"
)

// Progress is reported after every finished task
type Progress struct {
	Completed int
	Total     int
	File      string
	Err       error
}

// Result is the outcome of one task, at the index of its input file
type Result[T any] struct {
	File     string
	Value    T
	Err      error
	Duration time.Duration
}

// Task processes a single file
type Task[T any] func(ctx context.Context, file string) (T, error)

// Runner executes independent per-file tasks on a bounded pool
type Runner struct {
	workers    int
	logger     logging.Logger
	onProgress func(Progress)
}

// NewRunner creates a runner; workers <= 0 uses one worker per CPU
func NewRunner(workers int, logger logging.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{
		workers: workers,
		logger:  logging.OrGlobal(logger).WithFields(logging.Fields{"component": "batch"}),
	}
}

// OnProgress registers fn to be called after each task. Calls are serialized.
func (r *Runner) OnProgress(fn func(Progress)) {
	r.onProgress = fn
}

// Workers returns the pool size
func (r *Runner) Workers() int {
	return r.workers
}

// Run applies task to every file. A failing task is recorded in its Result
// and never stops the others. Once ctx is cancelled, tasks that have not
// started are marked with the context error and Run returns that error.
func Run[T any](ctx context.Context, r *Runner, files []string, task Task[T]) ([]Result[T], error) {
	results := make([]Result[T], len(files))

	var (
		mu        sync.Mutex
		completed int
	)
	report := func(i int) {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if r.onProgress != nil {
			r.onProgress(Progress{
				Completed: completed,
				Total:     len(files),
				File:      files[i],
				Err:       results[i].Err,
			})
		}
	}

	r.logger.Info("Starting batch", logging.Fields{
		"files":   len(files),
		"workers": r.workers,
	})

	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, file := range files {
		g.Go(func() error {
			results[i].File = file

			if err := ctx.Err(); err != nil {
				results[i].Err = err
				report(i)
				return nil
			}

			start := time.Now()
			value, err := task(ctx, file)
			results[i].Value = value
			results[i].Err = err
			results[i].Duration = time.Since(start)

			if err != nil {
				r.logger.Error(err, "Task failed", logging.Fields{"file": file})
			} else {
				r.logger.Info("Task completed", logging.Fields{
					"file":        file,
					"duration_ms": results[i].Duration.Milliseconds(),
				})
			}
			report(i)
			return nil
		})
	}
	g.Wait()

	return results, ctx.Err()
}

// Failed returns the results whose task errored
func Failed[T any](results []Result[T]) []Result[T] {
	var out []Result[T]
	for _, res := range results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

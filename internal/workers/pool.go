// Package workers provides bounded-parallel execution of independent
// jobs. Analysis calls are pure functions over their inputs, so jobs
// share nothing and need no locking.
package workers

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Job is one unit of work. The returned value lands at the job's index
// in the result slice.
type Job func(ctx context.Context) (interface{}, error)

// Result pairs a job's output with its input position
type Result struct {
	Index int
	Value interface{}
	Err   error
}

// Pool runs jobs with a fixed concurrency bound
type Pool struct {
	concurrency int
	log         zerolog.Logger
}

// NewPool creates a pool. Concurrency below 1 is clamped to 1.
func NewPool(concurrency int, log zerolog.Logger) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{
		concurrency: concurrency,
		log:         log.With().Str("component", "worker_pool").Logger(),
	}
}

// Map runs all jobs and returns their results in input order. A job
// error is recorded in its slot, it does not cancel the others. Context
// cancellation stops unstarted jobs, which report ctx.Err().
func (p *Pool) Map(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	sem := make(chan struct{}, p.concurrency)

	var wg sync.WaitGroup
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			results[i] = Result{Index: i, Err: err}
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, job Job) {
			defer wg.Done()
			defer func() { <-sem }()

			value, err := job(ctx)
			results[i] = Result{Index: i, Value: value, Err: err}
		}(i, job)
	}
	wg.Wait()

	return results
}

package mirror

import (
	"context"
	"fmt"
	"sync"

	"github.com/mirrorkit/mirrorkit/internal/remote"
)

// TaskFunc executes one task on a worker-owned session.
type TaskFunc func(ctx context.Context, ep remote.Endpoint, task *Task) *Outcome

// Pool runs tasks across a fixed number of workers. Each worker lazily dials
// one session on its first task and owns it exclusively until the pool
// drains, which caps endpoint connection load at the worker count.
type Pool struct {
	workers int
	dialer  remote.Dialer
}

func NewPool(workers int, dialer remote.Dialer) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers, dialer: dialer}
}

// Run dispatches every task and streams outcomes as workers finish them.
// Exactly one outcome is produced per task; the channel closes once all
// workers have drained. A failed task never aborts the pool or other
// in-flight tasks.
func (p *Pool) Run(ctx context.Context, tasks []*Task, fn TaskFunc) <-chan *Outcome {
	jobs := make(chan *Task, len(tasks))
	results := make(chan *Outcome, len(tasks))

	var wg sync.WaitGroup
	wg.Add(p.workers)

	for range p.workers {
		go func() {
			defer wg.Done()

			// The session is dialed on first use and never handed to
			// another worker.
			var ep remote.Endpoint
			defer func() {
				if ep != nil {
					_ = ep.Close()
				}
			}()

			for task := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}

				if ep == nil {
					conn, err := p.dialer.Dial(ctx)
					if err != nil {
						results <- failedOutcome(task, 0, fmt.Errorf("dial worker session: %w", err))
						continue
					}
					ep = conn
				}

				results <- fn(ctx, ep, task)
			}
		}()
	}

	// Feed the work queue in a separate goroutine.
	go func() {
		defer close(jobs)
		for _, task := range tasks {
			select {
			case <-ctx.Done():
				return
			case jobs <- task:
			}
		}
	}()

	// Close results once all workers are done.
	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func failedOutcome(task *Task, n int64, err error) *Outcome {
	return &Outcome{Path: task.Path, Status: StatusFailed, Bytes: n, Err: err}
}

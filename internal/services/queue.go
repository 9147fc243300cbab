package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlistify/internal/shared"
	"golang.org/x/time/rate"
)

// RequestQueue runs tasks one at a time in FIFO order, spacing the start of consecutive tasks by at least the
// configured minimum delay.
//
// A queue is owned by whoever constructs it. The engine creates one per operation so concurrent requests never
// serialize behind each other.
type RequestQueue struct {
	limiter *rate.Limiter
	logger  *log.Logger

	mu      sync.Mutex
	pending []queuedTask
	running bool
}

type queuedTask struct {
	ctx context.Context
	run func(ctx context.Context)
}

// NewRequestQueue creates a queue that dispatches at most one task per minDelay.
func NewRequestQueue(minDelay time.Duration, logger *log.Logger) *RequestQueue {
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &RequestQueue{limiter: rate.NewLimiter(limit, 1), logger: logger}
}

// Len reports how many tasks are waiting to start.
func (q *RequestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *RequestQueue) push(t queuedTask) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append(q.pending, t)
	if !q.running {
		q.running = true
		go q.drain()
	}
}

// drain processes tasks until the queue is empty, then marks the queue idle.
func (q *RequestQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		next := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		if err := q.limiter.Wait(next.ctx); err != nil {
			q.logger.Debug("skipping queued task", "error", err)
			continue
		}
		next.run(next.ctx)
	}
}

type queueResult[T any] struct {
	value T
	err   error
}

// Enqueue schedules task on q and blocks until it has run or ctx is done.
//
// A failing or panicking task only affects its own caller; the queue keeps draining.
func Enqueue[T any](ctx context.Context, q *RequestQueue, task func(context.Context) (T, error)) (T, error) {
	done := make(chan queueResult[T], 1)

	q.push(queuedTask{
		ctx: ctx,
		run: func(ctx context.Context) {
			var res queueResult[T]
			defer func() {
				if p := recover(); p != nil {
					res.err = fmt.Errorf("queued task panicked: %v", p)
				}
				done <- res
			}()
			res.value, res.err = task(ctx)
		},
	})

	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

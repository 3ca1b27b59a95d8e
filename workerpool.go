package rtmp

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// WorkerPool is the shared pool the dispatch pipeline submits
// non-control packets to. Submit never blocks the caller: when every permit
// is held it returns ErrTaskRejected immediately rather than queueing, so a
// saturated pool sheds load instead of stalling the transport reader.
type WorkerPool interface {
	// Submit runs task on a pooled goroutine bounded by timeout. onComplete
	// fires exactly once, whether the task finished, panicked, or timed
	// out; a timed-out task keeps running to completion on its own
	// goroutine but its result is discarded once the deadline passes.
	Submit(task func(ctx context.Context) error, timeout time.Duration, onComplete func(err error)) error
	// Close waits for in-flight tasks to drain. It does not stop later Submit
	// calls from being accepted.
	Close()
}

// FixedWorkerPool bounds concurrency with a weighted semaphore sized to the
// number of concurrent workers.
type FixedWorkerPool struct {
	sem   *semaphore.Weighted
	group *errgroup.Group
	ctx   context.Context
}

// NewFixedWorkerPool creates a pool that runs at most concurrency tasks at
// once.
func NewFixedWorkerPool(ctx context.Context, concurrency int64) *FixedWorkerPool {
	group, gctx := errgroup.WithContext(ctx)
	return &FixedWorkerPool{
		sem:   semaphore.NewWeighted(concurrency),
		group: group,
		ctx:   gctx,
	}
}

func (p *FixedWorkerPool) Submit(task func(ctx context.Context) error, timeout time.Duration, onComplete func(err error)) error {
	if !p.sem.TryAcquire(1) {
		return ErrTaskRejected
	}

	p.group.Go(func() error {
		defer p.sem.Release(1)

		ctx, cancel := context.WithTimeout(p.ctx, timeout)
		defer cancel()

		result := make(chan error, 1)
		go func() {
			result <- runGuarded(task, ctx)
		}()

		select {
		case err := <-result:
			onComplete(err)
		case <-ctx.Done():
			// Deadline reached: abandon the task on the caller's behalf.
			// Its goroutine keeps running and reports into a channel
			// nobody reads anymore; its effect is absorbed once the
			// connection's own maps are cleared on close.
			onComplete(ctx.Err())
		}
		// errgroup treats a non-nil return as fatal to the whole group;
		// task failures are reported through onComplete instead.
		return nil
	})

	return nil
}

func (p *FixedWorkerPool) Close() {
	_ = p.group.Wait()
}

func runGuarded(task func(ctx context.Context) error, ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rtmp: task panicked: %v", r)
		}
	}()
	return task(ctx)
}

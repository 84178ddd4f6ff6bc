package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-drift/drawn/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// Job regenerates a cache entry off the UI thread.
type Job func() error

// Regenerator runs background cache regeneration for a single node.
//
// Submitted jobs go through a one-slot queue: a job that has not started yet
// is replaced by a newer one. A dedicated worker, started on the first
// Submit, drains the queue while holding a weight-1 semaphore, so at most one
// job per node runs at a time. Running jobs are never interrupted.
type Regenerator struct {
	name string
	slot chan Job
	wake chan struct{}
	done chan struct{}
	exit chan struct{}
	sem  *semaphore.Weighted

	started atomic.Bool
	closed  atomic.Bool

	mu      sync.Mutex
	pending int
	idle    chan struct{}

	runs       atomic.Int64
	superseded atomic.Int64
}

// NewRegenerator returns an idle regenerator. name labels log records.
func NewRegenerator(name string) *Regenerator {
	idle := make(chan struct{})
	close(idle)
	return &Regenerator{
		name: name,
		slot: make(chan Job, 1),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		exit: make(chan struct{}),
		sem:  semaphore.NewWeighted(1),
		idle: idle,
	}
}

// Submit queues job, replacing any job that has not started. It never
// blocks. Returns true when a queued job was superseded.
func (r *Regenerator) Submit(job Job) (superseded bool) {
	r.mu.Lock()
	if r.closed.Load() {
		r.mu.Unlock()
		return false
	}
	select {
	case <-r.slot:
		superseded = true
		r.superseded.Add(1)
	default:
		if r.pending == 0 {
			r.idle = make(chan struct{})
		}
		r.pending++
	}
	r.slot <- job
	r.mu.Unlock()

	if superseded {
		errors.Logger().Debug("regeneration superseded", "node", r.name)
	}

	select {
	case r.wake <- struct{}{}:
	default:
	}
	if r.started.CompareAndSwap(false, true) {
		go r.loop()
	}
	return superseded
}

// Pause blocks new jobs from starting until the returned function is
// called. Submissions made while paused still supersede each other.
func (r *Regenerator) Pause(ctx context.Context) (resume func(), err error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() { once.Do(func() { r.sem.Release(1) }) }, nil
}

func (r *Regenerator) loop() {
	defer close(r.exit)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-r.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-r.wake:
		case <-r.done:
			return
		}
		if err := r.sem.Acquire(ctx, 1); err != nil {
			return
		}
		var job Job
		select {
		case job = <-r.slot:
		default:
		}
		if job != nil {
			r.run(job)
		}
		r.sem.Release(1)
	}
}

func (r *Regenerator) run(job Job) {
	defer r.finish()
	defer func() {
		if rec := recover(); rec != nil {
			errors.ReportPanic(&errors.PanicError{
				Op:         "cache.Regenerate",
				Value:      rec,
				StackTrace: errors.CaptureStack(),
				Timestamp:  time.Now(),
			})
		}
	}()
	r.runs.Add(1)
	if err := job(); err != nil {
		errors.Report(&errors.SceneError{
			Op:   "cache.Regenerate",
			Kind: errors.KindCache,
			Node: r.name,
			Err:  err,
		})
	}
}

func (r *Regenerator) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == 0 {
		return
	}
	r.pending--
	if r.pending == 0 {
		close(r.idle)
	}
}

// Wait blocks until every submitted job has run or been superseded.
func (r *Regenerator) Wait(ctx context.Context) error {
	r.mu.Lock()
	idle := r.idle
	r.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cache: waiting for %s: %w", r.name, ctx.Err())
	}
}

// Runs returns how many jobs have started.
func (r *Regenerator) Runs() int64 {
	return r.runs.Load()
}

// Superseded returns how many queued jobs were replaced before starting.
func (r *Regenerator) Superseded() int64 {
	return r.superseded.Load()
}

// Close drops a queued job and tells the worker to stop once any running
// job finishes. It does not wait for that job; Done reports when the worker
// has exited. Safe to call more than once.
func (r *Regenerator) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}
	close(r.done)
	if r.started.CompareAndSwap(false, true) {
		close(r.exit)
	}
	r.mu.Lock()
	select {
	case <-r.slot:
	default:
	}
	if r.pending > 0 {
		r.pending = 0
		close(r.idle)
	}
	r.mu.Unlock()
}

// Done returns a channel closed once Close has run and the worker, if one
// was started, has exited.
func (r *Regenerator) Done() <-chan struct{} {
	return r.exit
}

package cache

import (
	"sync"
	"time"

	"github.com/go-drift/drawn/pkg/errors"
)

// DefaultGrace is how long a released entry stays alive before disposal.
const DefaultGrace = 3 * time.Second

// Disposable is a resource released by the Disposer.
type Disposable interface {
	Dispose()
}

type scheduled struct {
	item Disposable
	due  time.Time
}

// Disposer delays the release of raster resources so a background job or
// an in-flight draw that still references a surface never sees it freed.
//
// Items are released by Drain once their grace period has elapsed. The scene
// calls Drain after every frame and Flush at shutdown.
type Disposer struct {
	mu    sync.Mutex
	grace time.Duration
	now   func() time.Time
	queue []scheduled
}

// NewDisposer returns a disposer with the given grace period. A nil now
// uses time.Now.
func NewDisposer(grace time.Duration, now func() time.Time) *Disposer {
	if now == nil {
		now = time.Now
	}
	if grace < 0 {
		grace = 0
	}
	return &Disposer{grace: grace, now: now}
}

// Grace returns the configured grace period.
func (d *Disposer) Grace() time.Duration {
	return d.grace
}

// Schedule queues item for disposal after the grace period.
func (d *Disposer) Schedule(item Disposable) {
	if item == nil {
		return
	}
	d.mu.Lock()
	d.queue = append(d.queue, scheduled{item: item, due: d.now().Add(d.grace)})
	d.mu.Unlock()
}

// Pending returns the number of items waiting for disposal.
func (d *Disposer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Drain disposes every item whose grace period has elapsed and returns how
// many were released.
func (d *Disposer) Drain() int {
	now := d.now()
	d.mu.Lock()
	var ready []Disposable
	kept := d.queue[:0]
	for _, s := range d.queue {
		if !now.Before(s.due) {
			ready = append(ready, s.item)
			continue
		}
		kept = append(kept, s)
	}
	clear(d.queue[len(kept):])
	d.queue = kept
	d.mu.Unlock()

	for _, item := range ready {
		d.dispose(item)
	}
	return len(ready)
}

// Flush disposes every queued item regardless of its grace period.
func (d *Disposer) Flush() int {
	d.mu.Lock()
	queue := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, s := range queue {
		d.dispose(s.item)
	}
	if len(queue) > 0 {
		errors.Logger().Debug("disposer flushed", "count", len(queue))
	}
	return len(queue)
}

func (d *Disposer) dispose(item Disposable) {
	defer errors.Recover("cache.Dispose")
	item.Dispose()
}

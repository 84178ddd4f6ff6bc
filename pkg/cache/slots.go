package cache

import (
	"fmt"
	"sync"

	"github.com/go-drift/drawn/pkg/errors"
	"github.com/go-drift/drawn/pkg/graphics"
	"github.com/gogpu/gpucontext"
)

// Slots holds a node's cache entries and serializes promotion against
// readers.
//
// The UI thread reads the front entry between Acquire and Release. A
// background job promotes its result with Promote, which waits until no
// reader holds the front before swapping it. For buffered kinds the demoted
// front becomes the previous entry; for every other kind it goes straight
// to the disposer.
type Slots struct {
	mu      sync.Mutex
	cond    *sync.Cond
	readers int

	kind      Kind
	front     *Entry
	previous  *Entry
	preparing *Entry
	reusable  *Entry

	refresh bool
	full    bool
	dirty   []graphics.Rect

	disposer *Disposer
	closed   bool
}

// NewSlots returns empty slots that hand released entries to disposer.
// A nil disposer disposes entries immediately.
func NewSlots(disposer *Disposer) *Slots {
	s := &Slots{disposer: disposer}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Kind returns the active cache kind.
func (s *Slots) Kind() Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind
}

// SetKind switches the active kind. Every entry produced for the old kind
// is released.
func (s *Slots) SetKind(kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kind == kind {
		return
	}
	s.waitReaders()
	s.kind = kind
	s.releaseAllLocked()
}

// Acquire registers a reader and returns the front entry (may be nil).
// Every Acquire must be paired with Release.
func (s *Slots) Acquire() *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readers++
	return s.front
}

// Release ends a read started by Acquire.
func (s *Slots) Release() {
	s.mu.Lock()
	s.readers--
	if s.readers == 0 {
		s.cond.Broadcast()
	}
	s.mu.Unlock()
}

// Front returns the front entry without registering a reader.
func (s *Slots) Front() *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.front
}

// Previous returns the retained previous entry. Only buffered kinds keep one.
func (s *Slots) Previous() *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previous
}

// SetFront installs e as the front entry from the UI thread. Installing a
// new front over an existing one is only allowed for buffered kinds; any
// other kind must be invalidated first.
func (s *Slots) SetFront(e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.front != nil && !s.kind.IsBuffered() {
		return &errors.ContractError{
			Op:     "cache.SetFront",
			Reason: fmt.Sprintf("front entry already exists for non-buffered kind %s", s.kind),
		}
	}
	s.promoteLocked(e)
	return nil
}

// Prepare stores e as the in-progress result of a background job.
func (s *Slots) Prepare(e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.release(e)
		return
	}
	if s.preparing != nil && s.preparing != e {
		s.release(s.preparing)
	}
	s.preparing = e
}

// Promote moves the preparing entry to the front, waiting for readers to
// leave. Returns false when nothing was prepared or the kind changed while
// the job ran.
func (s *Slots) Promote(kind Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.preparing
	if e == nil {
		return false
	}
	s.preparing = nil
	if kind != s.kind {
		s.release(e)
		return false
	}
	s.promoteLocked(e)
	return true
}

func (s *Slots) promoteLocked(e *Entry) {
	s.waitReaders()
	old := s.front
	s.front = e
	if old == nil || old == e {
		return
	}
	if s.kind.IsBuffered() {
		if s.previous != nil {
			s.release(s.previous)
		}
		s.previous = old
		return
	}
	s.release(old)
}

// Invalidate marks the cache stale. Non-buffered kinds drop their front
// entry, keeping its surface aside for reuse by the next write. Buffered
// kinds keep showing the front until a refresh is promoted.
func (s *Slots) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = true
	s.full = true
	s.dirty = nil
	if s.kind.IsBuffered() || s.front == nil {
		return
	}
	s.waitReaders()
	if s.reusable != nil {
		s.release(s.reusable)
	}
	s.reusable = s.front
	s.front = nil
}

// MarkRegionDirty records a sub-rectangle that a Composite refresh must
// redraw, and requests a refresh. Regions are ignored once a full refresh
// is pending.
func (s *Slots) MarkRegionDirty(r graphics.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = true
	if s.full || r.IsEmpty() {
		return
	}
	s.dirty = append(s.dirty, r)
}

// NeedsRefresh reports whether an invalidation is pending.
func (s *Slots) NeedsRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh
}

// TakeRefresh clears the pending refresh flag and returns the dirty regions
// recorded since the last call. A nil slice with true means a full refresh.
func (s *Slots) TakeRefresh() (regions []graphics.Rect, requested bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	requested = s.refresh
	if !s.full {
		regions = s.dirty
	}
	s.refresh = false
	s.full = false
	s.dirty = nil
	return regions, requested
}

// TakeReusable returns the surface of the last invalidated entry when its
// pixel size and device match, handing ownership to the caller. Otherwise
// the stale entry is released and nil returned.
func (s *Slots) TakeReusable(width, height int, device gpucontext.DeviceProvider) graphics.Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.reusable
	s.reusable = nil
	if e == nil || e.Surface == nil {
		if e != nil {
			s.release(e)
		}
		return nil
	}
	surf := e.Surface
	if surf.Disposed() || surf.Width() != width || surf.Height() != height || surf.Device() != device {
		s.release(e)
		return nil
	}
	return surf
}

// Close releases every entry and clears pending refresh state. A job that
// finishes afterwards has its result released by Prepare.
func (s *Slots) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.waitReaders()
	s.releaseAllLocked()
}

func (s *Slots) releaseAllLocked() {
	for _, e := range []*Entry{s.front, s.previous, s.preparing, s.reusable} {
		if e != nil {
			s.release(e)
		}
	}
	s.front, s.previous, s.preparing, s.reusable = nil, nil, nil, nil
	s.refresh = false
	s.full = false
	s.dirty = nil
}

func (s *Slots) waitReaders() {
	for s.readers > 0 {
		s.cond.Wait()
	}
}

func (s *Slots) release(e *Entry) {
	if s.disposer == nil {
		e.Dispose()
		return
	}
	s.disposer.Schedule(e)
}

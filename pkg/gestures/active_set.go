package gestures

import "sync"

// ActiveSet holds the listeners in the middle of a gesture, in the order
// they accepted it. Safe for concurrent use.
type ActiveSet struct {
	mu      sync.Mutex
	members []Listener
}

// Add inserts l unless it is already a member. Returns true if added.
func (s *ActiveSet) Add(l Listener) bool {
	if l == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m == l {
			return false
		}
	}
	s.members = append(s.members, l)
	return true
}

// Remove deletes l from the set.
func (s *ActiveSet) Remove(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.members {
		if m == l {
			s.members = append(s.members[:i], s.members[i+1:]...)
			return
		}
	}
}

// Contains reports whether l is a member.
func (s *ActiveSet) Contains(l Listener) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m == l {
			return true
		}
	}
	return false
}

// Len returns the number of members.
func (s *ActiveSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members)
}

// Snapshot returns a copy of the members.
func (s *ActiveSet) Snapshot() []Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Listener, len(s.members))
	copy(out, s.members)
	return out
}

// Drain empties the set and returns its former members. Concurrent callers
// never receive the same member twice.
func (s *ActiveSet) Drain() []Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.members
	s.members = nil
	return out
}

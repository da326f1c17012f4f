package runtime

import "sync"

// LockedArena is a mutex-protected wrapper around Arena for callers that
// allocate from several goroutines.
type LockedArena struct {
	mu sync.Mutex
	a  *Arena
}

// NewLockedArena creates a goroutine-safe arena of capacity bytes.
func NewLockedArena(capacity int) (*LockedArena, error) {
	a, err := NewArena(capacity)
	if err != nil {
		return nil, err
	}
	return &LockedArena{a: a}, nil
}

// Alloc thread-safely allocates n bytes.
func (s *LockedArena) Alloc(n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Alloc(n)
}

// AllocAligned thread-safely allocates n bytes aligned to align.
func (s *LockedArena) AllocAligned(n, align int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.AllocAligned(n, align)
}

// AllocFloat32s thread-safely carves n zeroed float32 elements.
func (s *LockedArena) AllocFloat32s(n int) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AllocFloat32s(s.a, n)
}

// Destroy thread-safely releases the region.
func (s *LockedArena) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Destroy()
}

// Metrics thread-safely returns a snapshot of arena statistics.
func (s *LockedArena) Metrics() ArenaMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Metrics()
}

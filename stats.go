package gcheap

import "time"

// Stats tracks a heap's allocation and collection counters. Byte counts
// include object headers.
type Stats struct {
	MinorGCCount uint64 // minor collections run
	MajorGCCount uint64 // major collections run

	TotalAllocated uint64 // bytes ever allocated
	TotalCollected uint64 // bytes reclaimed by sweeping
	LiveBytes      uint64 // TotalAllocated minus TotalCollected

	// PeakHeapSize is the high-water mark of arena usage. Arena usage
	// never decreases, so for a live heap this tracks current usage.
	PeakHeapSize uint64

	// TotalGCPause is the accumulated stop-the-world collection time.
	TotalGCPause time.Duration
}

// MemoryUsage is a point-in-time view of both generation arenas.
type MemoryUsage struct {
	YoungUsed      int // bytes consumed in the young arena
	YoungAvailable int // bytes remaining in the young arena
	OldUsed        int // bytes consumed in the old arena
	OldAvailable   int // bytes remaining in the old arena
	TotalObjects   int // registered live objects across both
}

// NodeMemoryUsage is a process-style memory report in the shape of
// Node.js process.memoryUsage().
type NodeMemoryUsage struct {
	RSS          int // committed heap plus bookkeeping overhead
	HeapTotal    int // combined arena capacity
	HeapUsed     int // combined arena usage
	External     int // always 0; no external allocations
	ArrayBuffers int // always 0; no buffer objects
}

// Thread-safe statistics for SafeHeap

// Stats thread-safely returns a snapshot of collection statistics.
func (s *SafeHeap) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Stats()
}

// MemoryUsage thread-safely returns a view of both generations.
func (s *SafeHeap) MemoryUsage() MemoryUsage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.MemoryUsage()
}

// NodeMemoryUsage thread-safely returns a process-style memory report.
func (s *SafeHeap) NodeMemoryUsage() NodeMemoryUsage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.NodeMemoryUsage()
}

// TotalHeapUsed thread-safely returns bytes consumed across generations.
func (s *SafeHeap) TotalHeapUsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.TotalHeapUsed()
}

// HeapAvailable thread-safely returns bytes remaining under the budget.
func (s *SafeHeap) HeapAvailable() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.HeapAvailable()
}

// MaxHeapSize returns the configured total budget in bytes.
func (s *SafeHeap) MaxHeapSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.MaxHeapSize()
}

// IsNearLimit thread-safely reports whether usage is near the budget.
func (s *SafeHeap) IsNearLimit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.IsNearLimit()
}

// ShouldMinorGC thread-safely reports whether the minor threshold is
// crossed.
func (s *SafeHeap) ShouldMinorGC() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.ShouldMinorGC()
}

// ShouldMajorGC thread-safely reports whether the major threshold is
// crossed.
func (s *SafeHeap) ShouldMajorGC() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.ShouldMajorGC()
}

// RootCount thread-safely returns the number of persistent roots.
func (s *SafeHeap) RootCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.RootCount()
}

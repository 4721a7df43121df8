package gcheap

import "sync"

// SafeHeap is a mutex-protected wrapper around Heap for concurrent access.
// Every operation is serialized; a collection holds the lock for its full
// duration, so it stops the world for all goroutines sharing the heap.
//
// Typed refs returned by the allocation methods read and write heap
// memory directly, outside this lock. String contents are immutable once
// allocated, so sharing StringRefs is safe; goroutines sharing an
// ArrayRef must coordinate element access themselves.
type SafeHeap struct {
	mu sync.Mutex
	h  *Heap
}

// NewSafeHeap creates a thread-safe heap with DefaultConfig.
func NewSafeHeap() (*SafeHeap, error) {
	h, err := New()
	if err != nil {
		return nil, err
	}
	return &SafeHeap{h: h}, nil
}

// NewSafeHeapWithConfig validates cfg and creates a thread-safe heap.
func NewSafeHeapWithConfig(cfg Config) (*SafeHeap, error) {
	h, err := NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &SafeHeap{h: h}, nil
}

// Config returns the configuration the heap was built with.
func (s *SafeHeap) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Config()
}

// AllocString thread-safely copies str into the heap.
func (s *SafeHeap) AllocString(str string) (StringRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.AllocString(str)
}

// AllocStringChecked thread-safely copies str into the heap with budget
// enforcement.
func (s *SafeHeap) AllocStringChecked(str string) (StringRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.AllocStringChecked(str)
}

// AllocArray thread-safely creates an array of n Undefined slots.
func (s *SafeHeap) AllocArray(n int) (ArrayRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.AllocArray(n)
}

// AllocArrayChecked thread-safely creates an array with budget
// enforcement.
func (s *SafeHeap) AllocArrayChecked(n int) (ArrayRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.AllocArrayChecked(n)
}

// Alloc thread-safely allocates obj.
func (s *SafeHeap) Alloc(obj Object) (Ref, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Alloc(obj)
}

// AllocChecked thread-safely allocates obj with budget enforcement.
func (s *SafeHeap) AllocChecked(obj Object) (Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.AllocChecked(obj)
}

// MinorGC thread-safely collects the young generation.
func (s *SafeHeap) MinorGC(roots []Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.h.MinorGC(roots)
}

// MajorGC thread-safely collects the entire heap.
func (s *SafeHeap) MajorGC(roots []Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.h.MajorGC(roots)
}

// ForceGC thread-safely runs an unconditional major collection.
func (s *SafeHeap) ForceGC() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.h.ForceGC()
}

// AddRoot thread-safely registers a persistent root.
func (s *SafeHeap) AddRoot(r Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.h.AddRoot(r)
}

// RemoveRoot thread-safely unregisters a persistent root.
func (s *SafeHeap) RemoveRoot(r Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.h.RemoveRoot(r)
}

// ClearRoots thread-safely unregisters every persistent root.
func (s *SafeHeap) ClearRoots() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.h.ClearRoots()
}

// WriteBarrier thread-safely records an old-to-young store.
func (s *SafeHeap) WriteBarrier(obj, stored Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.h.WriteBarrier(obj, stored)
}

// Release thread-safely drops both arenas and makes the heap unusable.
func (s *SafeHeap) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.h.Release()
}

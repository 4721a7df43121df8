package gcheap

// Heap is a generational garbage-collected heap for NaN-boxed runtime
// values. Objects live in one of two fixed-capacity bump arenas, young and
// old, and never move. Collection is stop-the-world tricolor mark-sweep:
// minor collections sweep only the young generation, seeded by the
// remembered set; major collections sweep everything. Reclamation is
// bookkeeping-only, so arena usage climbs monotonically for the heap's
// lifetime. Not goroutine-safe; use SafeHeap for concurrent access.
type Heap struct {
	young *arena
	old   *arena

	config Config

	// remembered holds header addresses of old-generation objects that
	// may reference young objects. Minor collections treat it as part of
	// the root set.
	remembered map[Addr]struct{}

	// roots holds persistent GC roots as header addresses.
	roots map[Addr]struct{}

	// objects registers every live allocation in allocation order.
	objects []Addr

	// gray is the mark worklist, reused across collections.
	gray []Addr

	stats Stats

	released bool
}

// New creates a heap with DefaultConfig.
func New() (*Heap, error) {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig validates cfg and creates a heap. Both generation arenas
// are committed at full capacity up front.
func NewWithConfig(cfg Config) (*Heap, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	youngBase := heapBase
	oldBase := alignAddr(youngBase+Addr(cfg.YoungSize), arenaAlign)
	return &Heap{
		young:      newArena(youngBase, cfg.YoungSize),
		old:        newArena(oldBase, cfg.OldSize),
		config:     cfg,
		remembered: make(map[Addr]struct{}),
		roots:      make(map[Addr]struct{}),
	}, nil
}

// Config returns the configuration the heap was built with.
func (h *Heap) Config() Config {
	return h.config
}

// Release drops both generation arenas and makes the heap unusable. Any
// subsequent allocation, collection, or root operation panics. Release is
// idempotent, and addresses handed out earlier must not be read afterwards.
func (h *Heap) Release() {
	h.released = true
	h.young.release()
	h.old.release()
	h.remembered = nil
	h.roots = nil
	h.objects = nil
	h.gray = nil
}

// panicIfReleased panics if the heap has been released.
func (h *Heap) panicIfReleased() {
	if h.released {
		panic("gcheap: use after Release()")
	}
}

// AddRoot registers r as a persistent GC root. Roots survive every
// collection until removed; a Ref dropped without RemoveRoot pins its
// object for the heap's lifetime. The null Ref is ignored.
func (h *Heap) AddRoot(r Ref) {
	h.panicIfReleased()
	if r.addr == 0 {
		return
	}
	h.roots[r.addr] = struct{}{}
}

// RemoveRoot unregisters a persistent root. Unknown roots are ignored.
func (h *Heap) RemoveRoot(r Ref) {
	h.panicIfReleased()
	delete(h.roots, r.addr)
}

// ClearRoots unregisters every persistent root.
func (h *Heap) ClearRoots() {
	h.panicIfReleased()
	clear(h.roots)
}

// RootCount returns the number of persistent roots.
func (h *Heap) RootCount() int {
	return len(h.roots)
}

// WriteBarrier records that obj may now reference a young object, making
// it a root of the next minor collection. Call it after storing a heap
// reference into an old-generation object. Stores into young objects need
// no barrier and are ignored. The barrier is object-granular: stored names
// the reference that was written but is not consulted.
func (h *Heap) WriteBarrier(obj, stored Ref) {
	h.panicIfReleased()
	hd, ok := h.headerAt(obj.addr)
	if !ok || hd.isYoung() {
		return
	}
	h.remembered[obj.addr] = struct{}{}
}

// Stats returns a snapshot of the heap's allocation and collection
// statistics.
func (h *Heap) Stats() Stats {
	return h.stats
}

// TotalHeapUsed returns the bytes consumed across both generations,
// alignment padding included. Collection never lowers it.
func (h *Heap) TotalHeapUsed() int {
	return h.young.used() + h.old.used()
}

// HeapAvailable returns the bytes remaining before the configured budget
// is reached.
func (h *Heap) HeapAvailable() int {
	return h.config.MaxHeapSize - h.TotalHeapUsed()
}

// MaxHeapSize returns the configured total budget in bytes.
func (h *Heap) MaxHeapSize() int {
	return h.config.MaxHeapSize
}

// IsNearLimit reports whether usage is at or past 90% of the budget.
func (h *Heap) IsNearLimit() bool {
	return float64(h.TotalHeapUsed()) >= 0.9*float64(h.config.MaxHeapSize)
}

// ShouldMinorGC reports whether young-generation utilization has crossed
// Config.MinorGCThreshold.
func (h *Heap) ShouldMinorGC() bool {
	return float64(h.young.used()) >= h.config.MinorGCThreshold*float64(h.young.size())
}

// ShouldMajorGC reports whether old-generation utilization has crossed
// Config.MajorGCThreshold.
func (h *Heap) ShouldMajorGC() bool {
	return float64(h.old.used()) >= h.config.MajorGCThreshold*float64(h.old.size())
}

// MemoryUsage returns a point-in-time view of both generations.
func (h *Heap) MemoryUsage() MemoryUsage {
	return MemoryUsage{
		YoungUsed:      h.young.used(),
		YoungAvailable: h.young.available(),
		OldUsed:        h.old.used(),
		OldAvailable:   h.old.available(),
		TotalObjects:   len(h.objects),
	}
}

// NodeMemoryUsage returns a process-style memory report. RSS approximates
// the committed heap plus one tenth bookkeeping overhead.
func (h *Heap) NodeMemoryUsage() NodeMemoryUsage {
	total := h.young.size() + h.old.size()
	return NodeMemoryUsage{
		RSS:          total + total/10,
		HeapTotal:    total,
		HeapUsed:     h.TotalHeapUsed(),
		External:     0,
		ArrayBuffers: 0,
	}
}

// arenaOf returns the arena whose address range covers addr, or nil.
func (h *Heap) arenaOf(addr Addr) *arena {
	if h.young.contains(addr) {
		return h.young
	}
	if h.old.contains(addr) {
		return h.old
	}
	return nil
}

// headerAt returns the header view of the object at addr. It reports false
// for addresses that cannot be an object header: outside both arenas, past
// the owning arena's cursor, or misaligned.
func (h *Heap) headerAt(addr Addr) (header, bool) {
	if addr%objectAlign != 0 {
		return header{}, false
	}
	a := h.arenaOf(addr)
	if a == nil {
		return header{}, false
	}
	b, ok := a.bytes(addr, headerSize)
	if !ok {
		return header{}, false
	}
	return header{b: b}, true
}

// payloadBytes returns the n-byte payload window of the object whose
// header sits at addr.
func (h *Heap) payloadBytes(addr Addr, n int) ([]byte, bool) {
	a := h.arenaOf(addr)
	if a == nil {
		return nil, false
	}
	return a.bytes(payloadAddrFor(addr), n)
}

// updatePeak ratchets PeakHeapSize up to the current usage.
func (h *Heap) updatePeak() {
	if used := uint64(h.TotalHeapUsed()); used > h.stats.PeakHeapSize {
		h.stats.PeakHeapSize = used
	}
}

// Package gcheap implements a generational garbage-collected heap for
// NaN-boxed runtime values, the storage layer of an embedded language
// runtime.
//
// # Overview
//
// A Heap owns two fixed-capacity bump arenas: a small young generation
// where allocations land first, and a larger old generation used as
// overflow. Collections are stop-the-world tricolor mark-sweep: a minor
// collection sweeps only the young generation, seeded by persistent
// roots, the caller's transient roots, and a remembered set of
// old-generation objects that may point at young ones; a major collection
// sweeps everything. Reclamation is bookkeeping-only. Arena bytes are
// never reused or compacted, which buys:
//
//   - O(1) bump-and-align allocation
//   - Stable addresses: objects never move until Release
//   - Collection cost that scales with registered objects, not heap size
//
// at the cost of arena usage that only ever grows.
//
// # Basic Usage
//
//	h, err := gcheap.New()
//	if err != nil {
//		// invalid configuration
//	}
//	defer h.Release()
//
//	s, ok := h.AllocString("hello")
//	if !ok {
//		// both generations full
//	}
//	h.AddRoot(s.Ref()) // pin across collections
//
//	arr, _ := h.AllocArray(2)
//	arr.SetElem(0, s.Value())
//	arr.SetElem(1, gcheap.IntValue(42))
//
// # Roots and Collection
//
// The collector only knows about objects it can reach. Persistent roots
// (AddRoot/RemoveRoot) survive every collection; transient roots are
// passed per-call to MinorGC/MajorGC. Allocation under pressure triggers
// internal collections with NoRoots, so any value not yet rooted or
// reachable from a root can be collected by the very allocation that
// follows its creation. Pin first, then allocate.
//
// After storing a heap reference into an old-generation array, call
// WriteBarrier so the next minor collection treats that array as a root;
// without it, a young object reachable only from old memory is swept.
//
// # Thread Safety
//
// Heap is not goroutine-safe. SafeHeap wraps every operation in a mutex:
//
//	sh, err := gcheap.NewSafeHeap()
//	defer sh.Release()
//	str, ok := sh.AllocString("shared")
//
// # Statistics and Monitoring
//
// Stats counts collections, bytes allocated and collected, the usage
// high-water mark, and accumulated pause time. MemoryUsage reports both
// arenas; NodeMemoryUsage reports the same data in the shape of Node.js
// process.memoryUsage(). ShouldMinorGC and ShouldMajorGC expose the
// configured utilization thresholds for embedders that drive collection
// themselves.
//
// # Important Notes
//
//   - Checked allocation (AllocStringChecked and friends) enforces
//     Config.MaxHeapSize and returns *OOMError; best-effort allocation
//     only fails once both arenas are exhausted
//   - Collected bytes never return to the arenas; a long-lived heap under
//     churn eventually exhausts its arenas regardless of collection
//   - Refs and string views must not be used after Release
package gcheap

package gcheap

import "time"

// NoRoots is the empty transient-root set. Passing it to a collection
// states that nothing beyond the persistent roots (and, for minor
// collections, the remembered set) should keep objects alive.
// Allocation-triggered collections pass NoRoots, which is why callers
// must pin in-flight values with AddRoot before allocating under memory
// pressure.
var NoRoots []Ref

// MinorGC runs a stop-the-world collection of the young generation.
// Marking starts from the caller's transient roots, the remembered set,
// and the persistent roots. Unmarked young objects leave the heap's
// bookkeeping; their arena bytes are not reused. Old objects are never
// swept here.
func (h *Heap) MinorGC(roots []Ref) {
	h.panicIfReleased()
	start := time.Now()
	h.stats.MinorGCCount++

	h.gray = h.gray[:0]
	for _, r := range roots {
		h.markGray(r.addr)
	}
	for addr := range h.remembered {
		h.markGray(addr)
	}
	for addr := range h.roots {
		h.markGray(addr)
	}
	h.processGrayWorklist()
	h.sweepYoung()
	h.pruneRemembered()
	h.resetColors()

	h.stats.TotalGCPause += time.Since(start)
}

// MajorGC runs a stop-the-world collection of the entire heap. The
// remembered set is not part of the root set here, since every old object
// is itself up for sweeping, and it is cleared afterwards.
func (h *Heap) MajorGC(roots []Ref) {
	h.panicIfReleased()
	start := time.Now()
	h.stats.MajorGCCount++

	h.gray = h.gray[:0]
	for _, r := range roots {
		h.markGray(r.addr)
	}
	for addr := range h.roots {
		h.markGray(addr)
	}
	h.processGrayWorklist()
	h.sweepAll()
	clear(h.remembered)
	h.resetColors()

	h.stats.TotalGCPause += time.Since(start)
}

// ForceGC runs an unconditional major collection with no transient roots.
func (h *Heap) ForceGC() {
	h.MajorGC(NoRoots)
}

// markGray colors a white object gray and queues it for scanning.
// Addresses that cannot name an object header are ignored, so stale or
// garbage roots cannot corrupt a collection.
func (h *Heap) markGray(addr Addr) {
	hd, ok := h.headerAt(addr)
	if !ok {
		return
	}
	if hd.color() != ColorWhite {
		return
	}
	hd.setColor(ColorGray)
	h.gray = append(h.gray, addr)
}

// processGrayWorklist drains the mark worklist: each gray object is
// blackened and its children are marked gray in turn.
func (h *Heap) processGrayWorklist() {
	for len(h.gray) > 0 {
		addr := h.gray[len(h.gray)-1]
		h.gray = h.gray[:len(h.gray)-1]
		hd, ok := h.headerAt(addr)
		if !ok || hd.color() == ColorBlack {
			continue
		}
		hd.setColor(ColorBlack)
		h.traceObject(addr, hd)
	}
}

// traceObject marks the children of the object at addr. Tagged values
// carry payload addresses; marking works in header addresses.
func (h *Heap) traceObject(addr Addr, hd header) {
	psize := hd.totalSize() - headerSize
	if psize <= 0 {
		return
	}
	payload, ok := h.payloadBytes(addr, psize)
	if !ok {
		return
	}
	tracerFor(hd.objectType()).trace(payload, func(child Addr) {
		h.markGray(headerAddrForPayload(child))
	})
}

// sweepYoung drops unmarked young objects from the registry; old objects
// pass through untouched. Swept bytes move from LiveBytes to
// TotalCollected while the young arena's cursor stays where it is.
func (h *Heap) sweepYoung() {
	var collected uint64
	live := h.objects[:0]
	for _, addr := range h.objects {
		hd, ok := h.headerAt(addr)
		if !ok {
			continue
		}
		if !hd.isYoung() || hd.color() == ColorBlack {
			live = append(live, addr)
			continue
		}
		collected += uint64(hd.totalSize())
	}
	h.objects = live
	h.stats.TotalCollected += collected
	h.stats.LiveBytes -= collected
}

// sweepAll drops unmarked objects of both generations.
func (h *Heap) sweepAll() {
	var collected uint64
	live := h.objects[:0]
	for _, addr := range h.objects {
		hd, ok := h.headerAt(addr)
		if !ok {
			continue
		}
		if hd.color() == ColorBlack {
			live = append(live, addr)
			continue
		}
		collected += uint64(hd.totalSize())
	}
	h.objects = live
	h.stats.TotalCollected += collected
	h.stats.LiveBytes -= collected
}

// pruneRemembered drops remembered-set entries whose object did not
// survive the collection, leaving no dangling addresses behind.
func (h *Heap) pruneRemembered() {
	for addr := range h.remembered {
		hd, ok := h.headerAt(addr)
		if !ok || hd.color() != ColorBlack {
			delete(h.remembered, addr)
		}
	}
}

// resetColors returns every surviving object to white for the next cycle.
func (h *Heap) resetColors() {
	for _, addr := range h.objects {
		if hd, ok := h.headerAt(addr); ok {
			hd.setColor(ColorWhite)
		}
	}
}

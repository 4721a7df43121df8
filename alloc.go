package gcheap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSize is returned by checked allocation when the request is
// malformed (a negative payload size or element count) rather than
// unsatisfiable.
var ErrInvalidSize = errors.New("gcheap: invalid allocation size")

// maxAllocSize is the largest single allocation, bounded by the header's
// uint32 size field.
const maxAllocSize = 1<<32 - 1

// String payloads are len u32 | hash u32 | bytes. Array payloads are
// count u32 | padding u32 | count 8-byte value slots.
const (
	stringPayloadHeader = 8
	arrayPayloadHeader  = 8
	arraySlotSize       = 8
)

// maxArrayLen bounds the element count so an array's total size fits the
// header's size field.
const maxArrayLen = (maxAllocSize - headerSize - arrayPayloadHeader) / arraySlotSize

// Object describes a runtime value the heap can allocate without knowing
// its layout. PayloadSize is the number of payload bytes to reserve;
// EncodePayload then receives a zeroed window of exactly that many bytes.
// Type selects the layout tag the collector will trace the object under.
type Object interface {
	Type() ObjectType
	PayloadSize() int
	EncodePayload(b []byte)
}

// OOMError reports an allocation the checked entry points refused because
// it cannot fit under the heap budget.
type OOMError struct {
	RequestedBytes  int
	AvailableBytes  int
	MaxHeapSize     int
	CurrentHeapUsed int
	HeapStats       Stats
}

func (e *OOMError) Error() string {
	return fmt.Sprintf("heap out of memory: requested %d bytes, available %d bytes (heap: %d/%d bytes, %d major GCs performed)",
		e.RequestedBytes, e.AvailableBytes, e.CurrentHeapUsed, e.MaxHeapSize, e.HeapStats.MajorGCCount)
}

// oomError snapshots the heap state into an *OOMError.
func (h *Heap) oomError(requested int) *OOMError {
	return &OOMError{
		RequestedBytes:  requested,
		AvailableBytes:  h.HeapAvailable(),
		MaxHeapSize:     h.config.MaxHeapSize,
		CurrentHeapUsed: h.TotalHeapUsed(),
		HeapStats:       h.stats,
	}
}

// AllocString copies s into the heap and returns a reference to the new
// string object. It reports false when neither generation can hold the
// request. A failed young reservation triggers one minor collection with
// no transient roots before the old generation is tried, so unrooted
// young values do not survive past this call.
func (h *Heap) AllocString(s string) (StringRef, bool) {
	h.panicIfReleased()
	size := headerSize + stringPayloadHeader + len(s)
	if uint64(size) > maxAllocSize {
		return StringRef{}, false
	}
	addr, ok := h.allocObject(size)
	if !ok {
		return StringRef{}, false
	}
	h.finishAlloc(addr, TypeString, size)
	b, _ := h.payloadBytes(addr, size-headerSize)
	encodeStringPayload(b, s)
	return StringRef{heap: h, addr: addr}, true
}

// AllocStringChecked is AllocString with heap-budget enforcement: it fails
// with *OOMError once the request cannot fit under MaxHeapSize, after a
// major collection has been given the chance to prune dead objects.
func (h *Heap) AllocStringChecked(s string) (StringRef, error) {
	h.panicIfReleased()
	size := headerSize + stringPayloadHeader + len(s)
	if uint64(size) > maxAllocSize {
		return StringRef{}, h.oomError(size)
	}
	addr, err := h.reserveChecked(size)
	if err != nil {
		return StringRef{}, err
	}
	h.finishAlloc(addr, TypeString, size)
	b, _ := h.payloadBytes(addr, size-headerSize)
	encodeStringPayload(b, s)
	return StringRef{heap: h, addr: addr}, nil
}

// AllocArray creates an array of n slots, each initialized to Undefined,
// and returns a reference to it. It reports false for negative or
// oversized n and when space runs out; see AllocString for the policy.
func (h *Heap) AllocArray(n int) (ArrayRef, bool) {
	h.panicIfReleased()
	if n < 0 || n > maxArrayLen {
		return ArrayRef{}, false
	}
	size := arrayAllocSize(n)
	addr, ok := h.allocObject(size)
	if !ok {
		return ArrayRef{}, false
	}
	h.finishAlloc(addr, TypeArray, size)
	b, _ := h.payloadBytes(addr, size-headerSize)
	encodeArrayPayload(b, n)
	return ArrayRef{heap: h, addr: addr}, true
}

// AllocArrayChecked is AllocArray with heap-budget enforcement.
func (h *Heap) AllocArrayChecked(n int) (ArrayRef, error) {
	h.panicIfReleased()
	if n < 0 {
		return ArrayRef{}, ErrInvalidSize
	}
	size := arrayAllocSize(n)
	if n > maxArrayLen {
		return ArrayRef{}, h.oomError(size)
	}
	addr, err := h.reserveChecked(size)
	if err != nil {
		return ArrayRef{}, err
	}
	h.finishAlloc(addr, TypeArray, size)
	b, _ := h.payloadBytes(addr, size-headerSize)
	encodeArrayPayload(b, n)
	return ArrayRef{heap: h, addr: addr}, nil
}

// Alloc reserves space for obj, encodes its payload, and returns its
// reference. The best-effort policy applies; see AllocString.
func (h *Heap) Alloc(obj Object) (Ref, bool) {
	h.panicIfReleased()
	psize := obj.PayloadSize()
	if psize < 0 {
		return Ref{}, false
	}
	size := headerSize + psize
	if uint64(size) > maxAllocSize {
		return Ref{}, false
	}
	addr, ok := h.allocObject(size)
	if !ok {
		return Ref{}, false
	}
	h.finishAlloc(addr, obj.Type(), size)
	if psize > 0 {
		b, _ := h.payloadBytes(addr, psize)
		obj.EncodePayload(b)
	}
	return Ref{addr: addr}, true
}

// AllocChecked is Alloc with heap-budget enforcement.
func (h *Heap) AllocChecked(obj Object) (Ref, error) {
	h.panicIfReleased()
	psize := obj.PayloadSize()
	if psize < 0 {
		return Ref{}, ErrInvalidSize
	}
	if psize > math.MaxInt-headerSize {
		return Ref{}, h.oomError(math.MaxInt)
	}
	size := headerSize + psize
	if uint64(size) > maxAllocSize {
		return Ref{}, h.oomError(size)
	}
	addr, err := h.reserveChecked(size)
	if err != nil {
		return Ref{}, err
	}
	h.finishAlloc(addr, obj.Type(), size)
	if psize > 0 {
		b, _ := h.payloadBytes(addr, psize)
		obj.EncodePayload(b)
	}
	return Ref{addr: addr}, nil
}

// allocObject reserves size bytes with the best-effort policy: young
// generation first, then one minor collection and a young retry, then the
// old generation. Collection reclaims bookkeeping rather than arena bytes,
// so the retry succeeds only when the collection itself made no room; the
// point of running it is pruning dead objects before the spill.
func (h *Heap) allocObject(size int) (Addr, bool) {
	if addr, ok := h.young.allocate(size, objectAlign); ok {
		return addr, true
	}
	h.MinorGC(NoRoots)
	if addr, ok := h.young.allocate(size, objectAlign); ok {
		return addr, true
	}
	return h.old.allocate(size, objectAlign)
}

// reserveChecked reserves size bytes with the checked policy: a budget
// pre-check that runs a major collection on breach, then the best-effort
// chain extended with a major collection before the old-generation
// fallback. Exhaustion surfaces as *OOMError.
func (h *Heap) reserveChecked(size int) (Addr, error) {
	if h.TotalHeapUsed()+size > h.config.MaxHeapSize {
		h.MajorGC(NoRoots)
		if h.TotalHeapUsed()+size > h.config.MaxHeapSize {
			return 0, h.oomError(size)
		}
	}
	if addr, ok := h.young.allocate(size, objectAlign); ok {
		return addr, nil
	}
	h.MinorGC(NoRoots)
	if addr, ok := h.young.allocate(size, objectAlign); ok {
		return addr, nil
	}
	h.MajorGC(NoRoots)
	if addr, ok := h.young.allocate(size, objectAlign); ok {
		return addr, nil
	}
	if addr, ok := h.old.allocate(size, objectAlign); ok {
		return addr, nil
	}
	return 0, h.oomError(size)
}

// finishAlloc stamps a fresh header, registers the object, and updates
// allocation statistics.
func (h *Heap) finishAlloc(addr Addr, typ ObjectType, size int) {
	gen := genYoung
	if h.old.contains(addr) {
		gen = genOld
	}
	hd, _ := h.headerAt(addr)
	hd.init(size, typ, gen)
	h.objects = append(h.objects, addr)
	h.stats.TotalAllocated += uint64(size)
	h.stats.LiveBytes += uint64(size)
	h.updatePeak()
}

// encodeStringPayload writes len, hash, and the string bytes.
func encodeStringPayload(b []byte, s string) {
	binary.LittleEndian.PutUint32(b[0:4], uint32(len(s)))
	binary.LittleEndian.PutUint32(b[4:8], hashString(s))
	copy(b[stringPayloadHeader:], s)
}

// arrayAllocSize returns the total allocation size of an n-element array,
// saturating at the largest int when the exact size does not fit one.
func arrayAllocSize(n int) int {
	if n > (math.MaxInt-headerSize-arrayPayloadHeader)/arraySlotSize {
		return math.MaxInt
	}
	return headerSize + arrayPayloadHeader + n*arraySlotSize
}

// encodeArrayPayload writes the element count and fills every slot with
// Undefined.
func encodeArrayPayload(b []byte, n int) {
	binary.LittleEndian.PutUint32(b[0:4], uint32(n))
	binary.LittleEndian.PutUint32(b[4:8], 0)
	undef := Undefined().Bits()
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint64(b[arrayPayloadHeader+i*arraySlotSize:], undef)
	}
}

// hashString is the 31-multiplier rolling hash of the string's bytes,
// stored alongside every heap string.
func hashString(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return h
}

package gcheap

import (
	"encoding/binary"
	"unsafe"
)

// Ref is an opaque handle to a heap object, carrying its header address.
// Roots, the write barrier, and transient GC root lists work in Refs. The
// zero Ref is the null reference.
type Ref struct {
	addr Addr
}

// Addr returns the object's header address.
func (r Ref) Addr() Addr {
	return r.addr
}

// IsNil reports whether r is the null reference.
func (r Ref) IsNil() bool {
	return r.addr == 0
}

// StringRef is a typed handle to an immutable heap string.
type StringRef struct {
	heap *Heap
	addr Addr
}

// Ref returns the untyped handle, the form roots and barriers take.
func (r StringRef) Ref() Ref {
	return Ref{addr: r.addr}
}

// Value returns the tagged value referencing this string.
func (r StringRef) Value() Value {
	return refValue(TypeString, payloadAddrFor(r.addr))
}

// Len returns the string's byte length.
func (r StringRef) Len() int {
	b, ok := r.heap.payloadBytes(r.addr, stringPayloadHeader)
	if !ok {
		return 0
	}
	return int(binary.LittleEndian.Uint32(b[0:4]))
}

// Hash returns the hash stored alongside the string.
func (r StringRef) Hash() uint32 {
	b, ok := r.heap.payloadBytes(r.addr, stringPayloadHeader)
	if !ok {
		return 0
	}
	return binary.LittleEndian.Uint32(b[4:8])
}

// Str returns the string contents as a view over heap memory, without
// copying. String payloads are immutable, so the view is stable; it must
// not be used after the heap is released.
func (r StringRef) Str() string {
	n := r.Len()
	if n == 0 {
		return ""
	}
	b, ok := r.heap.payloadBytes(r.addr, stringPayloadHeader+n)
	if !ok {
		return ""
	}
	return unsafe.String(&b[stringPayloadHeader], n)
}

// ArrayRef is a typed handle to a heap array of tagged values.
type ArrayRef struct {
	heap *Heap
	addr Addr
}

// Ref returns the untyped handle, the form roots and barriers take.
func (r ArrayRef) Ref() Ref {
	return Ref{addr: r.addr}
}

// Value returns the tagged value referencing this array.
func (r ArrayRef) Value() Value {
	return refValue(TypeArray, payloadAddrFor(r.addr))
}

// Len returns the element count.
func (r ArrayRef) Len() int {
	b, ok := r.heap.payloadBytes(r.addr, arrayPayloadHeader)
	if !ok {
		return 0
	}
	return int(binary.LittleEndian.Uint32(b[0:4]))
}

// Elem returns the value in slot i.
func (r ArrayRef) Elem(i int) Value {
	return ValueFromBits(binary.LittleEndian.Uint64(r.slot(i)))
}

// SetElem stores v in slot i. Storing a heap reference into an
// old-generation array must be followed by a WriteBarrier call to stay
// visible to minor collections.
func (r ArrayRef) SetElem(i int, v Value) {
	binary.LittleEndian.PutUint64(r.slot(i), v.Bits())
}

// slot returns the 8-byte window of element i. It panics when i is out
// of range or the heap has been released.
func (r ArrayRef) slot(i int) []byte {
	r.heap.panicIfReleased()
	if i < 0 || i >= r.Len() {
		panic("gcheap: array index out of range")
	}
	off := arrayPayloadHeader + i*arraySlotSize
	b, ok := r.heap.payloadBytes(r.addr, off+arraySlotSize)
	if !ok {
		panic("gcheap: array index out of range")
	}
	return b[off : off+arraySlotSize]
}

// RefAt resolves a heap reference value to its untyped handle. It reports
// false when v is not a reference or does not point into this heap.
func (h *Heap) RefAt(v Value) (Ref, bool) {
	p, ok := v.refAddr()
	if !ok {
		return Ref{}, false
	}
	addr := headerAddrForPayload(p)
	if _, ok := h.headerAt(addr); !ok {
		return Ref{}, false
	}
	return Ref{addr: addr}, true
}

// StringAt resolves a tagged value to its string handle. It reports false
// when v does not reference a string object in this heap.
func (h *Heap) StringAt(v Value) (StringRef, bool) {
	if !v.IsString() {
		return StringRef{}, false
	}
	p, _ := v.refAddr()
	addr := headerAddrForPayload(p)
	hd, ok := h.headerAt(addr)
	if !ok || hd.objectType() != TypeString {
		return StringRef{}, false
	}
	return StringRef{heap: h, addr: addr}, true
}

// ArrayAt resolves a tagged value to its array handle. It reports false
// when v does not reference an array object in this heap.
func (h *Heap) ArrayAt(v Value) (ArrayRef, bool) {
	if !v.IsArray() {
		return ArrayRef{}, false
	}
	p, _ := v.refAddr()
	addr := headerAddrForPayload(p)
	hd, ok := h.headerAt(addr)
	if !ok || hd.objectType() != TypeArray {
		return ArrayRef{}, false
	}
	return ArrayRef{heap: h, addr: addr}, true
}

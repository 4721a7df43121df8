package gcheap

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"
)

// rawObject is a minimal Object used to drive Alloc with arbitrary
// types and payloads.
type rawObject struct {
	typ     ObjectType
	payload []byte
}

func (o rawObject) Type() ObjectType { return o.typ }
func (o rawObject) PayloadSize() int { return len(o.payload) }

func (o rawObject) EncodePayload(b []byte) {
	copy(b, o.payload)
}

func TestAllocString(t *testing.T) {
	h, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	s, ok := h.AllocString("hello, world!")
	if !ok {
		t.Fatal("AllocString failed")
	}

	if got := s.Len(); got != 13 {
		t.Errorf("Len() = %d, want 13", got)
	}
	if got := s.Str(); got != "hello, world!" {
		t.Errorf("Str() = %q, want %q", got, "hello, world!")
	}
	if got, want := s.Hash(), hashString("hello, world!"); got != want {
		t.Errorf("Hash() = %#x, want %#x", got, want)
	}
	if !s.Value().IsString() {
		t.Error("Value() is not a string reference")
	}

	// Header plus 8-byte string payload header plus 13 bytes of text.
	if got := h.TotalHeapUsed(); got != 29 {
		t.Errorf("TotalHeapUsed() = %d, want 29", got)
	}
}

func TestAllocStringEmpty(t *testing.T) {
	h, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	s, ok := h.AllocString("")
	if !ok {
		t.Fatal("AllocString(\"\") failed")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if s.Str() != "" {
		t.Errorf("Str() = %q, want empty", s.Str())
	}
}

func TestAllocStringUnicode(t *testing.T) {
	h, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	text := "héllo wörld ✓ 日本語"
	s, ok := h.AllocString(text)
	if !ok {
		t.Fatal("AllocString failed")
	}
	if got := s.Str(); got != text {
		t.Errorf("Str() = %q, want %q", got, text)
	}
	if got := s.Len(); got != len(text) {
		t.Errorf("Len() = %d, want byte length %d", got, len(text))
	}
}

func TestAllocStringMany(t *testing.T) {
	h, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	refs := make([]StringRef, 0, 100)
	want := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		text := strings.Repeat("x", i%17) + "-" + strings.Repeat("y", i%5)
		s, ok := h.AllocString(text)
		if !ok {
			t.Fatalf("AllocString #%d failed", i)
		}
		refs = append(refs, s)
		want = append(want, text)
	}

	// Every earlier string must be intact after later allocations.
	for i, s := range refs {
		if got := s.Str(); got != want[i] {
			t.Errorf("string #%d = %q, want %q", i, got, want[i])
		}
	}
}

func TestAllocArray(t *testing.T) {
	h, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	a, ok := h.AllocArray(5)
	if !ok {
		t.Fatal("AllocArray failed")
	}

	if got := a.Len(); got != 5 {
		t.Errorf("Len() = %d, want 5", got)
	}
	if !a.Value().IsArray() {
		t.Error("Value() is not an array reference")
	}
	for i := 0; i < 5; i++ {
		if !a.Elem(i).IsUndefined() {
			t.Errorf("Elem(%d) not undefined after allocation", i)
		}
	}

	a.SetElem(0, IntValue(-5))
	a.SetElem(2, Float64Value(2.5))
	a.SetElem(4, BoolValue(true))

	if got, _ := a.Elem(0).Int32(); got != -5 {
		t.Errorf("Elem(0) = %d, want -5", got)
	}
	if got, _ := a.Elem(2).Float64(); got != 2.5 {
		t.Errorf("Elem(2) = %v, want 2.5", got)
	}
	if got, _ := a.Elem(4).Bool(); got != true {
		t.Errorf("Elem(4) = %v, want true", got)
	}
	if !a.Elem(1).IsUndefined() || !a.Elem(3).IsUndefined() {
		t.Error("untouched slots lost their undefined default")
	}
}

func TestAllocArrayEmpty(t *testing.T) {
	h, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	a, ok := h.AllocArray(0)
	if !ok {
		t.Fatal("AllocArray(0) failed")
	}
	if a.Len() != 0 {
		t.Errorf("Len() = %d, want 0", a.Len())
	}
}

func TestAllocArrayInvalidLength(t *testing.T) {
	h, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	if _, ok := h.AllocArray(-1); ok {
		t.Error("AllocArray(-1) succeeded")
	}
	if _, err := h.AllocArrayChecked(-1); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("AllocArrayChecked(-1) error = %v, want ErrInvalidSize", err)
	}
	if _, ok := h.AllocArray(maxArrayLen + 1); ok {
		t.Error("AllocArray(maxArrayLen+1) succeeded")
	}
}

func TestAllocArrayCheckedOversize(t *testing.T) {
	h, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	var oom *OOMError
	_, err = h.AllocArrayChecked(maxArrayLen + 1)
	if !errors.As(err, &oom) {
		t.Fatalf("AllocArrayChecked(maxArrayLen+1) error = %v, want *OOMError", err)
	}
	if oom.RequestedBytes != 1<<32 {
		t.Errorf("RequestedBytes = %d, want %d", oom.RequestedBytes, 1<<32)
	}

	// An element count whose byte size does not fit an int must not wrap
	// into a small request.
	_, err = h.AllocArrayChecked(math.MaxInt)
	if !errors.As(err, &oom) {
		t.Fatalf("AllocArrayChecked(math.MaxInt) error = %v, want *OOMError", err)
	}
	if oom.RequestedBytes != math.MaxInt {
		t.Errorf("RequestedBytes = %d, want %d", oom.RequestedBytes, math.MaxInt)
	}
}

func TestArrayElemOutOfRange(t *testing.T) {
	h, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	a, _ := h.AllocArray(3)

	for _, i := range []int{-1, 3, 100} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Elem(%d) did not panic", i)
				}
			}()
			a.Elem(i)
		}()
	}
}

func TestAlloc(t *testing.T) {
	h, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	payload := make([]byte, 16)
	binary.LittleEndian.PutUint64(payload, 0xDEADBEEF)
	binary.LittleEndian.PutUint64(payload[8:], 42)

	r, ok := h.Alloc(rawObject{typ: TypeFunction, payload: payload})
	if !ok {
		t.Fatal("Alloc failed")
	}
	if r.IsNil() {
		t.Fatal("Alloc returned a nil ref")
	}

	hd, ok := h.headerAt(r.Addr())
	if !ok {
		t.Fatal("allocated object has no readable header")
	}
	if got := hd.objectType(); got != TypeFunction {
		t.Errorf("objectType() = %v, want TypeFunction", got)
	}
	if got := hd.totalSize(); got != headerSize+16 {
		t.Errorf("totalSize() = %d, want %d", got, headerSize+16)
	}

	b, ok := h.payloadBytes(r.Addr(), 16)
	if !ok {
		t.Fatal("payloadBytes failed")
	}
	if got := binary.LittleEndian.Uint64(b); got != 0xDEADBEEF {
		t.Errorf("payload word 0 = %#x, want 0xDEADBEEF", got)
	}
	if got := binary.LittleEndian.Uint64(b[8:]); got != 42 {
		t.Errorf("payload word 1 = %d, want 42", got)
	}
}

func TestAllocZeroPayload(t *testing.T) {
	h, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	r, ok := h.Alloc(rawObject{typ: TypeObject})
	if !ok {
		t.Fatal("Alloc with empty payload failed")
	}
	hd, ok := h.headerAt(r.Addr())
	if !ok {
		t.Fatal("allocated object has no readable header")
	}
	if hd.totalSize() != headerSize {
		t.Errorf("totalSize() = %d, want bare header %d", hd.totalSize(), headerSize)
	}
}

func TestAllocOldGenerationFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.YoungSize = 1024

	h, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	// Larger than the entire young arena, so it must land in the old
	// generation directly.
	big, ok := h.AllocArray(200)
	if !ok {
		t.Fatal("AllocArray(200) failed")
	}

	hd, ok := h.headerAt(big.addr)
	if !ok {
		t.Fatal("big array has no readable header")
	}
	if hd.isYoung() {
		t.Error("oversized allocation landed in the young generation")
	}
	if h.old.used() == 0 {
		t.Error("old arena reports no usage after fallback")
	}
	if big.Len() != 200 {
		t.Errorf("Len() = %d, want 200", big.Len())
	}
}

func TestAllocStringCheckedOOM(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHeapSize = 16 << 20
	cfg.YoungSize = 1 << 20
	cfg.OldSize = 15 << 20

	h, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	// 512 KiB payloads: one fits the young arena, the rest spill into
	// the old one. Nothing is rooted, but the arenas never reuse
	// memory, so the heap fills up regardless.
	text := strings.Repeat("a", 512<<10)
	allocated := 0
	for {
		_, err := h.AllocStringChecked(text)
		if err != nil {
			var oom *OOMError
			if !errors.As(err, &oom) {
				t.Fatalf("error = %v, want *OOMError", err)
			}
			if oom.RequestedBytes != headerSize+stringPayloadHeader+len(text) {
				t.Errorf("RequestedBytes = %d, want %d", oom.RequestedBytes, headerSize+stringPayloadHeader+len(text))
			}
			if oom.MaxHeapSize != 16<<20 {
				t.Errorf("MaxHeapSize = %d, want %d", oom.MaxHeapSize, 16<<20)
			}
			if oom.HeapStats.MajorGCCount == 0 {
				t.Error("no major GC attempted before reporting OOM")
			}
			break
		}
		allocated++
		if allocated > 100 {
			t.Fatal("heap never filled")
		}
	}

	// One young slot plus 29 old slots of 524304 bytes each.
	if allocated != 30 {
		t.Errorf("allocated %d strings before OOM, want 30", allocated)
	}
}

func TestAllocStringCheckedOverBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHeapSize = 16 << 20
	cfg.YoungSize = 1 << 20
	cfg.OldSize = 15 << 20

	h, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	// A single request bigger than the whole heap fails up front, after
	// one emergency major collection.
	_, err = h.AllocStringChecked(strings.Repeat("b", 20<<20))
	var oom *OOMError
	if !errors.As(err, &oom) {
		t.Fatalf("error = %v, want *OOMError", err)
	}
	if oom.CurrentHeapUsed != 0 {
		t.Errorf("CurrentHeapUsed = %d, want 0", oom.CurrentHeapUsed)
	}
	if oom.HeapStats.MajorGCCount != 1 {
		t.Errorf("MajorGCCount = %d, want 1", oom.HeapStats.MajorGCCount)
	}
}

func TestOOMErrorMessage(t *testing.T) {
	err := &OOMError{
		RequestedBytes:  1024,
		AvailableBytes:  100,
		MaxHeapSize:     4096,
		CurrentHeapUsed: 3996,
		HeapStats:       Stats{MajorGCCount: 3},
	}

	want := "heap out of memory: requested 1024 bytes, available 100 bytes (heap: 3996/4096 bytes, 3 major GCs performed)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestAllocCheckedInvalidSize(t *testing.T) {
	h, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	bad := rawObject{typ: TypeObject}
	if _, err := h.AllocChecked(negativeSizeObject{bad}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("AllocChecked error = %v, want ErrInvalidSize", err)
	}
	if _, ok := h.Alloc(negativeSizeObject{bad}); ok {
		t.Error("Alloc succeeded with a negative payload size")
	}
}

type negativeSizeObject struct{ rawObject }

func (negativeSizeObject) PayloadSize() int { return -1 }

func TestAllocCheckedOversizePayload(t *testing.T) {
	h, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Release()

	if _, ok := h.Alloc(oversizeObject{}); ok {
		t.Error("Alloc accepted an object larger than the allocation cap")
	}

	var oom *OOMError
	_, err = h.AllocChecked(oversizeObject{})
	if !errors.As(err, &oom) {
		t.Fatalf("AllocChecked error = %v, want *OOMError", err)
	}
	if oom.RequestedBytes != math.MaxInt {
		t.Errorf("RequestedBytes = %d, want %d", oom.RequestedBytes, math.MaxInt)
	}
}

type oversizeObject struct{ rawObject }

func (oversizeObject) PayloadSize() int { return math.MaxInt }

func TestHashString(t *testing.T) {
	if hashString("") != 0 {
		t.Errorf("hashString(\"\") = %#x, want 0", hashString(""))
	}
	if hashString("a") != 'a' {
		t.Errorf("hashString(\"a\") = %#x, want %#x", hashString("a"), 'a')
	}
	if hashString("ab") != 31*'a'+'b' {
		t.Errorf("hashString(\"ab\") = %#x, want %#x", hashString("ab"), 31*'a'+'b')
	}
	if hashString("hello") == hashString("world") {
		t.Error("hashString collides on hello/world")
	}
}

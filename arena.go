package gcheap

// Addr is a stable virtual address of a byte inside a Heap. Objects never
// move, so an Addr stays valid until the heap is released. The zero Addr
// is the null address and never refers to an object.
type Addr uint64

const (
	// heapBase is the first virtual address handed out. Keeping it off
	// zero preserves Addr(0) as the null address.
	heapBase Addr = 16

	// objectAlign is the alignment of every object header.
	objectAlign = 8

	// arenaAlign is the alignment of each generation's base address.
	arenaAlign = 16
)

// arena is a fixed-capacity bump allocator over a private byte region
// addressed as [base, end). The cursor only moves forward: collection is
// bookkeeping-only and never returns bytes to the arena, so used() is
// monotone for the arena's lifetime.
type arena struct {
	base   Addr
	buf    []byte // backing memory for [base, end)
	cursor Addr   // next allocation address
	end    Addr
}

// newArena reserves size bytes of backing memory addressed from base.
func newArena(base Addr, size int) *arena {
	return &arena{
		base:   base,
		buf:    make([]byte, size),
		cursor: base,
		end:    base + Addr(size),
	}
}

// allocate carves size bytes aligned to align out of the region and
// returns the block's address. It reports false when the aligned block
// would pass end; the cursor does not move in that case.
func (a *arena) allocate(size, align int) (Addr, bool) {
	if a.buf == nil {
		panic("gcheap: use after Release()")
	}
	if size <= 0 {
		return 0, false
	}
	start := alignAddr(a.cursor, Addr(align))
	if start+Addr(size) > a.end {
		return 0, false
	}
	a.cursor = start + Addr(size)
	return start, true
}

// used returns the bytes consumed from the region, alignment padding
// included.
func (a *arena) used() int {
	if a.buf == nil {
		return 0
	}
	return int(a.cursor - a.base)
}

// available returns the bytes remaining in the region.
func (a *arena) available() int {
	if a.buf == nil {
		return 0
	}
	return int(a.end - a.cursor)
}

// size returns the region's total capacity.
func (a *arena) size() int {
	return int(a.end - a.base)
}

// contains reports whether addr falls inside the region's address range.
func (a *arena) contains(addr Addr) bool {
	return addr >= a.base && addr < a.end
}

// bytes returns the n-byte window starting at addr. It reports false when
// the window is not fully inside the allocated part of the region.
func (a *arena) bytes(addr Addr, n int) ([]byte, bool) {
	if a.buf == nil || n < 0 || addr < a.base || addr > a.end || addr+Addr(n) > a.cursor {
		return nil, false
	}
	off := int(addr - a.base)
	return a.buf[off : off+n], true
}

// release drops the backing memory and makes the arena unusable.
func (a *arena) release() {
	a.buf = nil
}

// alignAddr rounds addr up to a multiple of align, a power of two.
func alignAddr(addr, align Addr) Addr {
	mask := align - 1
	return (addr + mask) & ^mask
}

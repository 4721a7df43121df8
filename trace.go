package gcheap

import "encoding/binary"

// tracer enumerates the heap references inside one object's payload.
// Implementations call visit with the payload address of every child.
type tracer interface {
	trace(payload []byte, visit func(child Addr))
}

// leafTracer is for objects holding no traceable references. Strings
// qualify by layout. Objects, functions, and closures have no traced
// layout yet, so a value reachable only through one of them can be
// collected early; callers keep such values rooted.
type leafTracer struct{}

func (leafTracer) trace(payload []byte, visit func(Addr)) {}

// arrayTracer walks an array's value slots and visits every heap
// reference stored in them.
type arrayTracer struct{}

func (arrayTracer) trace(payload []byte, visit func(Addr)) {
	if len(payload) < arrayPayloadHeader {
		return
	}
	count := int(binary.LittleEndian.Uint32(payload[0:4]))
	for i := 0; i < count; i++ {
		off := arrayPayloadHeader + i*arraySlotSize
		if off+arraySlotSize > len(payload) {
			return
		}
		v := ValueFromBits(binary.LittleEndian.Uint64(payload[off : off+arraySlotSize]))
		if addr, ok := v.refAddr(); ok {
			visit(addr)
		}
	}
}

// tracerFor selects the tracer for an object type. Unknown types trace as
// leaves.
func tracerFor(typ ObjectType) tracer {
	switch typ {
	case TypeArray:
		return arrayTracer{}
	default:
		return leafTracer{}
	}
}

package gcheap

import "encoding/binary"

// ObjectType tags the payload layout of a heap object. Arrays are the only
// container the collector traces into; every other type is a leaf.
type ObjectType uint8

const (
	TypeString ObjectType = iota
	TypeObject
	TypeArray
	TypeFunction
	TypeClosure
)

// String returns the type's name for diagnostics.
func (t ObjectType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	case TypeFunction:
		return "function"
	case TypeClosure:
		return "closure"
	}
	return "unknown"
}

// Color is an object's tricolor marking state. Colors are only meaningful
// inside a collection; every cycle ends by resetting live objects to white.
type Color uint8

const (
	ColorWhite Color = iota // unreached
	ColorGray               // reached, not yet scanned
	ColorBlack              // scanned, children marked
)

// Generation byte values stored in headers.
const (
	genYoung uint8 = 0
	genOld   uint8 = 1
)

// headerSize is the fixed header preceding every object payload.
const headerSize = 8

// header is a view over an object's header bytes:
//
//	offset 0  size  uint32  total allocation size, header included
//	offset 4  type  uint8
//	offset 5  gen   uint8   0 young, 1 old
//	offset 6  color uint8
//	offset 7  reserved
type header struct {
	b []byte
}

// init writes a fresh white header.
func (h header) init(size int, typ ObjectType, gen uint8) {
	binary.LittleEndian.PutUint32(h.b[0:4], uint32(size))
	h.b[4] = byte(typ)
	h.b[5] = gen
	h.b[6] = byte(ColorWhite)
	h.b[7] = 0
}

// totalSize returns the allocation size recorded in the header, header
// bytes included.
func (h header) totalSize() int {
	return int(binary.LittleEndian.Uint32(h.b[0:4]))
}

func (h header) objectType() ObjectType {
	return ObjectType(h.b[4])
}

func (h header) isYoung() bool {
	return h.b[5] == genYoung
}

func (h header) color() Color {
	return Color(h.b[6])
}

func (h header) setColor(c Color) {
	h.b[6] = byte(c)
}

// payloadAddrFor returns the payload address of the object whose header
// sits at addr. Tagged values and typed refs carry payload addresses; the
// collector works in header addresses.
func payloadAddrFor(addr Addr) Addr {
	return addr + headerSize
}

// headerAddrForPayload is the inverse of payloadAddrFor. It is the only
// place the package derives a header address from a payload address.
func headerAddrForPayload(addr Addr) Addr {
	return addr - headerSize
}

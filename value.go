package gcheap

import "math"

// Value is a 64-bit NaN-boxed runtime scalar. Ordinary float64 bit
// patterns represent numbers; the negative quiet-NaN space carries tagged
// payloads:
//
//	0xFFF8  heap reference (object type in bits 44-47, payload address in bits 0-43)
//	0xFFF9  32-bit integer
//	0xFFFA  boolean
//	0xFFFB  null
//	0xFFFC  undefined
//	0xFFFD  symbol (32-bit id)
//
// The zero Value is the number 0. Heap array slots start out as Undefined.
type Value struct {
	bits uint64
}

const (
	tagMask     uint64 = 0xFFFF_0000_0000_0000
	payloadMask uint64 = 0x0000_FFFF_FFFF_FFFF

	tagRef       uint64 = 0xFFF8_0000_0000_0000
	tagInteger   uint64 = 0xFFF9_0000_0000_0000
	tagBoolean   uint64 = 0xFFFA_0000_0000_0000
	tagNull      uint64 = 0xFFFB_0000_0000_0000
	tagUndefined uint64 = 0xFFFC_0000_0000_0000
	tagSymbol    uint64 = 0xFFFD_0000_0000_0000

	// Heap references devote the payload's top nibble to the object type
	// and the low 44 bits to the payload address (16 TiB of range, well
	// past the largest configurable heap).
	refTypeShift        = 44
	refTypeMask  uint64 = 0xF << refTypeShift
	refAddrMask  uint64 = 1<<refTypeShift - 1
)

// Float64Value boxes a float. NaN inputs are canonicalized to the positive
// quiet NaN so that arithmetic NaN bit patterns can never alias a tag.
func Float64Value(f float64) Value {
	if math.IsNaN(f) {
		return Value{bits: math.Float64bits(math.NaN())}
	}
	return Value{bits: math.Float64bits(f)}
}

// IntValue boxes a 32-bit integer without going through float64.
func IntValue(i int32) Value {
	return Value{bits: tagInteger | uint64(uint32(i))}
}

// BoolValue boxes a boolean.
func BoolValue(b bool) Value {
	if b {
		return Value{bits: tagBoolean | 1}
	}
	return Value{bits: tagBoolean}
}

// Null returns the null value.
func Null() Value {
	return Value{bits: tagNull}
}

// Undefined returns the undefined value.
func Undefined() Value {
	return Value{bits: tagUndefined}
}

// SymbolValue boxes a symbol id.
func SymbolValue(id uint32) Value {
	return Value{bits: tagSymbol | uint64(id)}
}

// refValue boxes a heap reference to the payload at addr.
func refValue(typ ObjectType, addr Addr) Value {
	return Value{bits: tagRef | uint64(typ)<<refTypeShift | uint64(addr)&refAddrMask}
}

// IsNumber reports whether v is an ordinary float64. Boxed integers are
// not numbers in this sense; use Float64 to read both.
func (v Value) IsNumber() bool {
	return v.bits < tagRef
}

// IsInt reports whether v is a boxed 32-bit integer.
func (v Value) IsInt() bool {
	return v.bits&tagMask == tagInteger
}

// IsBool reports whether v is a boolean.
func (v Value) IsBool() bool {
	return v.bits&tagMask == tagBoolean
}

// IsNull reports whether v is null.
func (v Value) IsNull() bool {
	return v.bits == tagNull
}

// IsUndefined reports whether v is undefined.
func (v Value) IsUndefined() bool {
	return v.bits == tagUndefined
}

// IsNullish reports whether v is null or undefined.
func (v Value) IsNullish() bool {
	return v.IsNull() || v.IsUndefined()
}

// IsSymbol reports whether v is a symbol.
func (v Value) IsSymbol() bool {
	return v.bits&tagMask == tagSymbol
}

// IsRef reports whether v carries a heap reference of any object type.
func (v Value) IsRef() bool {
	return v.bits&tagMask == tagRef
}

// IsString reports whether v references a heap string.
func (v Value) IsString() bool {
	return v.isRefOf(TypeString)
}

// IsObject reports whether v references a heap object.
func (v Value) IsObject() bool {
	return v.isRefOf(TypeObject)
}

// IsArray reports whether v references a heap array.
func (v Value) IsArray() bool {
	return v.isRefOf(TypeArray)
}

// IsFunction reports whether v references a heap function.
func (v Value) IsFunction() bool {
	return v.isRefOf(TypeFunction)
}

// IsClosure reports whether v references a heap closure.
func (v Value) IsClosure() bool {
	return v.isRefOf(TypeClosure)
}

func (v Value) isRefOf(typ ObjectType) bool {
	return v.IsRef() && ObjectType((v.bits&refTypeMask)>>refTypeShift) == typ
}

// Float64 returns the numeric value of a number or boxed integer.
func (v Value) Float64() (float64, bool) {
	if v.IsNumber() {
		return math.Float64frombits(v.bits), true
	}
	if i, ok := v.Int32(); ok {
		return float64(i), true
	}
	return 0, false
}

// Int32 returns the boxed integer carried by v.
func (v Value) Int32() (int32, bool) {
	if !v.IsInt() {
		return 0, false
	}
	return int32(uint32(v.bits & payloadMask)), true
}

// Bool returns the boolean carried by v.
func (v Value) Bool() (bool, bool) {
	if !v.IsBool() {
		return false, false
	}
	return v.bits&1 != 0, true
}

// Symbol returns the symbol id carried by v.
func (v Value) Symbol() (uint32, bool) {
	if !v.IsSymbol() {
		return 0, false
	}
	return uint32(v.bits & payloadMask), true
}

// refAddr returns the payload address carried by a heap reference.
func (v Value) refAddr() (Addr, bool) {
	if !v.IsRef() {
		return 0, false
	}
	return Addr(v.bits & refAddrMask), true
}

// refType returns the object type carried by a heap reference.
func (v Value) refType() (ObjectType, bool) {
	if !v.IsRef() {
		return 0, false
	}
	return ObjectType((v.bits & refTypeMask) >> refTypeShift), true
}

// Bits returns the raw encoding, the form stored in heap array slots.
func (v Value) Bits() uint64 {
	return v.bits
}

// ValueFromBits reconstructs a Value from a Bits round-trip.
func ValueFromBits(bits uint64) Value {
	return Value{bits: bits}
}

package tinywasm

import "math"

// ValueType is one of the four numeric types in the WebAssembly 1.0 MVP.
type ValueType byte

// Value type tags, matching the binary encoding used for locals, globals,
// and function signatures.
const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
)

// String returns the WebAssembly text-format name of the type.
func (t ValueType) String() string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	default:
		return "unknown"
	}
}

// byteWidth is the in-memory and on-the-wire width of the type: 4 bytes
// for i32/f32, 8 for i64/f64.
func (t ValueType) byteWidth() int {
	switch t {
	case ValueTypeI32, ValueTypeF32:
		return 4
	default:
		return 8
	}
}

// Value is a tagged numeric value: exactly one of the four MVP value
// types, carried as its bit pattern. i32/i64 are stored as their raw
// two's-complement bits; f32/f64 as their IEEE-754 bit patterns, so all
// four types are convertible to/from uint64 for a uniform operand stack.
type Value struct {
	Type ValueType
	bits uint64
}

// I32 constructs a Value of type i32.
func I32(v int32) Value { return Value{Type: ValueTypeI32, bits: uint64(uint32(v))} }

// I64 constructs a Value of type i64.
func I64(v int64) Value { return Value{Type: ValueTypeI64, bits: uint64(v)} }

// F32 constructs a Value of type f32.
func F32(v float32) Value { return Value{Type: ValueTypeF32, bits: uint64(math.Float32bits(v))} }

// F64 constructs a Value of type f64.
func F64(v float64) Value { return Value{Type: ValueTypeF64, bits: math.Float64bits(v)} }

// I32 returns the value interpreted as a signed 32-bit integer.
func (v Value) I32() int32 { return int32(uint32(v.bits)) }

// U32 returns the value interpreted as an unsigned 32-bit integer.
func (v Value) U32() uint32 { return uint32(v.bits) }

// I64 returns the value interpreted as a signed 64-bit integer.
func (v Value) I64() int64 { return int64(v.bits) }

// U64 returns the value interpreted as an unsigned 64-bit integer.
func (v Value) U64() uint64 { return v.bits }

// F32 returns the value interpreted as an IEEE-754 binary32 float.
func (v Value) F32() float32 { return math.Float32frombits(uint32(v.bits)) }

// F64 returns the value interpreted as an IEEE-754 binary64 float.
func (v Value) F64() float64 { return math.Float64frombits(v.bits) }

func zeroValue(t ValueType) Value {
	switch t {
	case ValueTypeI32:
		return I32(0)
	case ValueTypeI64:
		return I64(0)
	case ValueTypeF32:
		return F32(0)
	case ValueTypeF64:
		return F64(0)
	default:
		panic("tinywasm: invalid value type")
	}
}

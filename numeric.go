package tinywasm

import (
	"math"
	"math/bits"
)

func boolValue(b bool) Value {
	if b {
		return I32(1)
	}
	return I32(0)
}

// execNumeric runs every instruction in the const/comparison/arithmetic/
// conversion family against the top of s's value stack. Control, memory,
// call, and variable-access instructions are handled by the interpreter
// directly; this function only ever sees the "plain" numeric opcodes
// identified by isPlainNumericOp and the four const instructions.
func execNumeric(op Opcode, instr *Instruction, s *execState) error {
	switch op {
	case OpI32Const:
		s.push(I32(instr.I32Const))
		return nil
	case OpI64Const:
		s.push(I64(instr.I64Const))
		return nil
	case OpF32Const:
		s.push(F32(instr.F32Const))
		return nil
	case OpF64Const:
		s.push(F64(instr.F64Const))
		return nil
	}

	switch op {
	case OpI32Eqz:
		a := s.pop()
		s.push(boolValue(a.I32() == 0))
	case OpI32Eq, OpI32Ne, OpI32LtS, OpI32LtU, OpI32GtS, OpI32GtU, OpI32LeS, OpI32LeU, OpI32GeS, OpI32GeU:
		b, a := s.pop(), s.pop()
		s.push(boolValue(i32Compare(op, a.I32(), a.U32(), b.I32(), b.U32())))
	case OpI64Eqz:
		a := s.pop()
		s.push(boolValue(a.I64() == 0))
	case OpI64Eq, OpI64Ne, OpI64LtS, OpI64LtU, OpI64GtS, OpI64GtU, OpI64LeS, OpI64LeU, OpI64GeS, OpI64GeU:
		b, a := s.pop(), s.pop()
		s.push(boolValue(i64Compare(op, a.I64(), a.U64(), b.I64(), b.U64())))
	case OpF32Eq, OpF32Ne, OpF32Lt, OpF32Gt, OpF32Le, OpF32Ge:
		b, a := s.pop(), s.pop()
		s.push(boolValue(floatCompare(op, float64(a.F32()), float64(b.F32()))))
	case OpF64Eq, OpF64Ne, OpF64Lt, OpF64Gt, OpF64Le, OpF64Ge:
		b, a := s.pop(), s.pop()
		s.push(boolValue(floatCompare(op, a.F64(), b.F64())))

	case OpI32Clz:
		a := s.pop()
		s.push(I32(int32(bits.LeadingZeros32(a.U32()))))
	case OpI32Ctz:
		a := s.pop()
		s.push(I32(int32(bits.TrailingZeros32(a.U32()))))
	case OpI32Popcnt:
		a := s.pop()
		s.push(I32(int32(bits.OnesCount32(a.U32()))))
	case OpI32Add:
		b, a := s.pop(), s.pop()
		s.push(I32(int32(a.U32() + b.U32())))
	case OpI32Sub:
		b, a := s.pop(), s.pop()
		s.push(I32(int32(a.U32() - b.U32())))
	case OpI32Mul:
		b, a := s.pop(), s.pop()
		s.push(I32(int32(a.U32() * b.U32())))
	case OpI32DivS:
		b, a := s.pop(), s.pop()
		if b.I32() == 0 {
			return ErrIntegerDivideByZero
		}
		if a.I32() == math.MinInt32 && b.I32() == -1 {
			return ErrIntegerOverflow
		}
		s.push(I32(a.I32() / b.I32()))
	case OpI32DivU:
		b, a := s.pop(), s.pop()
		if b.U32() == 0 {
			return ErrIntegerDivideByZero
		}
		s.push(I32(int32(a.U32() / b.U32())))
	case OpI32RemS:
		b, a := s.pop(), s.pop()
		if b.I32() == 0 {
			return ErrIntegerDivideByZero
		}
		if b.I32() == -1 {
			s.push(I32(0))
		} else {
			s.push(I32(a.I32() % b.I32()))
		}
	case OpI32RemU:
		b, a := s.pop(), s.pop()
		if b.U32() == 0 {
			return ErrIntegerDivideByZero
		}
		s.push(I32(int32(a.U32() % b.U32())))
	case OpI32And:
		b, a := s.pop(), s.pop()
		s.push(I32(int32(a.U32() & b.U32())))
	case OpI32Or:
		b, a := s.pop(), s.pop()
		s.push(I32(int32(a.U32() | b.U32())))
	case OpI32Xor:
		b, a := s.pop(), s.pop()
		s.push(I32(int32(a.U32() ^ b.U32())))
	case OpI32Shl:
		b, a := s.pop(), s.pop()
		s.push(I32(int32(a.U32() << (b.U32() % 32))))
	case OpI32ShrS:
		b, a := s.pop(), s.pop()
		s.push(I32(a.I32() >> (b.U32() % 32)))
	case OpI32ShrU:
		b, a := s.pop(), s.pop()
		s.push(I32(int32(a.U32() >> (b.U32() % 32))))
	case OpI32Rotl:
		b, a := s.pop(), s.pop()
		s.push(I32(int32(bits.RotateLeft32(a.U32(), int(b.U32()%32)))))
	case OpI32Rotr:
		b, a := s.pop(), s.pop()
		s.push(I32(int32(bits.RotateLeft32(a.U32(), -int(b.U32()%32)))))

	case OpI64Clz:
		a := s.pop()
		s.push(I64(int64(bits.LeadingZeros64(a.U64()))))
	case OpI64Ctz:
		a := s.pop()
		s.push(I64(int64(bits.TrailingZeros64(a.U64()))))
	case OpI64Popcnt:
		a := s.pop()
		s.push(I64(int64(bits.OnesCount64(a.U64()))))
	case OpI64Add:
		b, a := s.pop(), s.pop()
		s.push(I64(int64(a.U64() + b.U64())))
	case OpI64Sub:
		b, a := s.pop(), s.pop()
		s.push(I64(int64(a.U64() - b.U64())))
	case OpI64Mul:
		b, a := s.pop(), s.pop()
		s.push(I64(int64(a.U64() * b.U64())))
	case OpI64DivS:
		b, a := s.pop(), s.pop()
		if b.I64() == 0 {
			return ErrIntegerDivideByZero
		}
		if a.I64() == math.MinInt64 && b.I64() == -1 {
			return ErrIntegerOverflow
		}
		s.push(I64(a.I64() / b.I64()))
	case OpI64DivU:
		b, a := s.pop(), s.pop()
		if b.U64() == 0 {
			return ErrIntegerDivideByZero
		}
		s.push(I64(int64(a.U64() / b.U64())))
	case OpI64RemS:
		b, a := s.pop(), s.pop()
		if b.I64() == 0 {
			return ErrIntegerDivideByZero
		}
		if b.I64() == -1 {
			s.push(I64(0))
		} else {
			s.push(I64(a.I64() % b.I64()))
		}
	case OpI64RemU:
		b, a := s.pop(), s.pop()
		if b.U64() == 0 {
			return ErrIntegerDivideByZero
		}
		s.push(I64(int64(a.U64() % b.U64())))
	case OpI64And:
		b, a := s.pop(), s.pop()
		s.push(I64(int64(a.U64() & b.U64())))
	case OpI64Or:
		b, a := s.pop(), s.pop()
		s.push(I64(int64(a.U64() | b.U64())))
	case OpI64Xor:
		b, a := s.pop(), s.pop()
		s.push(I64(int64(a.U64() ^ b.U64())))
	case OpI64Shl:
		b, a := s.pop(), s.pop()
		s.push(I64(int64(a.U64() << (b.U64() % 64))))
	case OpI64ShrS:
		b, a := s.pop(), s.pop()
		s.push(I64(a.I64() >> (b.U64() % 64)))
	case OpI64ShrU:
		b, a := s.pop(), s.pop()
		s.push(I64(int64(a.U64() >> (b.U64() % 64))))
	case OpI64Rotl:
		b, a := s.pop(), s.pop()
		s.push(I64(int64(bits.RotateLeft64(a.U64(), int(b.U64()%64)))))
	case OpI64Rotr:
		b, a := s.pop(), s.pop()
		s.push(I64(int64(bits.RotateLeft64(a.U64(), -int(b.U64()%64)))))

	case OpF32Abs:
		a := s.pop()
		s.push(F32(float32(math.Abs(float64(a.F32())))))
	case OpF32Neg:
		a := s.pop()
		s.push(F32(-a.F32()))
	case OpF32Ceil:
		a := s.pop()
		s.push(F32(float32(math.Ceil(float64(a.F32())))))
	case OpF32Floor:
		a := s.pop()
		s.push(F32(float32(math.Floor(float64(a.F32())))))
	case OpF32Trunc:
		a := s.pop()
		s.push(F32(float32(math.Trunc(float64(a.F32())))))
	case OpF32Nearest:
		a := s.pop()
		s.push(F32(float32(math.RoundToEven(float64(a.F32())))))
	case OpF32Sqrt:
		a := s.pop()
		s.push(F32(float32(math.Sqrt(float64(a.F32())))))
	case OpF32Add:
		b, a := s.pop(), s.pop()
		s.push(F32(a.F32() + b.F32()))
	case OpF32Sub:
		b, a := s.pop(), s.pop()
		s.push(F32(a.F32() - b.F32()))
	case OpF32Mul:
		b, a := s.pop(), s.pop()
		s.push(F32(a.F32() * b.F32()))
	case OpF32Div:
		b, a := s.pop(), s.pop()
		s.push(F32(a.F32() / b.F32()))
	case OpF32Min:
		b, a := s.pop(), s.pop()
		s.push(F32(float32(wasmFMin(float64(a.F32()), float64(b.F32())))))
	case OpF32Max:
		b, a := s.pop(), s.pop()
		s.push(F32(float32(wasmFMax(float64(a.F32()), float64(b.F32())))))
	case OpF32Copysign:
		b, a := s.pop(), s.pop()
		s.push(F32(float32(math.Copysign(float64(a.F32()), float64(b.F32())))))

	case OpF64Abs:
		a := s.pop()
		s.push(F64(math.Abs(a.F64())))
	case OpF64Neg:
		a := s.pop()
		s.push(F64(-a.F64()))
	case OpF64Ceil:
		a := s.pop()
		s.push(F64(math.Ceil(a.F64())))
	case OpF64Floor:
		a := s.pop()
		s.push(F64(math.Floor(a.F64())))
	case OpF64Trunc:
		a := s.pop()
		s.push(F64(math.Trunc(a.F64())))
	case OpF64Nearest:
		a := s.pop()
		s.push(F64(math.RoundToEven(a.F64())))
	case OpF64Sqrt:
		a := s.pop()
		s.push(F64(math.Sqrt(a.F64())))
	case OpF64Add:
		b, a := s.pop(), s.pop()
		s.push(F64(a.F64() + b.F64()))
	case OpF64Sub:
		b, a := s.pop(), s.pop()
		s.push(F64(a.F64() - b.F64()))
	case OpF64Mul:
		b, a := s.pop(), s.pop()
		s.push(F64(a.F64() * b.F64()))
	case OpF64Div:
		b, a := s.pop(), s.pop()
		s.push(F64(a.F64() / b.F64()))
	case OpF64Min:
		b, a := s.pop(), s.pop()
		s.push(F64(wasmFMin(a.F64(), b.F64())))
	case OpF64Max:
		b, a := s.pop(), s.pop()
		s.push(F64(wasmFMax(a.F64(), b.F64())))
	case OpF64Copysign:
		b, a := s.pop(), s.pop()
		s.push(F64(math.Copysign(a.F64(), b.F64())))

	case OpI32WrapI64:
		a := s.pop()
		s.push(I32(int32(uint32(a.U64()))))
	case OpI32TruncF32S:
		a := s.pop()
		v, err := truncToI64(float64(a.F32()), -2147483648, 2147483648, false)
		if err != nil {
			return err
		}
		s.push(I32(int32(v)))
	case OpI32TruncF32U:
		a := s.pop()
		v, err := truncToI64(float64(a.F32()), 0, 4294967296, true)
		if err != nil {
			return err
		}
		s.push(I32(int32(uint32(v))))
	case OpI32TruncF64S:
		a := s.pop()
		v, err := truncToI64(a.F64(), -2147483648, 2147483648, false)
		if err != nil {
			return err
		}
		s.push(I32(int32(v)))
	case OpI32TruncF64U:
		a := s.pop()
		v, err := truncToI64(a.F64(), 0, 4294967296, true)
		if err != nil {
			return err
		}
		s.push(I32(int32(uint32(v))))
	case OpI64ExtendI32S:
		a := s.pop()
		s.push(I64(int64(a.I32())))
	case OpI64ExtendI32U:
		a := s.pop()
		s.push(I64(int64(a.U32())))
	case OpI64TruncF32S:
		a := s.pop()
		v, err := truncToI64Exact(float64(a.F32()))
		if err != nil {
			return err
		}
		s.push(I64(v))
	case OpI64TruncF32U:
		a := s.pop()
		v, err := truncToU64(float64(a.F32()))
		if err != nil {
			return err
		}
		s.push(I64(int64(v)))
	case OpI64TruncF64S:
		a := s.pop()
		v, err := truncToI64Exact(a.F64())
		if err != nil {
			return err
		}
		s.push(I64(v))
	case OpI64TruncF64U:
		a := s.pop()
		v, err := truncToU64(a.F64())
		if err != nil {
			return err
		}
		s.push(I64(int64(v)))
	case OpF32ConvertI32S:
		a := s.pop()
		s.push(F32(float32(a.I32())))
	case OpF32ConvertI32U:
		a := s.pop()
		s.push(F32(float32(a.U32())))
	case OpF32ConvertI64S:
		a := s.pop()
		s.push(F32(float32(a.I64())))
	case OpF32ConvertI64U:
		a := s.pop()
		s.push(F32(float32(a.U64())))
	case OpF32DemoteF64:
		a := s.pop()
		s.push(F32(float32(a.F64())))
	case OpF64ConvertI32S:
		a := s.pop()
		s.push(F64(float64(a.I32())))
	case OpF64ConvertI32U:
		a := s.pop()
		s.push(F64(float64(a.U32())))
	case OpF64ConvertI64S:
		a := s.pop()
		s.push(F64(float64(a.I64())))
	case OpF64ConvertI64U:
		a := s.pop()
		s.push(F64(float64(a.U64())))
	case OpF64PromoteF32:
		a := s.pop()
		s.push(F64(float64(a.F32())))
	case OpI32ReinterpretF32:
		a := s.pop()
		s.push(I32(int32(math.Float32bits(a.F32()))))
	case OpI64ReinterpretF64:
		a := s.pop()
		s.push(I64(int64(math.Float64bits(a.F64()))))
	case OpF32ReinterpretI32:
		a := s.pop()
		s.push(F32(math.Float32frombits(a.U32())))
	case OpF64ReinterpretI64:
		a := s.pop()
		s.push(F64(math.Float64frombits(a.U64())))

	default:
		return ErrInvalidOpcode
	}
	return nil
}

func i32Compare(op Opcode, as int32, au uint32, bs int32, bu uint32) bool {
	switch op {
	case OpI32Eq:
		return as == bs
	case OpI32Ne:
		return as != bs
	case OpI32LtS:
		return as < bs
	case OpI32LtU:
		return au < bu
	case OpI32GtS:
		return as > bs
	case OpI32GtU:
		return au > bu
	case OpI32LeS:
		return as <= bs
	case OpI32LeU:
		return au <= bu
	case OpI32GeS:
		return as >= bs
	case OpI32GeU:
		return au >= bu
	}
	return false
}

func i64Compare(op Opcode, as int64, au uint64, bs int64, bu uint64) bool {
	switch op {
	case OpI64Eq:
		return as == bs
	case OpI64Ne:
		return as != bs
	case OpI64LtS:
		return as < bs
	case OpI64LtU:
		return au < bu
	case OpI64GtS:
		return as > bs
	case OpI64GtU:
		return au > bu
	case OpI64LeS:
		return as <= bs
	case OpI64LeU:
		return au <= bu
	case OpI64GeS:
		return as >= bs
	case OpI64GeU:
		return au >= bu
	}
	return false
}

func floatCompare(op Opcode, a, b float64) bool {
	switch op {
	case OpF32Eq, OpF64Eq:
		return a == b
	case OpF32Ne, OpF64Ne:
		return a != b
	case OpF32Lt, OpF64Lt:
		return a < b
	case OpF32Gt, OpF64Gt:
		return a > b
	case OpF32Le, OpF64Le:
		return a <= b
	case OpF32Ge, OpF64Ge:
		return a >= b
	}
	return false
}

// wasmFMin/wasmFMax implement the WebAssembly min/max rules, which differ
// from math.Min/Max on signed zero: min(-0, 0) is -0, max(-0, 0) is 0.
func wasmFMin(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a == 0 && b == 0 {
		if math.Signbit(a) {
			return a
		}
		return b
	}
	return math.Min(a, b)
}

func wasmFMax(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a == 0 && b == 0 {
		if math.Signbit(a) {
			return b
		}
		return a
	}
	return math.Max(a, b)
}

// truncToI64 implements the *.trunc_f*_s/u family for results that fit in
// 32 bits: traps on NaN (ErrInvalidConversion) and on a truncated
// magnitude outside [lo, hi) (ErrIntegerOverflow).
func truncToI64(f float64, lo, hi float64, unsigned bool) (int64, error) {
	if math.IsNaN(f) {
		return 0, ErrInvalidConversion
	}
	t := math.Trunc(f)
	if t < lo || t >= hi {
		return 0, ErrIntegerOverflow
	}
	if unsigned {
		return int64(uint64(t)), nil
	}
	return int64(t), nil
}

// truncToI64Exact implements trunc_f*_s to i64, whose range doesn't fit
// cleanly in a float64 upper bound comparison (2^63 overflows back to
// MinInt64 on signed truncation), so the bound check compares against the
// float representations of the i64 range edges directly.
func truncToI64Exact(f float64) (int64, error) {
	if math.IsNaN(f) {
		return 0, ErrInvalidConversion
	}
	t := math.Trunc(f)
	if t < -9223372036854775808.0 || t >= 9223372036854775808.0 {
		return 0, ErrIntegerOverflow
	}
	return int64(t), nil
}

// truncToU64 implements trunc_f*_u to i64 (bit-reinterpreted as u64).
func truncToU64(f float64) (uint64, error) {
	if math.IsNaN(f) {
		return 0, ErrInvalidConversion
	}
	t := math.Trunc(f)
	if t < 0 || t >= 18446744073709551616.0 {
		return 0, ErrIntegerOverflow
	}
	return uint64(t), nil
}

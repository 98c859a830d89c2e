package tinywasm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState() *execState {
	return newExecState(func(n int) Vector[Value] { return NewHeapVector[Value](n) })
}

func TestExecNumeric_i32Add(t *testing.T) {
	s := newTestState()
	s.push(I32(2))
	s.push(I32(3))
	require.NoError(t, execNumeric(OpI32Add, &Instruction{Op: OpI32Add}, s))
	assert.Equal(t, int32(5), s.pop().I32())
}

func TestExecNumeric_i32DivByZeroTraps(t *testing.T) {
	s := newTestState()
	s.push(I32(1))
	s.push(I32(0))
	err := execNumeric(OpI32DivS, &Instruction{Op: OpI32DivS}, s)
	assert.ErrorIs(t, err, ErrIntegerDivideByZero)
}

func TestExecNumeric_i32DivOverflowTraps(t *testing.T) {
	s := newTestState()
	s.push(I32(math.MinInt32))
	s.push(I32(-1))
	err := execNumeric(OpI32DivS, &Instruction{Op: OpI32DivS}, s)
	assert.ErrorIs(t, err, ErrIntegerOverflow)
}

func TestExecNumeric_i32RemSByNegOneIsZero(t *testing.T) {
	s := newTestState()
	s.push(I32(math.MinInt32))
	s.push(I32(-1))
	require.NoError(t, execNumeric(OpI32RemS, &Instruction{Op: OpI32RemS}, s))
	assert.Equal(t, int32(0), s.pop().I32())
}

func TestExecNumeric_i32ShlModulo32(t *testing.T) {
	s := newTestState()
	s.push(I32(1))
	s.push(I32(33)) // shift amount wraps to 1
	require.NoError(t, execNumeric(OpI32Shl, &Instruction{Op: OpI32Shl}, s))
	assert.Equal(t, int32(2), s.pop().I32())
}

func TestExecNumeric_f32TruncNaNTraps(t *testing.T) {
	s := newTestState()
	s.push(F32(float32(math.NaN())))
	err := execNumeric(OpI32TruncF32S, &Instruction{Op: OpI32TruncF32S}, s)
	assert.ErrorIs(t, err, ErrInvalidConversion)
}

func TestExecNumeric_f32TruncOutOfRangeTraps(t *testing.T) {
	s := newTestState()
	s.push(F32(1e20))
	err := execNumeric(OpI32TruncF32S, &Instruction{Op: OpI32TruncF32S}, s)
	assert.ErrorIs(t, err, ErrIntegerOverflow)
}

func TestExecNumeric_i64WrapI32(t *testing.T) {
	s := newTestState()
	s.push(I64(0x1_0000_0001))
	require.NoError(t, execNumeric(OpI32WrapI64, &Instruction{Op: OpI32WrapI64}, s))
	assert.Equal(t, int32(1), s.pop().I32())
}

func TestExecNumeric_reinterpretRoundTrip(t *testing.T) {
	s := newTestState()
	s.push(F32(1.5))
	require.NoError(t, execNumeric(OpI32ReinterpretF32, &Instruction{Op: OpI32ReinterpretF32}, s))
	require.NoError(t, execNumeric(OpF32ReinterpretI32, &Instruction{Op: OpF32ReinterpretI32}, s))
	assert.Equal(t, float32(1.5), s.pop().F32())
}

func TestWasmFMinMax_signedZero(t *testing.T) {
	assert.True(t, math.Signbit(wasmFMin(0, math.Copysign(0, -1))))
	assert.False(t, math.Signbit(wasmFMax(0, math.Copysign(0, -1))))
}

func TestExecNumeric_comparisons(t *testing.T) {
	s := newTestState()
	s.push(I32(1))
	s.push(I32(2))
	require.NoError(t, execNumeric(OpI32LtS, &Instruction{Op: OpI32LtS}, s))
	assert.Equal(t, int32(1), s.pop().I32())
}

package tinywasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBlockType_empty(t *testing.T) {
	r := newReader([]byte{0x40})
	bt, err := decodeBlockType(r)
	require.NoError(t, err)
	assert.Equal(t, BlockTypeEmpty, bt.Kind)
}

func TestDecodeBlockType_value(t *testing.T) {
	r := newReader([]byte{0x7f})
	bt, err := decodeBlockType(r)
	require.NoError(t, err)
	assert.Equal(t, BlockTypeValue, bt.Kind)
	assert.Equal(t, ValueTypeI32, bt.ValueType)
}

func TestDecodeBlockType_typeIndex(t *testing.T) {
	r := newReader([]byte{0x05})
	bt, err := decodeBlockType(r)
	require.NoError(t, err)
	assert.Equal(t, BlockTypeFuncType, bt.Kind)
	assert.Equal(t, uint32(5), bt.TypeIndex)
}

func TestDecodeExpr_simpleConst(t *testing.T) {
	r := newReader([]byte{0x41, 0x2A, 0x0B}) // i32.const 42, end
	instrs, err := decodeExpr(r)
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	assert.Equal(t, OpI32Const, instrs[0].Op)
	assert.Equal(t, int32(42), instrs[0].I32Const)
}

func TestDecodeInstrBody_blockNesting(t *testing.T) {
	// block (result i32) i32.const 1 end, end
	r := newReader([]byte{0x02, 0x7f, 0x41, 0x01, 0x0B, 0x0B})
	instrs, err := decodeExpr(r)
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	assert.Equal(t, OpBlock, instrs[0].Op)
	require.Len(t, instrs[0].Then, 1)
	assert.Equal(t, OpI32Const, instrs[0].Then[0].Op)
}

func TestDecodeInstrBody_ifElse(t *testing.T) {
	// if (result i32) i32.const 1 else i32.const 2 end, end
	r := newReader([]byte{0x04, 0x7f, 0x41, 0x01, 0x05, 0x41, 0x02, 0x0B, 0x0B})
	instrs, err := decodeExpr(r)
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	assert.Equal(t, OpIf, instrs[0].Op)
	require.Len(t, instrs[0].Then, 1)
	require.Len(t, instrs[0].Else, 1)
	assert.Equal(t, int32(1), instrs[0].Then[0].I32Const)
	assert.Equal(t, int32(2), instrs[0].Else[0].I32Const)
}

func TestDecodeInstrBody_brTable(t *testing.T) {
	// br_table 0 1 2 (2 labels, default 2), end
	r := newReader([]byte{0x0E, 0x02, 0x00, 0x01, 0x02, 0x0B})
	instrs, err := decodeExpr(r)
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	assert.Equal(t, []uint32{0, 1}, instrs[0].Labels)
	assert.Equal(t, uint32(2), instrs[0].Default)
}

func TestDecodeInstrBody_memoryOp(t *testing.T) {
	// i32.load align=2 offset=4, end
	r := newReader([]byte{0x28, 0x02, 0x04, 0x0B})
	instrs, err := decodeExpr(r)
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	assert.Equal(t, uint32(2), instrs[0].Mem.Align)
	assert.Equal(t, uint32(4), instrs[0].Mem.Offset)
}

func TestDecodeInstrBody_invalidOpcode(t *testing.T) {
	r := newReader([]byte{0xFF, 0x0B})
	_, err := decodeExpr(r)
	assert.ErrorIs(t, err, ErrInvalidOpcode)
}

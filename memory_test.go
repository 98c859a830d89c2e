package tinywasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_growAndBounds(t *testing.T) {
	m := NewMemory(Limits{Min: 1}, nil)
	assert.Equal(t, uint32(1), m.Pages())

	prev := m.Grow(1)
	assert.Equal(t, int32(1), prev)
	assert.Equal(t, uint32(2), m.Pages())
}

func TestMemory_growBeyondMaxFails(t *testing.T) {
	max := uint32(1)
	m := NewMemory(Limits{Min: 1, Max: &max}, nil)
	assert.Equal(t, int32(-1), m.Grow(1))
}

func TestMemory_loadStoreRoundTrip(t *testing.T) {
	m := NewMemory(Limits{Min: 1}, nil)
	s := newTestState()
	s.push(I32(100))  // addr
	s.push(I32(0x2A)) // value
	require.NoError(t, execMemory(OpI32Store, &Instruction{Op: OpI32Store}, s, m))

	s.push(I32(100))
	require.NoError(t, execMemory(OpI32Load, &Instruction{Op: OpI32Load}, s, m))
	assert.Equal(t, int32(0x2A), s.pop().I32())
}

func TestMemory_outOfBoundsAtEndOfPage(t *testing.T) {
	m := NewMemory(Limits{Min: 1}, nil)
	s := newTestState()
	s.push(I32(int32(PageSize - 4)))
	require.NoError(t, execMemory(OpI32Load, &Instruction{Op: OpI32Load}, s, m))
	s.pop()

	s2 := newTestState()
	s2.push(I32(int32(PageSize)))
	err := execMemory(OpI32Load, &Instruction{Op: OpI32Load}, s2, m)
	assert.ErrorIs(t, err, ErrOutOfBoundsMemory)
}

func TestMemory_signExtendedLoads(t *testing.T) {
	m := NewMemory(Limits{Min: 1}, nil)
	buf := m.Bytes()
	buf[0] = 0xFF // -1 as i8

	s := newTestState()
	s.push(I32(0))
	require.NoError(t, execMemory(OpI32Load8S, &Instruction{Op: OpI32Load8S}, s, m))
	assert.Equal(t, int32(-1), s.pop().I32())

	s.push(I32(0))
	require.NoError(t, execMemory(OpI32Load8U, &Instruction{Op: OpI32Load8U}, s, m))
	assert.Equal(t, int32(255), s.pop().I32())
}

package tinywasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_readExact_noPartialConsumptionOnError(t *testing.T) {
	r := newReader([]byte{1, 2, 3})
	_, err := r.readExact(10)
	assert.ErrorIs(t, err, ErrEndOfBytes)
	assert.Equal(t, 0, r.pos)
}

func TestReader_peekUnread(t *testing.T) {
	r := newReader([]byte{0x40, 0x7f})
	b, ok := r.peekU8()
	require.True(t, ok)
	assert.Equal(t, byte(0x40), b)

	got, err := r.readU8()
	require.NoError(t, err)
	assert.Equal(t, byte(0x40), got)

	r.unreadU8()
	got2, err := r.readU8()
	require.NoError(t, err)
	assert.Equal(t, got, got2)
}

func TestReader_readName_rejectsInvalidUTF8(t *testing.T) {
	r := newReader(append([]byte{0x02}, 0xff, 0xfe))
	_, err := r.readName()
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestReader_readLimits(t *testing.T) {
	r := newReader([]byte{0x01, 0x02, 0x05})
	l, err := r.readLimits()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), l.Min)
	require.NotNil(t, l.Max)
	assert.Equal(t, uint32(5), *l.Max)
}

func TestReader_readLimits_noMax(t *testing.T) {
	r := newReader([]byte{0x00, 0x03})
	l, err := r.readLimits()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), l.Min)
	assert.Nil(t, l.Max)
}

func TestReader_readF32(t *testing.T) {
	// 1.5f little-endian bytes: 0x00 0x00 0xC0 0x3F
	r := newReader([]byte{0x00, 0x00, 0xC0, 0x3F})
	f, err := r.readF32()
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f)
}

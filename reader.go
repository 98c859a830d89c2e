package tinywasm

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/tinywasm/tinywasm/internal/leb128"
)

// reader is a forward-only cursor over a byte slice with one byte of
// pushback, used by every decoder in this package. readU8, peekU8 and
// readExact leave the cursor where it was when they fail. The LEB128
// readers and the composite readers (readName, readLimits,
// readValueType) do not restore the cursor: a failed read may already
// have consumed bytes.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

// ReadByte implements leb128.byteSource.
func (r *reader) ReadByte() (byte, bool) {
	if r.pos >= len(r.data) {
		return 0, false
	}
	b := r.data[r.pos]
	r.pos++
	return b, true
}

func (r *reader) readU8() (byte, error) {
	b, ok := r.ReadByte()
	if !ok {
		return 0, ErrEndOfBytes
	}
	return b, nil
}

// peekU8 returns the next byte without consuming it.
func (r *reader) peekU8() (byte, bool) {
	if r.pos >= len(r.data) {
		return 0, false
	}
	return r.data[r.pos], true
}

// unreadU8 pushes the most recently read byte back onto the cursor. Only
// valid immediately after a successful readU8/peekU8-then-ReadByte pair.
func (r *reader) unreadU8() {
	if r.pos > 0 {
		r.pos--
	}
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) readExact(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, ErrEndOfBytes
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) readU32() (uint32, error) {
	v, err := leb128.DecodeUint32(r)
	if err != nil {
		return 0, wrapLEB(err)
	}
	return v, nil
}

func (r *reader) readI32() (int32, error) {
	v, err := leb128.DecodeInt32(r)
	if err != nil {
		return 0, wrapLEB(err)
	}
	return v, nil
}

func (r *reader) readI64() (int64, error) {
	v, err := leb128.DecodeInt64(r)
	if err != nil {
		return 0, wrapLEB(err)
	}
	return v, nil
}

// readS33 decodes the signed 33-bit integer used by the block-type
// encoding's type-index fallback case.
func (r *reader) readS33() (int64, error) {
	v, err := leb128.DecodeInt33(r)
	if err != nil {
		return 0, wrapLEB(err)
	}
	return v, nil
}

func wrapLEB(err error) error {
	switch err {
	case leb128.ErrEndOfBytes:
		return ErrEndOfBytes
	case leb128.ErrOverflow:
		return ErrMalformedInteger
	default:
		return err
	}
}

// readF32 reads a 4-byte little-endian IEEE-754 binary32.
func (r *reader) readF32() (float32, error) {
	b, err := r.readExact(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// readF64 reads an 8-byte little-endian IEEE-754 binary64.
func (r *reader) readF64() (float64, error) {
	b, err := r.readExact(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// readName reads a length-prefixed byte vector and validates it as UTF-8,
// per the binary format's Name production.
func (r *reader) readName() (string, error) {
	n, err := r.readU32()
	if err != nil {
		return "", err
	}
	b, err := r.readExact(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

func (r *reader) readValueType() (ValueType, error) {
	b, err := r.readU8()
	if err != nil {
		return 0, err
	}
	switch ValueType(b) {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64:
		return ValueType(b), nil
	default:
		return 0, ErrInvalidValueType
	}
}

func (r *reader) readLimits() (Limits, error) {
	flag, err := r.readU8()
	if err != nil {
		return Limits{}, err
	}
	min, err := r.readU32()
	if err != nil {
		return Limits{}, err
	}
	switch flag {
	case 0x00:
		return Limits{Min: min}, nil
	case 0x01:
		max, err := r.readU32()
		if err != nil {
			return Limits{}, err
		}
		return Limits{Min: min, Max: &max}, nil
	default:
		return Limits{}, ErrInvalidLimitsFlag
	}
}

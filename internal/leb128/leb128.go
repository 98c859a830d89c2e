// Package leb128 implements the variable-length integer encoding used
// throughout the WebAssembly binary format.
package leb128

import "errors"

// ErrOverflow is returned when a LEB128 value would need more bits than the
// caller declared it could hold (e.g. a value requiring more than 32 bits
// decoded with DecodeUint32).
var ErrOverflow = errors.New("leb128: value overflows declared bit width")

// ErrEndOfBytes is returned when the byte source runs out before the
// terminating byte (high bit clear) is seen.
var ErrEndOfBytes = errors.New("leb128: unexpected end of bytes")

// byteSource is the minimal surface leb128 needs from a cursor: pull one
// byte at a time, with EOF signaled as (0, false).
type byteSource interface {
	ReadByte() (byte, bool)
}

// DecodeUint32 decodes an unsigned LEB128 value into the low 32 bits.
// Per the spec, encodings are rejected if they require more than 32 bits
// or more than 5 encoded bytes (ceil(32/7) = 5).
func DecodeUint32(src byteSource) (uint32, error) {
	v, err := decodeUnsigned(src, 32)
	return uint32(v), err
}

// DecodeUint64 decodes an unsigned LEB128 value into 64 bits (used for u33
// block-type-index candidates truncated elsewhere, and memory/table
// indices which wasm 1.0 actually encodes as u32, but callers needing the
// full range use this).
func DecodeUint64(src byteSource) (uint64, error) {
	return decodeUnsigned(src, 64)
}

// DecodeInt32 decodes a signed LEB128 value sign-extended from 32 bits.
func DecodeInt32(src byteSource) (int32, error) {
	v, err := decodeSigned(src, 32)
	return int32(v), err
}

// DecodeInt64 decodes a signed LEB128 value in 64 bits.
func DecodeInt64(src byteSource) (int64, error) {
	return decodeSigned(src, 64)
}

// DecodeInt33 decodes a signed LEB128 value with 33 significant bits, used
// only for the s33 block-type encoding (WebAssembly's multi-value
// extension; in the 1.0 MVP this is only ever a positive type index).
func DecodeInt33(src byteSource) (int64, error) {
	return decodeSigned(src, 33)
}

func decodeUnsigned(src byteSource, maxBits uint) (uint64, error) {
	var result uint64
	var shift uint
	maxBytes := (maxBits + 6) / 7
	for i := uint(0); ; i++ {
		b, ok := src.ReadByte()
		if !ok {
			return 0, ErrEndOfBytes
		}
		if i >= maxBytes {
			return 0, ErrOverflow
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			// Reject set bits beyond maxBits in the final group.
			if shift+7 < maxBits {
				return result, nil
			}
			usedBits := shift + 7
			if usedBits > maxBits {
				mask := uint64(1)<<maxBits - 1
				if result&^mask != 0 {
					return 0, ErrOverflow
				}
			}
			return result, nil
		}
		shift += 7
	}
}

func decodeSigned(src byteSource, maxBits uint) (int64, error) {
	var result int64
	var shift uint
	var b byte
	maxBytes := (maxBits + 6) / 7
	ok := true
	for i := uint(0); ; i++ {
		b, ok = src.ReadByte()
		if !ok {
			return 0, ErrEndOfBytes
		}
		if i >= maxBytes {
			return 0, ErrOverflow
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	// Sign-extend if the sign bit of the last group is set and we haven't
	// consumed all maxBits worth of magnitude.
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}
	if maxBits < 64 {
		// Truncate/verify the result fits in maxBits as a signed value.
		hi := result >> maxBits
		if hi != 0 && hi != -1 {
			return 0, ErrOverflow
		}
	}
	return result, nil
}

package tinywasm

import "encoding/binary"

// execMemory runs one load/store/memory.size/memory.grow instruction
// against mem. Effective addresses are computed in 64-bit arithmetic so a
// base+offset that would overflow a 32-bit address space is caught as an
// out-of-bounds trap rather than silently wrapping.
func execMemory(op Opcode, instr *Instruction, s *execState, mem *Memory) error {
	if op == OpMemorySize {
		if mem == nil {
			return ErrOutOfBoundsMemory
		}
		s.push(I32(int32(mem.Pages())))
		return nil
	}
	if op == OpMemoryGrow {
		if mem == nil {
			return ErrOutOfBoundsMemory
		}
		delta := s.pop().U32()
		s.push(I32(mem.Grow(delta)))
		return nil
	}

	if mem == nil {
		return ErrOutOfBoundsMemory
	}

	if isStoreOp(op) {
		val := s.pop()
		addr := s.pop().U32()
		ea := uint64(addr) + uint64(instr.Mem.Offset)
		buf := mem.Bytes()
		return storeValue(op, buf, ea, val)
	}

	addr := s.pop().U32()
	ea := uint64(addr) + uint64(instr.Mem.Offset)
	buf := mem.Bytes()
	v, err := loadValue(op, buf, ea)
	if err != nil {
		return err
	}
	s.push(v)
	return nil
}

func isStoreOp(op Opcode) bool {
	return op >= OpI32Store && op <= OpI64Store32
}

func checkBounds(buf []byte, ea uint64, width int) error {
	if ea+uint64(width) > uint64(len(buf)) {
		return ErrOutOfBoundsMemory
	}
	return nil
}

func loadValue(op Opcode, buf []byte, ea uint64) (Value, error) {
	switch op {
	case OpI32Load:
		if err := checkBounds(buf, ea, 4); err != nil {
			return Value{}, err
		}
		return I32(int32(binary.LittleEndian.Uint32(buf[ea:]))), nil
	case OpI64Load:
		if err := checkBounds(buf, ea, 8); err != nil {
			return Value{}, err
		}
		return I64(int64(binary.LittleEndian.Uint64(buf[ea:]))), nil
	case OpF32Load:
		if err := checkBounds(buf, ea, 4); err != nil {
			return Value{}, err
		}
		bits := binary.LittleEndian.Uint32(buf[ea:])
		return Value{Type: ValueTypeF32, bits: uint64(bits)}, nil
	case OpF64Load:
		if err := checkBounds(buf, ea, 8); err != nil {
			return Value{}, err
		}
		bits := binary.LittleEndian.Uint64(buf[ea:])
		return Value{Type: ValueTypeF64, bits: bits}, nil
	case OpI32Load8S:
		if err := checkBounds(buf, ea, 1); err != nil {
			return Value{}, err
		}
		return I32(int32(int8(buf[ea]))), nil
	case OpI32Load8U:
		if err := checkBounds(buf, ea, 1); err != nil {
			return Value{}, err
		}
		return I32(int32(buf[ea])), nil
	case OpI32Load16S:
		if err := checkBounds(buf, ea, 2); err != nil {
			return Value{}, err
		}
		return I32(int32(int16(binary.LittleEndian.Uint16(buf[ea:])))), nil
	case OpI32Load16U:
		if err := checkBounds(buf, ea, 2); err != nil {
			return Value{}, err
		}
		return I32(int32(binary.LittleEndian.Uint16(buf[ea:]))), nil
	case OpI64Load8S:
		if err := checkBounds(buf, ea, 1); err != nil {
			return Value{}, err
		}
		return I64(int64(int8(buf[ea]))), nil
	case OpI64Load8U:
		if err := checkBounds(buf, ea, 1); err != nil {
			return Value{}, err
		}
		return I64(int64(buf[ea])), nil
	case OpI64Load16S:
		if err := checkBounds(buf, ea, 2); err != nil {
			return Value{}, err
		}
		return I64(int64(int16(binary.LittleEndian.Uint16(buf[ea:])))), nil
	case OpI64Load16U:
		if err := checkBounds(buf, ea, 2); err != nil {
			return Value{}, err
		}
		return I64(int64(binary.LittleEndian.Uint16(buf[ea:]))), nil
	case OpI64Load32S:
		if err := checkBounds(buf, ea, 4); err != nil {
			return Value{}, err
		}
		return I64(int64(int32(binary.LittleEndian.Uint32(buf[ea:])))), nil
	case OpI64Load32U:
		if err := checkBounds(buf, ea, 4); err != nil {
			return Value{}, err
		}
		return I64(int64(binary.LittleEndian.Uint32(buf[ea:]))), nil
	default:
		return Value{}, ErrInvalidOpcode
	}
}

func storeValue(op Opcode, buf []byte, ea uint64, val Value) error {
	switch op {
	case OpI32Store:
		if err := checkBounds(buf, ea, 4); err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(buf[ea:], val.U32())
	case OpI64Store:
		if err := checkBounds(buf, ea, 8); err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(buf[ea:], val.U64())
	case OpF32Store:
		if err := checkBounds(buf, ea, 4); err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(buf[ea:], uint32(val.bits))
	case OpF64Store:
		if err := checkBounds(buf, ea, 8); err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(buf[ea:], val.bits)
	case OpI32Store8:
		if err := checkBounds(buf, ea, 1); err != nil {
			return err
		}
		buf[ea] = byte(val.U32())
	case OpI32Store16:
		if err := checkBounds(buf, ea, 2); err != nil {
			return err
		}
		binary.LittleEndian.PutUint16(buf[ea:], uint16(val.U32()))
	case OpI64Store8:
		if err := checkBounds(buf, ea, 1); err != nil {
			return err
		}
		buf[ea] = byte(val.U64())
	case OpI64Store16:
		if err := checkBounds(buf, ea, 2); err != nil {
			return err
		}
		binary.LittleEndian.PutUint16(buf[ea:], uint16(val.U64()))
	case OpI64Store32:
		if err := checkBounds(buf, ea, 4); err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(buf[ea:], uint32(val.U64()))
	default:
		return ErrInvalidOpcode
	}
	return nil
}

package tinywasm

// Opcode is a single WebAssembly 1.0 instruction byte.
type Opcode byte

// Control instructions.
const (
	OpUnreachable  Opcode = 0x00
	OpNop          Opcode = 0x01
	OpBlock        Opcode = 0x02
	OpLoop         Opcode = 0x03
	OpIf           Opcode = 0x04
	OpElse         Opcode = 0x05
	OpEnd          Opcode = 0x0B
	OpBr           Opcode = 0x0C
	OpBrIf         Opcode = 0x0D
	OpBrTable      Opcode = 0x0E
	OpReturn       Opcode = 0x0F
	OpCall         Opcode = 0x10
	OpCallIndirect Opcode = 0x11
)

// Parametric instructions.
const (
	OpDrop   Opcode = 0x1A
	OpSelect Opcode = 0x1B
)

// Variable instructions.
const (
	OpLocalGet  Opcode = 0x20
	OpLocalSet  Opcode = 0x21
	OpLocalTee  Opcode = 0x22
	OpGlobalGet Opcode = 0x23
	OpGlobalSet Opcode = 0x24
)

// Memory instructions.
const (
	OpI32Load    Opcode = 0x28
	OpI64Load    Opcode = 0x29
	OpF32Load    Opcode = 0x2A
	OpF64Load    Opcode = 0x2B
	OpI32Load8S  Opcode = 0x2C
	OpI32Load8U  Opcode = 0x2D
	OpI32Load16S Opcode = 0x2E
	OpI32Load16U Opcode = 0x2F
	OpI64Load8S  Opcode = 0x30
	OpI64Load8U  Opcode = 0x31
	OpI64Load16S Opcode = 0x32
	OpI64Load16U Opcode = 0x33
	OpI64Load32S Opcode = 0x34
	OpI64Load32U Opcode = 0x35
	OpI32Store   Opcode = 0x36
	OpI64Store   Opcode = 0x37
	OpF32Store   Opcode = 0x38
	OpF64Store   Opcode = 0x39
	OpI32Store8  Opcode = 0x3A
	OpI32Store16 Opcode = 0x3B
	OpI64Store8  Opcode = 0x3C
	OpI64Store16 Opcode = 0x3D
	OpI64Store32 Opcode = 0x3E
	OpMemorySize Opcode = 0x3F
	OpMemoryGrow Opcode = 0x40
)

// Numeric constant instructions.
const (
	OpI32Const Opcode = 0x41
	OpI64Const Opcode = 0x42
	OpF32Const Opcode = 0x43
	OpF64Const Opcode = 0x44
)

// Numeric comparison and arithmetic instructions.
const (
	OpI32Eqz  Opcode = 0x45
	OpI32Eq   Opcode = 0x46
	OpI32Ne   Opcode = 0x47
	OpI32LtS  Opcode = 0x48
	OpI32LtU  Opcode = 0x49
	OpI32GtS  Opcode = 0x4A
	OpI32GtU  Opcode = 0x4B
	OpI32LeS  Opcode = 0x4C
	OpI32LeU  Opcode = 0x4D
	OpI32GeS  Opcode = 0x4E
	OpI32GeU  Opcode = 0x4F

	OpI64Eqz Opcode = 0x50
	OpI64Eq  Opcode = 0x51
	OpI64Ne  Opcode = 0x52
	OpI64LtS Opcode = 0x53
	OpI64LtU Opcode = 0x54
	OpI64GtS Opcode = 0x55
	OpI64GtU Opcode = 0x56
	OpI64LeS Opcode = 0x57
	OpI64LeU Opcode = 0x58
	OpI64GeS Opcode = 0x59
	OpI64GeU Opcode = 0x5A

	OpF32Eq Opcode = 0x5B
	OpF32Ne Opcode = 0x5C
	OpF32Lt Opcode = 0x5D
	OpF32Gt Opcode = 0x5E
	OpF32Le Opcode = 0x5F
	OpF32Ge Opcode = 0x60

	OpF64Eq Opcode = 0x61
	OpF64Ne Opcode = 0x62
	OpF64Lt Opcode = 0x63
	OpF64Gt Opcode = 0x64
	OpF64Le Opcode = 0x65
	OpF64Ge Opcode = 0x66

	OpI32Clz    Opcode = 0x67
	OpI32Ctz    Opcode = 0x68
	OpI32Popcnt Opcode = 0x69
	OpI32Add    Opcode = 0x6A
	OpI32Sub    Opcode = 0x6B
	OpI32Mul    Opcode = 0x6C
	OpI32DivS   Opcode = 0x6D
	OpI32DivU   Opcode = 0x6E
	OpI32RemS   Opcode = 0x6F
	OpI32RemU   Opcode = 0x70
	OpI32And    Opcode = 0x71
	OpI32Or     Opcode = 0x72
	OpI32Xor    Opcode = 0x73
	OpI32Shl    Opcode = 0x74
	OpI32ShrS   Opcode = 0x75
	OpI32ShrU   Opcode = 0x76
	OpI32Rotl   Opcode = 0x77
	OpI32Rotr   Opcode = 0x78

	OpI64Clz    Opcode = 0x79
	OpI64Ctz    Opcode = 0x7A
	OpI64Popcnt Opcode = 0x7B
	OpI64Add    Opcode = 0x7C
	OpI64Sub    Opcode = 0x7D
	OpI64Mul    Opcode = 0x7E
	OpI64DivS   Opcode = 0x7F
	OpI64DivU   Opcode = 0x80
	OpI64RemS   Opcode = 0x81
	OpI64RemU   Opcode = 0x82
	OpI64And    Opcode = 0x83
	OpI64Or     Opcode = 0x84
	OpI64Xor    Opcode = 0x85
	OpI64Shl    Opcode = 0x86
	OpI64ShrS   Opcode = 0x87
	OpI64ShrU   Opcode = 0x88
	OpI64Rotl   Opcode = 0x89
	OpI64Rotr   Opcode = 0x8A

	OpF32Abs      Opcode = 0x8B
	OpF32Neg      Opcode = 0x8C
	OpF32Ceil     Opcode = 0x8D
	OpF32Floor    Opcode = 0x8E
	OpF32Trunc    Opcode = 0x8F
	OpF32Nearest  Opcode = 0x90
	OpF32Sqrt     Opcode = 0x91
	OpF32Add      Opcode = 0x92
	OpF32Sub      Opcode = 0x93
	OpF32Mul      Opcode = 0x94
	OpF32Div      Opcode = 0x95
	OpF32Min      Opcode = 0x96
	OpF32Max      Opcode = 0x97
	OpF32Copysign Opcode = 0x98

	OpF64Abs      Opcode = 0x99
	OpF64Neg      Opcode = 0x9A
	OpF64Ceil     Opcode = 0x9B
	OpF64Floor    Opcode = 0x9C
	OpF64Trunc    Opcode = 0x9D
	OpF64Nearest  Opcode = 0x9E
	OpF64Sqrt     Opcode = 0x9F
	OpF64Add      Opcode = 0xA0
	OpF64Sub      Opcode = 0xA1
	OpF64Mul      Opcode = 0xA2
	OpF64Div      Opcode = 0xA3
	OpF64Min      Opcode = 0xA4
	OpF64Max      Opcode = 0xA5
	OpF64Copysign Opcode = 0xA6

	OpI32WrapI64      Opcode = 0xA7
	OpI32TruncF32S    Opcode = 0xA8
	OpI32TruncF32U    Opcode = 0xA9
	OpI32TruncF64S    Opcode = 0xAA
	OpI32TruncF64U    Opcode = 0xAB
	OpI64ExtendI32S   Opcode = 0xAC
	OpI64ExtendI32U   Opcode = 0xAD
	OpI64TruncF32S    Opcode = 0xAE
	OpI64TruncF32U    Opcode = 0xAF
	OpI64TruncF64S    Opcode = 0xB0
	OpI64TruncF64U    Opcode = 0xB1
	OpF32ConvertI32S  Opcode = 0xB2
	OpF32ConvertI32U  Opcode = 0xB3
	OpF32ConvertI64S  Opcode = 0xB4
	OpF32ConvertI64U  Opcode = 0xB5
	OpF32DemoteF64    Opcode = 0xB6
	OpF64ConvertI32S  Opcode = 0xB7
	OpF64ConvertI32U  Opcode = 0xB8
	OpF64ConvertI64S  Opcode = 0xB9
	OpF64ConvertI64U  Opcode = 0xBA
	OpF64PromoteF32   Opcode = 0xBB
	OpI32ReinterpretF32 Opcode = 0xBC
	OpI64ReinterpretF64 Opcode = 0xBD
	OpF32ReinterpretI32 Opcode = 0xBE
	OpF64ReinterpretI64 Opcode = 0xBF
)

// BlockTypeKind discriminates the three ways a block's signature can be
// written on the wire.
type BlockTypeKind byte

const (
	BlockTypeEmpty BlockTypeKind = iota
	BlockTypeValue
	BlockTypeFuncType
)

// BlockType is a block/loop/if signature: either no result (Empty), a
// single result value type (Value), or a reference to a function type in
// the module's Type section carrying arbitrary params and results
// (FuncType — never produced by a 1.0 MVP toolchain's block/loop/if, which
// all have at most one result, but decodable all the same since the
// encoding reserves a signed LEB128 type-index form regardless).
type BlockType struct {
	Kind      BlockTypeKind
	ValueType ValueType
	TypeIndex uint32
}

// MemArg is the alignment hint and offset operand common to every memory
// instruction.
type MemArg struct {
	Align  uint32
	Offset uint32
}

// Instruction is one node of a function body's instruction tree. Control
// instructions that introduce structured blocks (block/loop/if) carry
// their nested instruction sequences directly as Then/Else rather than as
// a flat stream with implicit nesting, since the interpreter walks this
// tree directly instead of driving a program counter over flattened
// bytecode.
type Instruction struct {
	Op Opcode

	Block BlockType
	Then  []Instruction
	Else  []Instruction

	LabelIndex uint32   // br, br_if
	Labels     []uint32 // br_table
	Default    uint32   // br_table

	FuncIndex uint32 // call
	TypeIndex uint32 // call_indirect

	Index uint32 // local.get/set/tee, global.get/set

	I32Const int32
	I64Const int64
	F32Const float32
	F64Const float64

	Mem MemArg
}

// decodeBlockType implements the three-way trial decode the binary format
// requires: an empty tag, a single value type, or (falling through to) a
// signed 33-bit type index.
func decodeBlockType(r *reader) (BlockType, error) {
	if b, ok := r.peekU8(); ok {
		if b == 0x40 {
			r.readU8()
			return BlockType{Kind: BlockTypeEmpty}, nil
		}
		switch ValueType(b) {
		case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64:
			r.readU8()
			return BlockType{Kind: BlockTypeValue, ValueType: ValueType(b)}, nil
		}
	}
	idx, err := r.readS33()
	if err != nil {
		return BlockType{}, err
	}
	if idx < 0 {
		return BlockType{}, ErrInvalidValueType
	}
	return BlockType{Kind: BlockTypeFuncType, TypeIndex: uint32(idx)}, nil
}

// decodeExpr decodes a constant or function-body instruction sequence
// terminated by a top-level end (0x0B), consuming the terminator and
// returning everything before it.
func decodeExpr(r *reader) ([]Instruction, error) {
	instrs, term, err := decodeInstrSeq(r)
	if err != nil {
		return nil, err
	}
	if term != byte(OpEnd) {
		return nil, ErrInvalidOpcode
	}
	return instrs, nil
}

// decodeInstrSeq decodes instructions until an end (0x0B) or else (0x05)
// byte is reached, returning which one terminated the sequence (without
// consuming further bytes after it).
func decodeInstrSeq(r *reader) ([]Instruction, byte, error) {
	var out []Instruction
	for {
		b, err := r.readU8()
		if err != nil {
			return nil, 0, err
		}
		if b == byte(OpEnd) || b == byte(OpElse) {
			return out, b, nil
		}
		instr, err := decodeInstrBody(r, Opcode(b))
		if err != nil {
			return nil, 0, err
		}
		out = append(out, instr)
	}
}

func decodeInstrBody(r *reader, op Opcode) (Instruction, error) {
	instr := Instruction{Op: op}
	switch op {
	case OpUnreachable, OpNop, OpReturn, OpDrop, OpSelect,
		OpMemorySize, OpMemoryGrow:
		if op == OpMemorySize || op == OpMemoryGrow {
			b, err := r.readU8()
			if err != nil {
				return instr, err
			}
			if b != 0x00 {
				return instr, ErrInvalidFixedIndex
			}
		}
		return instr, nil

	case OpBlock, OpLoop:
		bt, err := decodeBlockType(r)
		if err != nil {
			return instr, err
		}
		instr.Block = bt
		body, term, err := decodeInstrSeq(r)
		if err != nil {
			return instr, err
		}
		if term != byte(OpEnd) {
			return instr, ErrInvalidOpcode
		}
		instr.Then = body
		return instr, nil

	case OpIf:
		bt, err := decodeBlockType(r)
		if err != nil {
			return instr, err
		}
		instr.Block = bt
		then, term, err := decodeInstrSeq(r)
		if err != nil {
			return instr, err
		}
		instr.Then = then
		if term == byte(OpElse) {
			els, term2, err := decodeInstrSeq(r)
			if err != nil {
				return instr, err
			}
			if term2 != byte(OpEnd) {
				return instr, ErrInvalidOpcode
			}
			instr.Else = els
		}
		return instr, nil

	case OpBr, OpBrIf:
		idx, err := r.readU32()
		if err != nil {
			return instr, err
		}
		instr.LabelIndex = idx
		return instr, nil

	case OpBrTable:
		count, err := r.readU32()
		if err != nil {
			return instr, err
		}
		labels := make([]uint32, count)
		for i := range labels {
			labels[i], err = r.readU32()
			if err != nil {
				return instr, err
			}
		}
		def, err := r.readU32()
		if err != nil {
			return instr, err
		}
		instr.Labels = labels
		instr.Default = def
		return instr, nil

	case OpCall:
		idx, err := r.readU32()
		if err != nil {
			return instr, err
		}
		instr.FuncIndex = idx
		return instr, nil

	case OpCallIndirect:
		idx, err := r.readU32()
		if err != nil {
			return instr, err
		}
		instr.TypeIndex = idx
		b, err := r.readU8()
		if err != nil {
			return instr, err
		}
		if b != 0x00 {
			return instr, ErrInvalidFixedIndex
		}
		return instr, nil

	case OpLocalGet, OpLocalSet, OpLocalTee, OpGlobalGet, OpGlobalSet:
		idx, err := r.readU32()
		if err != nil {
			return instr, err
		}
		instr.Index = idx
		return instr, nil

	case OpI32Const:
		v, err := r.readI32()
		if err != nil {
			return instr, err
		}
		instr.I32Const = v
		return instr, nil

	case OpI64Const:
		v, err := r.readI64()
		if err != nil {
			return instr, err
		}
		instr.I64Const = v
		return instr, nil

	case OpF32Const:
		v, err := r.readF32()
		if err != nil {
			return instr, err
		}
		instr.F32Const = v
		return instr, nil

	case OpF64Const:
		v, err := r.readF64()
		if err != nil {
			return instr, err
		}
		instr.F64Const = v
		return instr, nil

	default:
		if isMemoryOp(op) {
			align, err := r.readU32()
			if err != nil {
				return instr, err
			}
			offset, err := r.readU32()
			if err != nil {
				return instr, err
			}
			instr.Mem = MemArg{Align: align, Offset: offset}
			return instr, nil
		}
		if isPlainNumericOp(op) {
			return instr, nil
		}
		return instr, ErrInvalidOpcode
	}
}

func isMemoryOp(op Opcode) bool {
	return op >= OpI32Load && op <= OpI64Store32
}

func isPlainNumericOp(op Opcode) bool {
	return op >= OpI32Eqz && op <= OpF64ReinterpretI64
}

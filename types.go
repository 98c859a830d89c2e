package tinywasm

// FunctionType is a function signature: an ordered list of parameter
// value types and an ordered list of result value types. WebAssembly 1.0
// permits at most one result.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// Mutability distinguishes a constant global from a variable one.
type Mutability byte

const (
	// Const marks a global whose value never changes after instantiation.
	Const Mutability = 0x00
	// Var marks a global that may be written with global.set.
	Var Mutability = 0x01
)

// Limits bounds a table or memory: a required minimum and an optional
// maximum, both expressed in the unit appropriate to the owner (pages for
// memory, entries for a table).
type Limits struct {
	Min uint32
	Max *uint32 // nil means unbounded (up to the implementation ceiling).
}

// Contains reports whether n falls within [Min, Max] (Max treated as
// unbounded when nil).
func (l Limits) Contains(n uint32) bool {
	if n < l.Min {
		return false
	}
	if l.Max != nil && n > *l.Max {
		return false
	}
	return true
}

// TableType describes the module's table: element kind is always funcref
// in the 1.0 MVP, so only limits vary.
type TableType struct {
	Limits Limits
}

// MemoryType describes the module's linear memory limits, in pages.
type MemoryType struct {
	Limits Limits
}

// GlobalType describes a global's value type and mutability.
type GlobalType struct {
	ValType    ValueType
	Mutability Mutability
}

// PageSize is the fixed size of one unit of linear memory growth, in
// bytes, per the WebAssembly 1.0 specification.
const PageSize = 65536

// ExternKind classifies an import or export descriptor.
type ExternKind byte

const (
	ExternKindFunc   ExternKind = 0x00
	ExternKindTable  ExternKind = 0x01
	ExternKindMemory ExternKind = 0x02
	ExternKindGlobal ExternKind = 0x03
)

func (k ExternKind) String() string {
	switch k {
	case ExternKindFunc:
		return "func"
	case ExternKindTable:
		return "table"
	case ExternKindMemory:
		return "memory"
	case ExternKindGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Import is a single entry of the module's Import section: a two-part
// name plus a descriptor identifying what kind of extern it expects and
// its expected shape.
type Import struct {
	Module string
	Name   string
	Kind   ExternKind

	// Exactly one of the following is meaningful, selected by Kind.
	FuncTypeIndex uint32
	TableType     TableType
	MemoryType    MemoryType
	GlobalType    GlobalType
}

// Export is a single entry of the module's Export section.
type Export struct {
	Name  string
	Kind  ExternKind
	Index uint32
}

// Global is a module-defined global: its type plus a constant
// initializer expression (a single const instruction, or a global.get of
// an earlier imported immutable global — see Instantiate).
type Global struct {
	Type GlobalType
	Init []Instruction
}

// Element is an element segment: a sequence of function indices to be
// written into the table starting at a constant offset, evaluated at
// instantiation.
type Element struct {
	TableIndex uint32 // always 0 in the 1.0 MVP.
	Offset     []Instruction
	Init       []uint32
}

// DataSegment is a data segment: a byte run to be copied into linear
// memory starting at a constant offset, evaluated at instantiation.
type DataSegment struct {
	MemoryIndex uint32 // always 0 in the 1.0 MVP.
	Offset      []Instruction
	Init        []byte
}

// Code is a decoded function body: its locals (already expanded from the
// compressed run-length encoding into one entry per local) and its
// instruction sequence.
type Code struct {
	Locals []ValueType
	Body   []Instruction
}

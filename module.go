package tinywasm

// Section ids, in the order the binary format requires non-custom
// sections to appear (strictly increasing; custom sections, id 0, are
// exempt and may appear any number of times anywhere in the stream).
const (
	sectionCustom    = 0
	sectionType      = 1
	sectionImport    = 2
	sectionFunction  = 3
	sectionTable     = 4
	sectionMemory    = 5
	sectionGlobal    = 6
	sectionExport    = 7
	sectionStart     = 8
	sectionElement   = 9
	sectionCode      = 10
	sectionData      = 11
)

var wasmMagic = [4]byte{0x00, 0x61, 0x73, 0x6D}
var wasmVersion = [4]byte{0x01, 0x00, 0x00, 0x00}

// Module is the decoded, unlinked representation of a .wasm binary: every
// section's contents, with compressed encodings (locals run-lengths,
// LEB128 indices) already expanded into plain Go values. It has no
// runtime state of its own; Instantiate turns one, plus a Resolver for
// its imports, into an Instance.
type Module struct {
	Types     []FunctionType
	Imports   []Import
	Functions []uint32 // type index per module-defined function, parallel to Code.
	Tables    []TableType
	Memories  []MemoryType
	Globals   []Global
	Exports   []Export
	Start     *uint32
	Elements  []Element
	Code      []Code
	Data      []DataSegment
}

// DecodeModule parses a complete WebAssembly 1.0 binary module. It
// performs only the structural validation the spec places in the Decode
// taxonomy (magic/version, section framing, section ordering, opcode and
// tag well-formedness); cross-referential validation (index bounds, type
// agreement) is deferred to Instantiate, matching the source this was
// distilled from.
func DecodeModule(data []byte) (*Module, error) {
	r := newReader(data)

	magic, err := r.readExact(4)
	if err != nil {
		return nil, err
	}
	if [4]byte(magic) != wasmMagic {
		return nil, ErrInvalidMagic
	}
	version, err := r.readExact(4)
	if err != nil {
		return nil, err
	}
	if [4]byte(version) != wasmVersion {
		return nil, ErrInvalidVersion
	}

	m := &Module{}
	lastNonCustom := -1

	for r.remaining() > 0 {
		id, err := r.readU8()
		if err != nil {
			return nil, err
		}
		size, err := r.readU32()
		if err != nil {
			return nil, err
		}
		body, err := r.readExact(int(size))
		if err != nil {
			return nil, err
		}
		sr := newReader(body)

		if id != sectionCustom {
			if int(id) <= lastNonCustom {
				return nil, ErrInvalidSectionOrder
			}
			if id > sectionData {
				return nil, ErrInvalidSectionID
			}
			lastNonCustom = int(id)
		}

		switch id {
		case sectionCustom:
			// Name and contents are decoded but discarded: this
			// implementation exposes no custom-section introspection API.
			if _, err := sr.readName(); err != nil {
				return nil, err
			}
		case sectionType:
			m.Types, err = decodeTypeSection(sr)
		case sectionImport:
			m.Imports, err = decodeImportSection(sr)
		case sectionFunction:
			m.Functions, err = decodeFunctionSection(sr)
		case sectionTable:
			m.Tables, err = decodeTableSection(sr)
		case sectionMemory:
			m.Memories, err = decodeMemorySection(sr)
		case sectionGlobal:
			m.Globals, err = decodeGlobalSection(sr)
		case sectionExport:
			m.Exports, err = decodeExportSection(sr)
		case sectionStart:
			var idx uint32
			idx, err = sr.readU32()
			m.Start = &idx
		case sectionElement:
			m.Elements, err = decodeElementSection(sr)
		case sectionCode:
			m.Code, err = decodeCodeSection(sr)
		case sectionData:
			m.Data, err = decodeDataSection(sr)
		default:
			return nil, ErrInvalidSectionID
		}
		if err != nil {
			return nil, err
		}
		if sr.remaining() != 0 {
			return nil, ErrInvalidSectionSize
		}
	}

	if len(m.Tables) > 1 {
		return nil, ErrMultipleTables
	}
	if len(m.Memories) > 1 {
		return nil, ErrMultipleMemories
	}
	if len(m.Functions) != len(m.Code) {
		return nil, ErrInvalidSectionSize
	}

	return m, nil
}

func decodeVecCount(r *reader) (int, error) {
	n, err := r.readU32()
	return int(n), err
}

func decodeTypeSection(r *reader) ([]FunctionType, error) {
	n, err := decodeVecCount(r)
	if err != nil {
		return nil, err
	}
	types := make([]FunctionType, n)
	for i := range types {
		tag, err := r.readU8()
		if err != nil {
			return nil, err
		}
		if tag != 0x60 {
			return nil, ErrInvalidFuncTypeTag
		}
		paramCount, err := decodeVecCount(r)
		if err != nil {
			return nil, err
		}
		params := make([]ValueType, paramCount)
		for j := range params {
			if params[j], err = r.readValueType(); err != nil {
				return nil, err
			}
		}
		resultCount, err := decodeVecCount(r)
		if err != nil {
			return nil, err
		}
		results := make([]ValueType, resultCount)
		for j := range results {
			if results[j], err = r.readValueType(); err != nil {
				return nil, err
			}
		}
		types[i] = FunctionType{Params: params, Results: results}
	}
	return types, nil
}

func decodeImportSection(r *reader) ([]Import, error) {
	n, err := decodeVecCount(r)
	if err != nil {
		return nil, err
	}
	imports := make([]Import, n)
	for i := range imports {
		mod, err := r.readName()
		if err != nil {
			return nil, err
		}
		name, err := r.readName()
		if err != nil {
			return nil, err
		}
		kindByte, err := r.readU8()
		if err != nil {
			return nil, err
		}
		imp := Import{Module: mod, Name: name, Kind: ExternKind(kindByte)}
		switch imp.Kind {
		case ExternKindFunc:
			imp.FuncTypeIndex, err = r.readU32()
		case ExternKindTable:
			tableTag, tagErr := r.readU8()
			if tagErr != nil {
				err = tagErr
				break
			}
			if tableTag != 0x70 {
				return nil, ErrInvalidElemKind
			}
			imp.TableType.Limits, err = r.readLimits()
		case ExternKindMemory:
			imp.MemoryType.Limits, err = r.readLimits()
		case ExternKindGlobal:
			imp.GlobalType, err = decodeGlobalType(r)
		default:
			return nil, ErrInvalidImportDesc
		}
		if err != nil {
			return nil, err
		}
		imports[i] = imp
	}
	return imports, nil
}

func decodeGlobalType(r *reader) (GlobalType, error) {
	vt, err := r.readValueType()
	if err != nil {
		return GlobalType{}, err
	}
	mb, err := r.readU8()
	if err != nil {
		return GlobalType{}, err
	}
	if mb != byte(Const) && mb != byte(Var) {
		return GlobalType{}, ErrInvalidMutability
	}
	return GlobalType{ValType: vt, Mutability: Mutability(mb)}, nil
}

func decodeFunctionSection(r *reader) ([]uint32, error) {
	n, err := decodeVecCount(r)
	if err != nil {
		return nil, err
	}
	idxs := make([]uint32, n)
	for i := range idxs {
		if idxs[i], err = r.readU32(); err != nil {
			return nil, err
		}
	}
	return idxs, nil
}

func decodeTableSection(r *reader) ([]TableType, error) {
	n, err := decodeVecCount(r)
	if err != nil {
		return nil, err
	}
	tables := make([]TableType, n)
	for i := range tables {
		tag, err := r.readU8()
		if err != nil {
			return nil, err
		}
		if tag != 0x70 {
			return nil, ErrInvalidElemKind
		}
		if tables[i].Limits, err = r.readLimits(); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

func decodeMemorySection(r *reader) ([]MemoryType, error) {
	n, err := decodeVecCount(r)
	if err != nil {
		return nil, err
	}
	mems := make([]MemoryType, n)
	for i := range mems {
		if mems[i].Limits, err = r.readLimits(); err != nil {
			return nil, err
		}
	}
	return mems, nil
}

func decodeGlobalSection(r *reader) ([]Global, error) {
	n, err := decodeVecCount(r)
	if err != nil {
		return nil, err
	}
	globals := make([]Global, n)
	for i := range globals {
		gt, err := decodeGlobalType(r)
		if err != nil {
			return nil, err
		}
		init, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		globals[i] = Global{Type: gt, Init: init}
	}
	return globals, nil
}

func decodeExportSection(r *reader) ([]Export, error) {
	n, err := decodeVecCount(r)
	if err != nil {
		return nil, err
	}
	exports := make([]Export, n)
	for i := range exports {
		name, err := r.readName()
		if err != nil {
			return nil, err
		}
		kindByte, err := r.readU8()
		if err != nil {
			return nil, err
		}
		switch ExternKind(kindByte) {
		case ExternKindFunc, ExternKindTable, ExternKindMemory, ExternKindGlobal:
		default:
			return nil, ErrInvalidExportDesc
		}
		idx, err := r.readU32()
		if err != nil {
			return nil, err
		}
		exports[i] = Export{Name: name, Kind: ExternKind(kindByte), Index: idx}
	}
	return exports, nil
}

func decodeElementSection(r *reader) ([]Element, error) {
	n, err := decodeVecCount(r)
	if err != nil {
		return nil, err
	}
	elems := make([]Element, n)
	for i := range elems {
		tableIdx, err := r.readU32()
		if err != nil {
			return nil, err
		}
		offset, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		count, err := decodeVecCount(r)
		if err != nil {
			return nil, err
		}
		init := make([]uint32, count)
		for j := range init {
			if init[j], err = r.readU32(); err != nil {
				return nil, err
			}
		}
		elems[i] = Element{TableIndex: tableIdx, Offset: offset, Init: init}
	}
	return elems, nil
}

func decodeCodeSection(r *reader) ([]Code, error) {
	n, err := decodeVecCount(r)
	if err != nil {
		return nil, err
	}
	codes := make([]Code, n)
	for i := range codes {
		size, err := r.readU32()
		if err != nil {
			return nil, err
		}
		body, err := r.readExact(int(size))
		if err != nil {
			return nil, err
		}
		// Each function body owns a length-bounded sub-reader so a short
		// or long body is caught exactly where it diverges, the same
		// discipline applied to top-level sections.
		br := newReader(body)
		localRuns, err := decodeVecCount(br)
		if err != nil {
			return nil, err
		}
		var locals []ValueType
		for j := 0; j < localRuns; j++ {
			count, err := br.readU32()
			if err != nil {
				return nil, err
			}
			vt, err := br.readValueType()
			if err != nil {
				return nil, err
			}
			for k := uint32(0); k < count; k++ {
				locals = append(locals, vt)
			}
		}
		instrs, err := decodeExpr(br)
		if err != nil {
			return nil, err
		}
		if br.remaining() != 0 {
			return nil, ErrInvalidSectionSize
		}
		codes[i] = Code{Locals: locals, Body: instrs}
	}
	return codes, nil
}

func decodeDataSection(r *reader) ([]DataSegment, error) {
	n, err := decodeVecCount(r)
	if err != nil {
		return nil, err
	}
	data := make([]DataSegment, n)
	for i := range data {
		memIdx, err := r.readU32()
		if err != nil {
			return nil, err
		}
		offset, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		n, err := decodeVecCount(r)
		if err != nil {
			return nil, err
		}
		init, err := r.readExact(n)
		if err != nil {
			return nil, err
		}
		initCopy := make([]byte, len(init))
		copy(initCopy, init)
		data[i] = DataSegment{MemoryIndex: memIdx, Offset: offset, Init: initCopy}
	}
	return data, nil
}

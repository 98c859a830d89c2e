package tinywasm

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// funcRef is one entry of the function index space: either a host
// function supplied through an import, or a module-defined function with
// its decoded body.
type funcRef struct {
	typeIndex uint32
	host      HostFunction
	code      *Code
}

func (f *funcRef) isHost() bool { return f.host != nil }

// Instance is a linked, runnable module: every import resolved, every
// global/table/memory/function index space built, data and element
// segments applied, and the start function (if any) already run.
type Instance struct {
	module *Module

	funcs   []funcRef
	globals []*GlobalInstance
	memory  *Memory
	table   *Table

	exportsByName map[string]Export
	logger        logrus.FieldLogger

	stackFactory func(capacityHint int) Vector[Value]
}

// InstantiateOption configures Instantiate using the functional-options
// pattern.
type InstantiateOption func(*instantiateConfig)

type instantiateConfig struct {
	logger       logrus.FieldLogger
	stackFactory func(capacityHint int) Vector[Value]
}

// WithLogger attaches a structured logger used for debug-level tracing of
// instantiation and trace-level tracing of every function call. Without
// it (or with a nil logger), Instantiate installs a logrus logger whose
// output is discarded.
func WithLogger(l logrus.FieldLogger) InstantiateOption {
	return func(c *instantiateConfig) { c.logger = l }
}

// WithStackFactory overrides how the interpreter's value and locals stacks
// are backed.
// The default is a HeapVector; embedders targeting a fixed memory budget
// can supply a factory returning a FixedVector over storage they own.
func WithStackFactory(f func(capacityHint int) Vector[Value]) InstantiateOption {
	return func(c *instantiateConfig) { c.stackFactory = f }
}

// Instantiate links module against resolver, producing a runnable
// Instance. Imports are resolved exactly once, in declaration order;
// globals, memory, and table are initialized in that order; data and
// element segments are applied; and the start function, if present, is
// then invoked.
func Instantiate(ctx context.Context, module *Module, resolver Resolver, opts ...InstantiateOption) (*Instance, error) {
	cfg := instantiateConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		cfg.logger = silent
	}
	if cfg.stackFactory == nil {
		cfg.stackFactory = func(capacityHint int) Vector[Value] { return NewHeapVector[Value](capacityHint) }
	}
	if resolver == nil {
		resolver = NopResolver{}
	}

	inst := &Instance{
		module:        module,
		exportsByName: make(map[string]Export, len(module.Exports)),
		logger:        cfg.logger,
		stackFactory:  cfg.stackFactory,
	}

	for i, exp := range module.Exports {
		if _, dup := inst.exportsByName[exp.Name]; dup {
			return nil, fmt.Errorf("tinywasm: duplicate export name %q at index %d", exp.Name, i)
		}
		inst.exportsByName[exp.Name] = exp
	}

	if err := inst.resolveImports(resolver); err != nil {
		return nil, err
	}

	for funcIdx, typeIdx := range module.Functions {
		if int(typeIdx) >= len(module.Types) {
			return nil, &ImportError{Index: funcIdx, Err: ErrInvalidTypeIndex}
		}
		code := &module.Code[funcIdx]
		inst.funcs = append(inst.funcs, funcRef{typeIndex: typeIdx, code: code})
	}

	if err := inst.buildGlobals(module); err != nil {
		return nil, err
	}

	if err := inst.buildMemory(module); err != nil {
		return nil, err
	}

	if err := inst.buildTable(module); err != nil {
		return nil, err
	}

	if err := inst.applyElements(module); err != nil {
		return nil, err
	}

	if err := inst.applyData(module); err != nil {
		return nil, err
	}

	if module.Start != nil {
		inst.logger.Debugf("tinywasm: running start function %d", *module.Start)
		if _, err := inst.invokeIndex(ctx, *module.Start, nil); err != nil {
			return nil, fmt.Errorf("tinywasm: start function: %w", err)
		}
	}

	return inst, nil
}

func (inst *Instance) resolveImports(resolver Resolver) error {
	for i, imp := range inst.module.Imports {
		switch imp.Kind {
		case ExternKindFunc:
			if int(imp.FuncTypeIndex) >= len(inst.module.Types) {
				return &ImportError{Index: i, Err: ErrInvalidTypeIndex}
			}
			sig := inst.module.Types[imp.FuncTypeIndex]
			fn, ok, err := resolver.ResolveFunc(imp.Module, imp.Name, sig)
			if err != nil {
				return &ImportError{Index: i, Err: err}
			}
			if !ok {
				return &ImportError{Index: i, Err: ErrUnresolvedImport}
			}
			inst.funcs = append(inst.funcs, funcRef{typeIndex: imp.FuncTypeIndex, host: fn})

		case ExternKindMemory:
			mem, ok, err := resolver.ResolveMemory(imp.Module, imp.Name, imp.MemoryType)
			if err != nil {
				return &ImportError{Index: i, Err: err}
			}
			if !ok {
				return &ImportError{Index: i, Err: ErrUnresolvedImport}
			}
			if mem.Pages() < imp.MemoryType.Limits.Min {
				return &ImportError{Index: i, Err: ErrInvalidImportedMem}
			}
			if max := imp.MemoryType.Limits.Max; max != nil && mem.Pages() > *max {
				return &ImportError{Index: i, Err: ErrInvalidImportedMem}
			}
			if len(mem.Bytes())%PageSize != 0 {
				return &ImportError{Index: i, Err: ErrInvalidImportedMem}
			}
			inst.memory = mem

		case ExternKindTable:
			tbl, ok, err := resolver.ResolveTable(imp.Module, imp.Name, imp.TableType)
			if err != nil {
				return &ImportError{Index: i, Err: err}
			}
			if !ok {
				return &ImportError{Index: i, Err: ErrUnresolvedImport}
			}
			if uint32(tbl.Size()) < imp.TableType.Limits.Min {
				return &ImportError{Index: i, Err: ErrInvalidImportedTable}
			}
			if max := imp.TableType.Limits.Max; max != nil && uint32(tbl.Size()) > *max {
				return &ImportError{Index: i, Err: ErrInvalidImportedTable}
			}
			inst.table = tbl

		case ExternKindGlobal:
			g, ok, err := resolver.ResolveGlobal(imp.Module, imp.Name, imp.GlobalType)
			if err != nil {
				return &ImportError{Index: i, Err: err}
			}
			if !ok {
				return &ImportError{Index: i, Err: ErrUnresolvedImport}
			}
			inst.globals = append(inst.globals, g)

		default:
			return &ImportError{Index: i, Err: ErrInvalidImportDesc}
		}
	}
	return nil
}

// numImportedGlobals reports how many entries of inst.globals came from
// imports, as opposed to module-defined globals appended by buildGlobals.
// Constant expressions (global initializers, element/data offsets) may
// only reference globals in this imported prefix.
func (inst *Instance) numImportedGlobals() int {
	n := 0
	for _, imp := range inst.module.Imports {
		if imp.Kind == ExternKindGlobal {
			n++
		}
	}
	return n
}

func (inst *Instance) buildGlobals(module *Module) error {
	importedCount := len(inst.globals)
	for i, g := range module.Globals {
		v, err := inst.evalConstExpr(g.Init, importedCount)
		if err != nil {
			return &ImportError{Index: i, Err: err}
		}
		if v.Type != g.Type.ValType {
			return &ImportError{Index: i, Err: ErrInvalidGlobalInit}
		}
		inst.globals = append(inst.globals, &GlobalInstance{Type: g.Type, Value: v})
	}
	return nil
}

// evalConstExpr evaluates the restricted constant-expression grammar used
// by global initializers and element/data segment offsets: a single
// const instruction, or a global.get referencing an earlier global in the
// imported prefix (globalLimit entries).
func (inst *Instance) evalConstExpr(expr []Instruction, globalLimit int) (Value, error) {
	if len(expr) != 1 {
		return Value{}, ErrInvalidGlobalInit
	}
	in := expr[0]
	switch in.Op {
	case OpI32Const:
		return I32(in.I32Const), nil
	case OpI64Const:
		return I64(in.I64Const), nil
	case OpF32Const:
		return F32(in.F32Const), nil
	case OpF64Const:
		return F64(in.F64Const), nil
	case OpGlobalGet:
		if int(in.Index) >= globalLimit {
			return Value{}, ErrInvalidGlobalInit
		}
		g := inst.globals[in.Index]
		if g.Type.Mutability != Const {
			return Value{}, ErrInvalidGlobalInit
		}
		return g.Value, nil
	default:
		return Value{}, ErrInvalidGlobalInit
	}
}

func (inst *Instance) buildMemory(module *Module) error {
	if len(module.Memories) == 0 {
		return nil
	}
	if inst.memory != nil {
		return ErrMultipleMemories
	}
	inst.memory = NewMemory(module.Memories[0].Limits, nil)
	return nil
}

func (inst *Instance) buildTable(module *Module) error {
	if len(module.Tables) == 0 {
		return nil
	}
	if inst.table != nil {
		return ErrMultipleTables
	}
	inst.table = NewTable(module.Tables[0].Limits, nil)
	return nil
}

func (inst *Instance) applyElements(module *Module) error {
	importedGlobals := inst.numImportedGlobals()
	for i, el := range module.Elements {
		if inst.table == nil {
			return &SegmentError{Index: i, Err: ErrInvalidElem}
		}
		offVal, err := inst.evalConstExpr(el.Offset, importedGlobals)
		if err != nil {
			return &SegmentError{Index: i, Err: err}
		}
		off := offVal.U32()
		if int(off)+len(el.Init) > inst.table.Size() {
			return &SegmentError{Index: i, Err: ErrOutOfBoundsTable}
		}
		for j, fn := range el.Init {
			if int(fn) >= len(inst.funcs) {
				return &SegmentError{Index: i, Err: ErrInvalidFuncIndex}
			}
			inst.table.Set(off+uint32(j), fn)
		}
	}
	return nil
}

func (inst *Instance) applyData(module *Module) error {
	importedGlobals := inst.numImportedGlobals()
	for i, d := range module.Data {
		if inst.memory == nil {
			return &SegmentError{Index: i, Err: ErrInvalidData}
		}
		offVal, err := inst.evalConstExpr(d.Offset, importedGlobals)
		if err != nil {
			return &SegmentError{Index: i, Err: err}
		}
		off := offVal.U32()
		buf := inst.memory.Bytes()
		if int(off)+len(d.Init) > len(buf) {
			return &SegmentError{Index: i, Err: ErrOutOfBoundsMemory}
		}
		copy(buf[off:], d.Init)
	}
	return nil
}

// ExportedFunction looks up an exported function by name, returning
// (nil, false) if no such export exists or it is not a function.
func (inst *Instance) ExportedFunction(name string) (*ExportedFunc, bool) {
	exp, ok := inst.exportsByName[name]
	if !ok || exp.Kind != ExternKindFunc {
		return nil, false
	}
	return &ExportedFunc{inst: inst, index: exp.Index}, true
}

// Memory returns the instance's linear memory, or nil if it defines and
// imports none.
func (inst *Instance) Memory() *Memory { return inst.memory }

// ExportedFunc is a handle to a callable export, bound to the instance
// that owns it.
type ExportedFunc struct {
	inst  *Instance
	index uint32
}

// Type returns the function's signature.
func (f *ExportedFunc) Type() FunctionType {
	return f.inst.module.Types[f.inst.funcs[f.index].typeIndex]
}

// Call invokes the exported function with args, type-checking argument
// count and types against the signature before entering the interpreter.
func (f *ExportedFunc) Call(ctx context.Context, args ...Value) ([]Value, error) {
	return f.inst.invokeIndex(ctx, f.index, args)
}

package tinywasm

// Resolver supplies the externs a module's Import section asks for. Each
// method is optional: embedders that never expose a given extern kind can
// leave it nil (or embed NopResolver) rather than implement a method that
// always returns an error. Instantiate consults a Resolver exactly once
// per import, at link time, never again during execution.
type Resolver interface {
	// ResolveFunc returns the host function satisfying the named import.
	// The second return value reports whether the import was found; a
	// false with a nil error means "no such import", which Instantiate
	// turns into ErrUnresolvedImport.
	ResolveFunc(module, name string, sig FunctionType) (HostFunction, bool, error)
	// ResolveMemory returns the memory satisfying the named import.
	ResolveMemory(module, name string, typ MemoryType) (*Memory, bool, error)
	// ResolveTable returns the table satisfying the named import.
	ResolveTable(module, name string, typ TableType) (*Table, bool, error)
	// ResolveGlobal returns the global satisfying the named import. The
	// instance keeps the returned pointer, so the global is shared with
	// the host rather than copied.
	ResolveGlobal(module, name string, typ GlobalType) (*GlobalInstance, bool, error)
}

// NopResolver is a Resolver with every method returning "not found",
// suitable for embedding by callers that only need to supply one or two
// of the four resolve operations.
type NopResolver struct{}

func (NopResolver) ResolveFunc(string, string, FunctionType) (HostFunction, bool, error) {
	return nil, false, nil
}

func (NopResolver) ResolveMemory(string, string, MemoryType) (*Memory, bool, error) {
	return nil, false, nil
}

func (NopResolver) ResolveTable(string, string, TableType) (*Table, bool, error) {
	return nil, false, nil
}

func (NopResolver) ResolveGlobal(string, string, GlobalType) (*GlobalInstance, bool, error) {
	return nil, false, nil
}

// MapResolver is a convenience Resolver backed by plain maps, keyed by
// "module.name", for embedders wiring up a handful of host functions and
// no shared memory/table/global imports.
type MapResolver struct {
	NopResolver
	Funcs map[string]hostFuncEntry
}

type hostFuncEntry struct {
	Sig FunctionType
	Fn  HostFunction
}

// NewMapResolver creates an empty MapResolver.
func NewMapResolver() *MapResolver {
	return &MapResolver{Funcs: make(map[string]hostFuncEntry)}
}

// AddFunc registers a host function under module.name.
func (m *MapResolver) AddFunc(module, name string, sig FunctionType, fn HostFunction) {
	m.Funcs[module+"."+name] = hostFuncEntry{Sig: sig, Fn: fn}
}

func (m *MapResolver) ResolveFunc(module, name string, sig FunctionType) (HostFunction, bool, error) {
	e, ok := m.Funcs[module+"."+name]
	if !ok {
		return nil, false, nil
	}
	if !sameFunctionType(e.Sig, sig) {
		return nil, true, ErrFuncArgsMismatch
	}
	return e.Fn, true, nil
}

func sameFunctionType(a, b FunctionType) bool {
	if len(a.Params) != len(b.Params) || len(a.Results) != len(b.Results) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	for i := range a.Results {
		if a.Results[i] != b.Results[i] {
			return false
		}
	}
	return true
}

package tinywasm

// Table is a table instance: an array of optional function indices
// (funcref is the only reference type in the 1.0 MVP), sized at creation
// and never grown. An unset
// slot is represented by ok=false and traps with ErrUninitializedElement
// if called through call_indirect.
type Table struct {
	elems Vector[tableElem]
	limit Limits
}

type tableElem struct {
	funcIndex uint32
	set       bool
}

// NewTable creates a Table with every slot up to limit.Min unset.
func NewTable(limit Limits, backing Vector[tableElem]) *Table {
	if backing == nil {
		backing = NewHeapVector[tableElem](int(limit.Min))
	}
	t := &Table{elems: backing, limit: limit}
	for i := uint32(0); i < limit.Min; i++ {
		t.elems.Push(tableElem{})
	}
	return t
}

// Size reports the number of entries in the table.
func (t *Table) Size() int {
	return t.elems.Len()
}

// Get returns the function index stored at i and whether it is set. ok is
// false both when the slot is in-bounds-but-uninitialized and when i is
// out of bounds; callers distinguish those via Size.
func (t *Table) Get(i uint32) (uint32, bool) {
	if int(i) >= t.elems.Len() {
		return 0, false
	}
	e := t.elems.Get(int(i))
	return e.funcIndex, e.set
}

// Set writes a function index into slot i. i must be in bounds.
func (t *Table) Set(i uint32, funcIndex uint32) {
	t.elems.Set(int(i), tableElem{funcIndex: funcIndex, set: true})
}

// GlobalInstance is a global variable instance: its current value plus
// whether it may be written again after instantiation.
type GlobalInstance struct {
	Type  GlobalType
	Value Value
}

// Set writes a new value. It does not check mutability, and neither
// module decoding nor the interpreter's global.set does, so a global.set
// on a constant global overwrites it.
func (g *GlobalInstance) Set(v Value) {
	g.Value = v
}

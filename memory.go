package tinywasm

// Memory is a linear memory instance: a byte buffer sized in whole pages,
// growable up to an optional maximum. It is built on the Vector[byte]
// abstraction so an embedder building against a fixed-capacity backing
// (see Vector) gets the same ceiling enforced on memory.grow that a
// HeapVector would otherwise only hit by running out of host RAM.
type Memory struct {
	buf   Vector[byte]
	limit Limits
}

// NewMemory creates a Memory with the given limits, already grown to its
// minimum size (zero-filled, matching a freshly instantiated linear memory),
// using buf as its backing store. A nil buf defaults to a HeapVector.
func NewMemory(limit Limits, buf Vector[byte]) *Memory {
	if buf == nil {
		buf = NewHeapVector[byte](int(limit.Min) * PageSize)
	}
	m := &Memory{buf: buf, limit: limit}
	for i := uint32(0); i < limit.Min; i++ {
		m.growOnePage()
	}
	return m
}

// Pages reports the current size of the memory, in pages.
func (m *Memory) Pages() uint32 {
	return uint32(m.buf.Len() / PageSize)
}

func (m *Memory) growOnePage() bool {
	for i := 0; i < PageSize; i++ {
		if !m.buf.Push(0) {
			return false
		}
	}
	return true
}

// Grow implements the memory.grow instruction: attempts to grow by delta
// pages, returning the previous size in pages on success or -1 if the
// growth would exceed the declared maximum (or the backing Vector's fixed
// capacity).
func (m *Memory) Grow(delta uint32) int32 {
	prev := m.Pages()
	target := prev + delta
	if target < prev { // overflow
		return -1
	}
	if m.limit.Max != nil && target > *m.limit.Max {
		return -1
	}
	for i := uint32(0); i < delta; i++ {
		if !m.growOnePage() {
			// Partial growth is not observable: a Vector growth failure
			// here would only happen with a FixedVector sized below its
			// own declared maximum, a misconfiguration on the embedder's
			// part. Roll the buffer back to its previous size and report
			// failure.
			m.buf.Truncate(int(prev) * PageSize)
			return -1
		}
	}
	return int32(prev)
}

// Bytes returns the live backing slice. Callers must not retain it across
// a Grow call, which may reallocate.
func (m *Memory) Bytes() []byte {
	return m.buf.Slice()
}

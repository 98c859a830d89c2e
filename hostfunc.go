package tinywasm

import "context"

// HostContext is the capability a host function receives on every call:
// access to the instance's linear memory (nil if the instance defines or
// imports none), so host functions can read/write guest buffers without
// closing over the Instance itself.
type HostContext struct {
	Memory *Memory
}

// HostFunction is a function supplied by the embedder to satisfy a
// function import. It receives the already-type-checked argument values
// and returns result values matching the import's declared signature, or
// an error to abort execution (surfaced to the caller of
// ExportedFunc.Call wrapped as a trap, the same as any other execution
// error).
type HostFunction func(ctx context.Context, host HostContext, args []Value) ([]Value, error)

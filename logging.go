package tinywasm

// logCall emits a trace-level line for each function entry when the
// instance's logger has tracing enabled. It is a plain function rather
// than being inlined at the call site so the (rare) cost of formatting
// the arguments is only paid when tracing is actually on — logrus checks
// IsLevelEnabled inside Tracef before formatting anything.
func (inst *Instance) logCall(idx uint32, args []Value) {
	if inst.logger == nil {
		return
	}
	inst.logger.Tracef("tinywasm: call func=%d args=%v", idx, args)
}

package trace

// Memory access taps for native (non-instrumented) execution.
//
// When a unit executes through instrumented code, every access is
// captured by LogDynval calls the compilation pass inserted into the
// unit itself, and these taps never see it. When the engine falls back
// to native execution it reports accesses here instead. Full fidelity
// is only available in instrumented mode, so the taps deliberately
// record nothing; they exist to keep the hook surface complete and to
// give a host a single place to opt in later. This is a documented
// capability gap, not a bug.

// PhysMemRead is the native-mode read tap.
func (c *Context) PhysMemRead(pc uint64, addr uint64, size uint64) {
	// Native-mode accesses are not logged; see package note above.
}

// PhysMemWrite is the native-mode write tap.
func (c *Context) PhysMemWrite(pc uint64, addr uint64, size uint64) {
	// Native-mode accesses are not logged; see package note above.
}

// SyscallReturn forwards a completed guest syscall to the taint
// boundary. Only meaningful for user-mode guests; whole-system captures
// never invoke it.
func (c *Context) SyscallReturn(num int64, args []int64, path string, buf uint64, ret int64) error {
	return c.boundary.SyscallReturn(num, args, path, buf, ret)
}

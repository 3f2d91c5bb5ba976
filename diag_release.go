//go:build !gc_debug

package dagrc

// checkInvariants is a no-op outside of gc_debug builds. See
// diag_debug.go for the checks a gc_debug build runs instead.
func (a *Allocator) checkInvariants() {}

// DumpMemoryVariables is a no-op outside of gc_debug builds. See
// diag_debug.go for the dump a gc_debug build prints instead.
func (a *Allocator) DumpMemoryVariables() {}

//go:build gc_debug

package dagrc

import (
	"fmt"
	"os"
)

// checkInvariants walks every arena and bucket validating the
// invariants the allocator depends on, logging (not aborting on) any
// violation found. Only compiled into builds tagged gc_debug; a
// release build pays nothing for this, see diag_release.go.
func (a *Allocator) checkInvariants() {
	a.checkArenas()
	a.storage.checkBuckets()
}

// checkArenas verifies that every reachable node's descriptor variant
// agrees with its argument buffer (or the lack of one), and that no
// live Many-buffer ever reports a length past its capacity.
func (a *Allocator) checkArenas() {
	for ar := a.firstArena; ar != nil; ar = ar.next {
		for i := range ar.nodes {
			n := &ar.nodes[i]
			switch n.argKind {
			case ArgMany:
				if n.many == nil {
					fmt.Fprintf(os.Stderr, "gc_debug: arena %d slot %d is ArgMany with a nil buffer\n", ar.order, i)
					continue
				}
				if n.many.length > n.many.capacity {
					fmt.Fprintf(
						os.Stderr,
						"gc_debug: arena %d slot %d buffer length %d exceeds capacity %d\n",
						ar.order, i, n.many.length, n.many.capacity,
					)
				}
			case ArgSingle:
				// single may legitimately be nil (not yet attached).
			default:
				if n.many != nil || n.single != nil {
					fmt.Fprintf(os.Stderr, "gc_debug: arena %d slot %d is ArgNone but still holds a child pointer\n", ar.order, i)
				}
			}
		}
	}
}

// checkBuckets verifies that every in-use bucket reports a sane
// bytes-free value (never more than its total size).
func (sa *StorageAllocator) checkBuckets() {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	for b := sa.inUse; b != nil; b = b.next {
		if b.bytesFree > b.total {
			fmt.Fprintf(os.Stderr, "gc_debug: bucket reports %d bytes free out of %d total\n", b.bytesFree, b.total)
		}
	}
}

// DumpMemoryVariables prints the allocator's bookkeeping counters to
// stderr, matching the original implementation's diagnostic dump. Only
// compiled into builds tagged gc_debug; a release build pays nothing
// for this, see diag_release.go.
func (a *Allocator) DumpMemoryVariables() {
	a.lock()
	defer a.mu.Unlock()

	fmt.Fprintf(os.Stderr, "arenas: %d\n", a.nrArenas)
	fmt.Fprintf(os.Stderr, "active nodes: %d\n", a.liveCount.Load())
	fmt.Fprintf(os.Stderr, "last active rank: %d\n", a.lastActiveRank)
	fmt.Fprintf(
		os.Stderr,
		"need to collect garbage: %v\n",
		a.needToCollectGarbage || a.storage.WantToCollectGarbage(),
	)
	fmt.Fprintf(os.Stderr, "collections so far: %d\n", a.gcCount)
}

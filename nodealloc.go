package dagrc

import (
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"unsafe"

	sberr "github.com/barbell-math/smoothbrain-errs"
)

var nodeSize = int64(unsafe.Sizeof(Node{}))

// markContext carries the state threaded through a single mark-phase
// traversal: the storage allocator new Many-buffer copies are made
// against, the live-node counter, and a running high-water rank used
// to bound the next collection's finishing sweep.
type markContext struct {
	sa        *StorageAllocator
	liveCount *atomic.Int64
	highRank  int
}

// observe records that n has just been marked for the first time:
// bumps the live-node counter and extends the high-water rank if n
// sits further along in allocation order than anything seen so far.
func (mc *markContext) observe(n *Node) {
	mc.liveCount.Add(1)
	if n.rank > mc.highRank {
		mc.highRank = n.rank
	}
}

// Allocator is the node arena allocator: it hands out [Node] slots via
// a lazy mark-and-sweep scheme amortized across allocations, and
// drives full collection cycles that also compact the companion
// [StorageAllocator] and mark the registered root set.
//
// An Allocator must not be copied after first use. Its internal mutex
// is acquired with TryLock, so any contention panics rather than
// waiting: both a concurrent caller sharing one Allocator (see
// [DefaultAllocator]) and nested re-entry into a locked Allocator (for
// example, calling AllocateNode from code running inside a destructor
// during collection) are programming errors.
type Allocator struct {
	mu sync.Mutex

	storage *StorageAllocator
	roots   rootRegistry

	cfg  Config
	exit func(code int)

	liveCount atomic.Int64

	nrArenas     int
	firstArena   *arena
	lastArena    *arena
	currentArena *arena
	nextIndex    int
	endIndex     int

	needToCollectGarbage bool
	lastActiveRank       int
	gcCount              uint64
}

// NewAllocator returns a ready-to-use node allocator backed by
// storage, with no arenas allocated yet: the first call to
// AllocateNode (or AllocateNodeWithArgs) creates the first arena.
func NewAllocator(storage *StorageAllocator, cfg Config) *Allocator {
	return &Allocator{
		storage:        storage,
		cfg:            cfg,
		exit:           os.Exit,
		lastActiveRank: -1,
	}
}

// lock acquires the allocator's mutex, treating contention as a fatal
// deadlock diagnosis rather than something to wait out: the mutator is
// meant to be single-threaded with respect to a given Allocator, so
// contention here always signals a reentrant call.
func (a *Allocator) lock() {
	if !a.mu.TryLock() {
		panic(sberr.Wrap(ErrAllocatorLocked, "re-entrant call into a locked Allocator"))
	}
}

// NewRoot registers node as a root, pinning it and everything
// reachable from it against collection until the returned handle's
// Close method is called.
func (a *Allocator) NewRoot(node *Node) *RootHandle {
	return a.roots.register(node)
}

// AllocateNode hands out a node slot for symbol with no children
// attached (fixed by symbol's arity: 0 -> none, 1 -> a nil single slot,
// >=2 -> an empty Many buffer of that capacity).
func (a *Allocator) AllocateNode(symbol Symbol, kind Kind) *Node {
	a.lock()
	defer a.mu.Unlock()

	slot := a.allocateSlot()
	a.liveCount.Add(1)
	return initNode(slot, a.storage, symbol, kind)
}

// AllocateNodeWithArgs hands out a node slot for symbol populated with
// args. The descriptor variant is chosen from whichever of symbol's
// arity or len(args) is larger, matching [initNodeWithArgs].
func (a *Allocator) AllocateNodeWithArgs(symbol Symbol, kind Kind, args []*Node) *Node {
	a.lock()
	defer a.mu.Unlock()

	slot := a.allocateSlot()
	a.liveCount.Add(1)
	return initNodeWithArgs(slot, a.storage, symbol, kind, args)
}

// allocateSlot is the fast path: a lazy-sweep linear scan of the
// current window [nextIndex, endIndex) in currentArena, reusing the
// first slot that's either already free or found unmarked (and thus
// collectible in place), clearing stale Marked flags as it passes over
// still-live slots. Falls to slowNewNode on exhaustion.
func (a *Allocator) allocateSlot() *Node {
	if a.currentArena == nil {
		return a.slowNewNode()
	}

	for a.nextIndex != a.endIndex {
		idx := a.nextIndex
		node := &a.currentArena.nodes[idx]

		if node.SimpleReuse() {
			a.nextIndex = idx + 1
			return node
		}
		if !node.IsMarked() {
			node.destroy()
			a.nextIndex = idx + 1
			return node
		}
		node.flags = node.flags.Clear(Marked)
		a.nextIndex++
	}

	return a.slowNewNode()
}

// slowNewNode handles arena-window exhaustion: moving to the next
// arena, activating the current arena's reserve region, or allocating
// a brand new arena outright, re-entering the same lazy-sweep scan in
// the new window each time. A brand new arena created while the
// previous last arena's reserve has already been fully consumed gets
// no reserve of its own — this reproduces the original allocator's
// behavior rather than inventing a different one.
func (a *Allocator) slowNewNode() *Node {
	for {
		if a.currentArena == nil {
			a.currentArena = a.allocateNewArena()
			a.endIndex = ArenaSize - ReserveSize
			a.nextIndex = 1
			return a.currentArena.firstNode()
		}

		if next := a.currentArena.next; next == nil {
			a.needToCollectGarbage = true
			if a.endIndex != ArenaSize {
				a.nextIndex = a.endIndex
				a.endIndex = ArenaSize
			} else {
				a.currentArena = a.allocateNewArena()
				a.endIndex = ArenaSize
				a.nextIndex = 1
				return a.currentArena.firstNode()
			}
		} else {
			a.currentArena = next
			a.nextIndex = 0
			if next.next == nil {
				a.endIndex = ArenaSize - ReserveSize
			} else {
				a.endIndex = ArenaSize
			}
		}

		for a.nextIndex != a.endIndex {
			idx := a.nextIndex
			node := &a.currentArena.nodes[idx]

			if node.SimpleReuse() {
				a.nextIndex = idx + 1
				return node
			}
			if !node.IsMarked() {
				node.destroy()
				a.nextIndex = idx + 1
				return node
			}
			node.flags = node.flags.Clear(Marked)
			a.nextIndex++
		}
	}
}

// allocateNewArena links a fresh arena onto the tail of the arena
// list and returns it.
func (a *Allocator) allocateNewArena() *arena {
	ar := allocateArena(a.nrArenas)
	if a.lastArena == nil {
		a.firstArena = ar
	} else {
		a.lastArena.next = ar
	}
	a.lastArena = ar
	a.nrArenas++
	return ar
}

// WantToCollectGarbage reports whether either the node arenas or the
// storage allocator have crossed their pressure threshold since the
// last collection. This is a pure observer: it never runs a
// collection itself.
func (a *Allocator) WantToCollectGarbage() bool {
	a.lock()
	defer a.mu.Unlock()
	return a.needToCollectGarbage || a.storage.WantToCollectGarbage()
}

// OkToCollectGarbage is the mutator's safe point: call it wherever the
// caller holds no references into node buffers. If collection is
// wanted, it runs one full cycle via collectGarbage; otherwise it's a
// no-op. Mirrors the original's ok_to_collect_garbage/collect_garbage
// split, where the former is the only place the latter is ever
// invoked outside of tests.
func (a *Allocator) OkToCollectGarbage() {
	a.lock()
	defer a.mu.Unlock()

	if a.needToCollectGarbage || a.storage.WantToCollectGarbage() {
		a.collectGarbage()
	}
}

// CollectGarbage runs one full collection cycle: finishing the
// previous cycle's lazy sweep, marking from the root set, compacting
// storage, computing the next slop-factor capacity target, and
// resetting the allocation cursor back to the first arena.
func (a *Allocator) CollectGarbage() {
	a.lock()
	defer a.mu.Unlock()
	a.collectGarbage()
}

func (a *Allocator) collectGarbage() {
	if a.firstArena == nil {
		return
	}

	a.sweepArenas()

	oldActive := a.liveCount.Load()
	a.liveCount.Store(0)

	toBeFreed := a.storage.prepareToMark()

	mc := &markContext{sa: a.storage, liveCount: &a.liveCount, highRank: -1}
	a.roots.markRoots(mc)

	a.storage.sweep(toBeFreed)
	a.lastActiveRank = mc.highRank

	activeNodeCount := a.liveCount.Load()
	nodeCount := int64(a.nrArenas) * ArenaSize
	a.gcCount++

	if a.cfg.ShowGC {
		fmt.Printf("Collection: %d\n", a.gcCount)
		fmt.Printf(
			"Arenas: %d\tNodes: %d (%.2f MB)\tCollected: %d (%.2f MB)\tNow: %d (%.2f MB)\n",
			a.nrArenas, nodeCount, nodeMB(nodeCount),
			oldActive-activeNodeCount, nodeMB(oldActive-activeNodeCount),
			activeNodeCount, nodeMB(activeNodeCount),
		)
	}

	if a.cfg.EarlyQuit != 0 && a.gcCount == a.cfg.EarlyQuit {
		a.exit(0)
	}

	target := int(math.Ceil(float64(activeNodeCount) * slopFactorFor(activeNodeCount) / float64(ArenaSize)))
	for a.nrArenas < target {
		a.allocateNewArena()
	}

	a.currentArena = a.firstArena
	a.nextIndex = 0
	if a.currentArena.next == nil {
		a.endIndex = ArenaSize - ReserveSize
	} else {
		a.endIndex = ArenaSize
	}
	a.needToCollectGarbage = false

	a.checkInvariants()
}

// sweepArenas finishes the previous cycle's lazy sweep: walking from
// the current allocation cursor up to and including the former
// high-water mark (lastActiveRank), clearing stale Marked flags and
// running destructors on anything found dead along the way. If the
// allocation-time lazy sweep has already advanced the cursor past
// that mark, there is nothing left to finish and the walk is skipped
// outright — this is the amortization the lazy design exists for.
//
// Before the very first collection, lastActiveRank is -1 (nothing has
// ever been marked), so the walk is always skipped: there is nothing
// to clean up ahead of a mark phase that has never run.
func (a *Allocator) sweepArenas() {
	if a.currentArena == nil {
		return
	}

	currentRank := a.currentArena.order*ArenaSize + a.nextIndex
	if currentRank > a.lastActiveRank {
		return
	}

	c := a.currentArena
	d := a.nextIndex
	if d == ArenaSize {
		c = c.next
		d = 0
	}
	for {
		node := &c.nodes[d]
		rank := c.order*ArenaSize + d

		if node.IsMarked() {
			node.flags = node.flags.Clear(Marked)
		} else {
			if node.NeedsDestruction() {
				node.destroy()
			}
			node.clear()
		}

		if rank == a.lastActiveRank {
			return
		}

		d++
		if d == ArenaSize {
			c = c.next
			d = 0
		}
	}
}

// slopFactorFor returns the slop factor for the given post-collection
// active node count, linearly interpolating between SmallModelSlop and
// BigModelSlop as the count moves from LowerBound to UpperBound.
func slopFactorFor(activeNodeCount int64) float64 {
	switch {
	case activeNodeCount >= UpperBound:
		return BigModelSlop
	case activeNodeCount <= LowerBound:
		return SmallModelSlop
	default:
		span := float64(UpperBound - LowerBound)
		return BigModelSlop + float64(UpperBound-activeNodeCount)*(SmallModelSlop-BigModelSlop)/span
	}
}

// nodeMB converts a node count to megabytes of arena storage, for the
// show-gc diagnostic line.
func nodeMB(count int64) float64 {
	return float64(count*nodeSize) / (1024.0 * 1024.0)
}

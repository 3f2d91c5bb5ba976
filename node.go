package dagrc

// Kind is a small enumeration tag that is semantic to the rewriting
// engine and opaque to the garbage collector. The allocator never
// inspects it beyond copying it around.
type Kind uint8

// KindFree is the zero value of Kind, matching a freshly zeroed arena
// slot before anything has initialized it.
const KindFree Kind = 0

// ArgKind tags which variant a [Node]'s argument descriptor holds.
type ArgKind uint8

const (
	// ArgNone means the node has no children.
	ArgNone ArgKind = iota
	// ArgSingle means the node has exactly one child, held inline.
	ArgSingle
	// ArgMany means the node's children live in an externally
	// allocated [NodeBuffer].
	ArgMany
)

// Node is the fixed-size DAG record the allocator manages. Every Node
// occupies the same number of bytes regardless of its argument count:
// the descriptor variant is a tag plus two pointer-sized fields, not a
// variable-length payload.
//
// A Node must never be copied by value once it has been handed out by
// [Allocator.AllocateNode]: its address is its identity for as long as
// it's reachable, since the node arena is never compacted.
type Node struct {
	symbol  Symbol
	single  *Node
	many    *NodeBuffer
	kind    Kind
	flags   Flags
	argKind ArgKind

	// rank is the node's fixed position in global allocation order,
	// assigned once by allocateArena and never changed. It lets the
	// collector compare two nodes' "addresses" without relying on
	// pointer ordering, which Go does not guarantee. See DESIGN.md.
	rank int
}

// Symbol returns the node's symbol.
func (n *Node) Symbol() Symbol {
	return n.symbol
}

// Kind returns the node's kind tag.
func (n *Node) Kind() Kind {
	return n.kind
}

// ArgKind reports which argument-descriptor variant the node currently
// holds.
func (n *Node) ArgKind() ArgKind {
	return n.argKind
}

// Flags returns the node's current flag set.
func (n *Node) Flags() Flags {
	return n.flags
}

// Children returns a view of the node's current children. The slice
// returned for an ArgMany node aliases the node's buffer; it must not
// be retained across a safe point, since the buffer may move on the
// next collection.
func (n *Node) Children() []*Node {
	switch n.argKind {
	case ArgSingle:
		return []*Node{n.single}
	case ArgMany:
		return n.many.data[:n.many.length]
	default:
		return nil
	}
}

// PushChild appends child to the node's Many-argument buffer. It
// returns [ErrFixedArity] if the node isn't an ArgMany node (arity 0 or
// 1 nodes have fixed argument slots) and [ErrBufferFull] if the buffer
// has no remaining capacity — an ordinary failure signal the caller
// can handle by reallocating with a larger capacity; this is not a
// collector concern.
func (n *Node) PushChild(child *Node) error {
	if n.argKind != ArgMany {
		return ErrFixedArity
	}
	return n.many.Push(child)
}

// PopChild removes and returns the last child of the node's Many
// argument buffer. The second return value is false if the buffer is
// empty or the node is not an ArgMany node.
func (n *Node) PopChild() (*Node, bool) {
	if n.argKind != ArgMany {
		return nil, false
	}
	return n.many.Pop()
}

// IsMarked reports whether the node is flagged reachable in the
// current collection cycle.
func (n *Node) IsMarked() bool {
	return n.flags.Has(Marked)
}

// NeedsDestruction reports whether the node owns externally allocated
// storage (an ArgMany buffer) that must be released via [Node.destroy]
// when the node is found dead.
func (n *Node) NeedsDestruction() bool {
	return n.argKind == ArgMany
}

// SimpleReuse reports whether the node slot can be reused without
// running a destructor: not marked, and not holding a buffer.
func (n *Node) SimpleReuse() bool {
	return !n.IsMarked() && !n.NeedsDestruction()
}

// destroy releases logical ownership of the node's buffer. The backing
// memory itself is reclaimed later by the bucket sweep; this is
// bookkeeping, not a free.
func (n *Node) destroy() {
	n.many = nil
	n.argKind = ArgNone
}

// clear resets every flag and the argument descriptor to a known-empty
// state, used by the sweeper on slots that don't need destruction.
func (n *Node) clear() {
	n.flags = 0
	n.argKind = ArgNone
	n.single = nil
	n.many = nil
}

// mark flags the node reachable, records it in mc's live-node
// bookkeeping, and recursively marks its children. For an ArgMany
// node, the child buffer is first reallocated (shallow-copied) into
// the storage allocator's current destination buckets, and the node's
// descriptor is rewritten to point at the copy, before the copy's
// entries are traversed. Idempotent: marking an already-marked node is
// a no-op, which is what keeps an accidental cycle from causing
// unbounded recursion.
func (n *Node) mark(mc *markContext) {
	if n.IsMarked() {
		return
	}
	n.flags = n.flags.Set(Marked)
	mc.observe(n)

	switch n.argKind {
	case ArgSingle:
		if n.single != nil {
			n.single.mark(mc)
		}
	case ArgMany:
		newBuf := n.many.shallowCopy(mc.sa)
		n.many = newBuf
		for i := 0; i < newBuf.length; i++ {
			newBuf.data[i].mark(mc)
		}
	}
}

// initNode sets up a freshly allocated (or reused) slot for a symbol of
// the given arity, allocating a Many buffer via sa when the arity is
// two or more. The descriptor variant always agrees with the symbol's
// arity: 0 -> None, 1 -> Single (nil target until a child is attached),
// >=2 -> Many.
func initNode(slot *Node, sa *StorageAllocator, symbol Symbol, kind Kind) *Node {
	slot.symbol = symbol
	slot.kind = kind
	slot.flags = 0

	arity := symbol.Arity()
	switch {
	case arity >= 2:
		slot.argKind = ArgMany
		slot.single = nil
		slot.many = newNodeBuffer(sa, int(arity))
	case arity == 1:
		slot.argKind = ArgSingle
		slot.single = nil
		slot.many = nil
	default:
		slot.argKind = ArgNone
		slot.single = nil
		slot.many = nil
	}

	return slot
}

// initNodeWithArgs sets up a freshly allocated slot with explicit
// children, mirroring the original's with_args constructor: the
// descriptor variant is chosen from whichever of the symbol's arity or
// the supplied argument count is larger.
func initNodeWithArgs(slot *Node, sa *StorageAllocator, symbol Symbol, kind Kind, args []*Node) *Node {
	slot.symbol = symbol
	slot.kind = kind
	slot.flags = 0

	capacity := int(symbol.Arity())
	if len(args) > capacity {
		capacity = len(args)
	}

	switch {
	case capacity >= 2:
		slot.argKind = ArgMany
		slot.single = nil
		slot.many = newNodeBufferFromSlice(sa, args, capacity)
	case capacity == 1:
		slot.argKind = ArgSingle
		slot.single = nil
		if len(args) == 1 {
			slot.single = args[0]
		}
		slot.many = nil
	default:
		slot.argKind = ArgNone
		slot.single = nil
		slot.many = nil
	}

	return slot
}

package dagrc

// ArenaSize is the fixed number of node slots per arena.
const ArenaSize = 5460

// arena is a fixed-capacity contiguous block of node slots, linked
// singly into the node allocator's arena list. Arenas are never freed
// individually; the arena list only grows.
//
// order is the arena's 0-based position in allocation order. Combined
// with a slot's index, it gives every [Node] a rank: a single
// comparable integer standing in for what the original implementation
// gets for free from raw pointer arithmetic. Go doesn't guarantee a
// stable ordering between two arbitrary heap pointers, so an explicit
// rank is the idiomatic replacement — see DESIGN.md.
type arena struct {
	next  *arena
	order int
	nodes [ArenaSize]Node
}

// allocateArena returns a new arena with every slot zero-initialized:
// all flags clear, argument descriptor ArgNone, nil symbol. Go's zero
// value for [Node] already satisfies that, so only the rank field
// needs an explicit per-slot pass.
func allocateArena(order int) *arena {
	a := &arena{order: order}
	for i := range a.nodes {
		a.nodes[i].rank = order*ArenaSize + i
	}
	return a
}

// firstNode returns a pointer to the arena's first slot.
func (a *arena) firstNode() *Node {
	return &a.nodes[0]
}

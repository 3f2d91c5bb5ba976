package dagrc

import "math/rand"

// testSymbol is a minimal [Symbol] implementation used throughout the
// test suite; production callers supply their own symbol table type.
type testSymbol struct {
	name  string
	arity uint8
}

func (s testSymbol) Arity() uint8 { return s.arity }

var (
	symLeaf    = testSymbol{name: "leaf", arity: 0}
	symUnary   = testSymbol{name: "unary", arity: 1}
	symBinary  = testSymbol{name: "binary", arity: 2}
	symTernary = testSymbol{name: "ternary", arity: 3}
	symWide    = testSymbol{name: "wide", arity: 4}
	symQuinary = testSymbol{name: "quinary", arity: 5}
	symSenary  = testSymbol{name: "senary", arity: 6}
	symSeptary = testSymbol{name: "septary", arity: 7}
)

// symsByArity indexes the arity-0..7 symbols above by their arity, for
// callers that need to pick one at random.
var symsByArity = [8]testSymbol{
	symLeaf, symUnary, symBinary, symTernary,
	symWide, symQuinary, symSenary, symSeptary,
}

// newTestAllocator returns a fresh, isolated allocator pair with GC
// diagnostics silenced, suitable for unit tests that don't want
// stdout noise or shared global state.
func newTestAllocator() *Allocator {
	sa := NewStorageAllocator()
	sa.showGC = false
	cfg := DefaultConfig()
	cfg.ShowGC = false
	return NewAllocator(sa, cfg)
}

// buildChain allocates a linear chain of n unary nodes, each one's
// single child pointing at the next-allocated node, terminated by a
// leaf. Returns the head of the chain.
func buildChain(a *Allocator, n int) *Node {
	if n <= 0 {
		return a.AllocateNode(symLeaf, KindFree)
	}
	head := a.AllocateNodeWithArgs(symUnary, KindFree, nil)
	cur := head
	for i := 1; i < n; i++ {
		child := a.AllocateNodeWithArgs(symUnary, KindFree, nil)
		cur.single = child
		cur = child
	}
	cur.single = a.AllocateNode(symLeaf, KindFree)
	return head
}

// buildBinaryTree allocates a balanced-ish binary tree with depth
// levels of ArgMany(2) nodes, leaves at the bottom, and returns the
// root. Used by the fanout scenario.
func buildBinaryTree(a *Allocator, depth int) *Node {
	if depth <= 0 {
		return a.AllocateNode(symLeaf, KindFree)
	}
	left := buildBinaryTree(a, depth-1)
	right := buildBinaryTree(a, depth-1)
	return a.AllocateNodeWithArgs(symBinary, KindFree, []*Node{left, right})
}

// buildRandomTree allocates a tree of roughly *remaining nodes with
// arity drawn uniformly from 0-7 at every level, using rng for symbol
// selection. remaining is consumed node-by-node as the tree grows and
// the walk forces a leaf once it runs out, so the final count is close
// to but not guaranteed to exactly equal the starting *remaining. Used by the stress scenario to
// cover every fixed-arity and variable-arity ([ArgSingle] through a
// 7-wide [ArgMany]) shape in a single pass.
func buildRandomTree(a *Allocator, rng *rand.Rand, remaining *int) *Node {
	if *remaining <= 1 {
		*remaining--
		return a.AllocateNode(symLeaf, KindFree)
	}
	*remaining--

	arity := rng.Intn(8)
	if arity == 0 {
		return a.AllocateNode(symLeaf, KindFree)
	}

	sym := symsByArity[arity]
	children := make([]*Node, arity)
	for i := range children {
		children[i] = buildRandomTree(a, rng, remaining)
	}
	return a.AllocateNodeWithArgs(sym, KindFree, children)
}

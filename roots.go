package dagrc

import (
	"sync"
)

// RootHandle pins a [Node] so that it (and everything transitively
// reachable from it) survives collection. A handle created with a nil
// node is inert: it is never linked into the registry and Close is a
// no-op.
//
// Unlike the original implementation's Drop-based unlinking, a
// RootHandle in Go must be unregistered explicitly by calling Close —
// Go has no deterministic destructors, so letting a handle go out of
// scope does not unregister it.
type RootHandle struct {
	reg        *rootRegistry
	prev, next *RootHandle
	node       *Node
}

// Node returns the handle's pinned node, or nil for an inert handle or
// one that has been closed.
func (h *RootHandle) Node() *Node {
	return h.node
}

// Close unregisters the handle. Safe to call more than once.
func (h *RootHandle) Close() error {
	if h.node == nil {
		return nil
	}

	r := h.reg
	r.mu.Lock()
	defer r.mu.Unlock()

	if h.next != nil {
		h.next.prev = h.prev
	}
	if h.prev != nil {
		h.prev.next = h.next
	} else {
		r.head = h.next
	}

	h.node = nil
	h.prev = nil
	h.next = nil
	return nil
}

// rootRegistry is a doubly-linked list of registered root handles whose
// targets must survive collection. Registering is O(1) (head
// insertion); unregistering is O(1) (neighbor relink).
type rootRegistry struct {
	mu   sync.Mutex
	head *RootHandle
}

// register pins node and returns an opaque handle linked into the
// registry's head. A nil node produces an inert handle.
func (r *rootRegistry) register(node *Node) *RootHandle {
	h := &RootHandle{reg: r, node: node}
	if node == nil {
		return h
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h.next = r.head
	if r.head != nil {
		r.head.prev = h
	}
	r.head = h

	return h
}

// markRoots iterates the registry from head, marking each registered
// node. Order is unspecified; mark is idempotent, so order never
// affects correctness. Called exclusively by the node allocator's mark
// phase.
func (r *rootRegistry) markRoots(mc *markContext) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for h := r.head; h != nil; h = h.next {
		if h.node != nil {
			h.node.mark(mc)
		}
	}
}

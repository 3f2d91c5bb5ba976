// Package dagrc implements the garbage collected memory subsystem for a
// term-rewriting engine's directed acyclic graph of nodes.
//
// It is really two cooperating allocators that share a single mark
// phase:
//
//   - A node arena allocator ([Allocator]) that manages a population of
//     fixed-size [Node] slots with a lazy mark-and-sweep discipline.
//   - A bucket storage allocator ([StorageAllocator]) that manages
//     variable-size [NodeBuffer] storage using a mark-and-copy
//     discipline that compacts live data into empty buckets during
//     collection.
//
// A [RootHandle] registry anchors liveness: any node reachable from a
// registered root survives a collection cycle, everything else doesn't.
//
// The allocators are process-global singletons ([DefaultAllocator],
// [DefaultStorageAllocator]) serialized by a mutex. Collection never
// runs implicitly; call [Allocator.OkToCollectGarbage] at a point where
// you hold no references into node buffers.
package dagrc

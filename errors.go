package dagrc

import (
	"errors"
)

var (
	// ErrNotWordMultiple is wrapped into the panic raised when
	// [StorageAllocator.Allocate] is asked for a byte count that is not
	// a whole multiple of the machine word size. This is a precondition
	// violation, not a recoverable condition.
	ErrNotWordMultiple = errors.New(
		"storage request size is not a whole multiple of the machine word size",
	)

	// ErrAllocatorLocked is raised when an [Allocator]'s mutex is
	// already held, by any caller, at the moment a call tries to
	// acquire it. Contention on
	// these singletons is a bug (the mutator is meant to be
	// single-threaded with respect to allocation), so this is treated
	// as a fatal deadlock diagnosis rather than something to retry.
	ErrAllocatorLocked = errors.New("allocator is already locked: deadlock")

	// ErrBufferFull is returned by [Node.PushChild] when the node's
	// Many-argument buffer has no remaining capacity. This is an
	// ordinary failure signal, not a collector concern: the caller may
	// reallocate with a larger capacity and retry.
	ErrBufferFull = errors.New("node buffer has no remaining capacity")

	// ErrFixedArity is returned by [Node.PushChild] when the node's
	// argument descriptor isn't ArgMany: arity 0 and 1 nodes have a
	// fixed number of argument slots that can't grow. [Node.PopChild]
	// reports the same case by returning false, not an error.
	ErrFixedArity = errors.New("node has a fixed argument arity")

	// ErrOutOfMemory is wrapped into the panic raised when a freshly
	// created bucket cannot serve the request it was sized for. Arena
	// creation does not use it. There is no recovery: the engine has no
	// useful fallback.
	ErrOutOfMemory = errors.New("out of memory")
)

package dagrc

import (
	"fmt"
	"sync"
	"unsafe"

	sberr "github.com/barbell-math/smoothbrain-errs"
)

const (
	// MinBucketSize is the bucket size used for ordinary allocations.
	MinBucketSize uintptr = 256*1024 - 8
	// BucketMultiplier determines the bucket size used for outsized
	// (larger than MinBucketSize) allocations.
	BucketMultiplier uintptr = 8
	// InitialTarget is the initial "collect once we've used this many
	// bytes" threshold, just under 8/9 of MinBucketSize.
	InitialTarget uintptr = 220 * 1024
	// TargetMultiplier scales the post-collection target relative to
	// the bytes actually in use after the sweep.
	TargetMultiplier uintptr = 8
)

// StorageAllocator bump-allocates variable-size byte buffers out of
// buckets, and participates in the node allocator's collection cycle by
// serving copy destinations for live buffers and resetting reclaimed
// buckets.
//
// A StorageAllocator must not be copied after first use; guard access
// to a shared instance with its own mutex (see [DefaultStorageAllocator]).
type StorageAllocator struct {
	mu sync.Mutex

	showGC               bool
	needToCollectGarbage bool

	bucketCount         uint32
	inUse               *bucket
	unused              *bucket
	storageInUse        uintptr
	totalBytesAllocated uintptr
	oldStorageInUse     uintptr
	target              uintptr
}

// NewStorageAllocator returns a ready-to-use storage allocator with the
// default target and show-gc settings.
func NewStorageAllocator() *StorageAllocator {
	return &StorageAllocator{
		showGC: true,
		target: InitialTarget,
	}
}

// Allocate bump-allocates bytesNeeded bytes of storage. bytesNeeded must
// be a whole multiple of the machine word size; violating that is a
// precondition violation and panics rather than returning an error,
// per spec.
//
// If the allocation crosses the allocator's target, the allocator's
// want-GC condition becomes true; the caller observes this separately
// via [StorageAllocator.WantToCollectGarbage] (allocation only ever
// sets the flag, it never triggers collection itself).
func (sa *StorageAllocator) Allocate(bytesNeeded uintptr) unsafe.Pointer {
	if bytesNeeded%wordSize != 0 {
		panic(sberr.Wrap(
			ErrNotWordMultiple,
			"only whole machine words can be allocated, got %d bytes", bytesNeeded,
		))
	}

	sa.mu.Lock()
	defer sa.mu.Unlock()

	sa.storageInUse += bytesNeeded
	if sa.storageInUse > sa.target {
		sa.needToCollectGarbage = true
	}

	for b := sa.inUse; b != nil; b = b.next {
		if ptr := b.tryAllocate(bytesNeeded); ptr != nil {
			return ptr
		}
	}

	return sa.slowAllocate(bytesNeeded)
}

// WantToCollectGarbage reports whether storage pressure alone has asked
// for a collection.
func (sa *StorageAllocator) WantToCollectGarbage() bool {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	return sa.needToCollectGarbage
}

// slowAllocate is called with sa.mu held. It first looks for room in
// the unused list (splicing a fitting bucket onto the in-use list
// head), and failing that allocates a fresh bucket sized
// max(MinBucketSize, BucketMultiplier*bytesNeeded).
func (sa *StorageAllocator) slowAllocate(bytesNeeded uintptr) unsafe.Pointer {
	var prev *bucket
	for b := sa.unused; b != nil; b = b.next {
		if b.bytesFree >= bytesNeeded {
			if prev == nil {
				sa.unused = b.next
			} else {
				prev.next = b.next
			}
			b.next = sa.inUse
			sa.inUse = b

			return b.tryAllocate(bytesNeeded)
		}
		prev = b
	}

	size := BucketMultiplier * bytesNeeded
	if size < MinBucketSize {
		size = MinBucketSize
	}

	b := newBucket(size)
	sa.bucketCount++
	sa.totalBytesAllocated += size

	b.next = sa.inUse
	sa.inUse = b

	ptr := b.tryAllocate(bytesNeeded)
	if ptr == nil {
		panic(sberr.Wrap(
			ErrOutOfMemory,
			"freshly allocated %d byte bucket could not serve a %d byte request",
			size, bytesNeeded,
		))
	}
	return ptr
}

// prepareToMark is called at the start of a collection cycle (after the
// node allocator's lazy sweep finishes): the in-use list becomes the
// "to be freed" set, the unused list is promoted to the new in-use
// list (the destination for copying live data during mark), and
// storageInUse resets to zero so the mark phase can recompute it.
// Returns the old in-use list so the caller can sweep it once mark
// completes.
func (sa *StorageAllocator) prepareToMark() *bucket {
	sa.oldStorageInUse = sa.storageInUse
	toBeFreed := sa.inUse

	sa.inUse = sa.unused
	sa.unused = nil
	sa.storageInUse = 0
	sa.needToCollectGarbage = false

	return toBeFreed
}

// sweep resets every bucket in toBeFreed to empty and links the whole
// list in as the new unused list, then raises target if storage use
// demands it.
func (sa *StorageAllocator) sweep(toBeFreed *bucket) {
	sa.unused = toBeFreed
	for b := toBeFreed; b != nil; b = b.next {
		b.reset()
	}

	if want := TargetMultiplier * sa.storageInUse; want > sa.target {
		sa.target = want
	}

	if sa.showGC {
		fmt.Printf(
			"Buckets: %d\tBytes: %d (%.2f MB)\tIn use: %d (%.2f MB)\tCollected: %d (%.2f MB)\tNow: %d (%.2f MB)\n",
			sa.bucketCount,
			sa.totalBytesAllocated, mb(sa.totalBytesAllocated),
			sa.oldStorageInUse, mb(sa.oldStorageInUse),
			sa.oldStorageInUse-sa.storageInUse, mb(sa.oldStorageInUse-sa.storageInUse),
			sa.storageInUse, mb(sa.storageInUse),
		)
	}
}

func mb(bytes uintptr) float64 {
	return float64(bytes) / (1024.0 * 1024.0)
}

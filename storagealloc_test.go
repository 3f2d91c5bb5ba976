package dagrc

import (
	"testing"
	"unsafe"

	sbtest "github.com/barbell-math/smoothbrain-test"
)

func TestStorageAllocatorRejectsNonWordMultiple(t *testing.T) {
	sa := NewStorageAllocator()
	defer func() {
		r := recover()
		sbtest.Eq(t, false, r == nil)
	}()
	sa.Allocate(3)
}

func TestStorageAllocatorAllocateServesFromInUseBucket(t *testing.T) {
	sa := NewStorageAllocator()
	sa.showGC = false

	p1 := sa.Allocate(uintptr(wordSize))
	p2 := sa.Allocate(uintptr(wordSize))
	sbtest.Eq(t, false, p1 == nil)
	sbtest.Eq(t, false, p2 == nil)
	sbtest.Eq(t, false, p1 == p2)
	sbtest.Eq(t, uint32(1), sa.bucketCount)
}

func TestStorageAllocatorOutsizedRequestGetsBiggerBucket(t *testing.T) {
	sa := NewStorageAllocator()
	sa.showGC = false

	big := MinBucketSize * 2
	big -= big % wordSize

	sa.Allocate(big)
	sbtest.Eq(t, uint32(1), sa.bucketCount)
}

func TestStorageAllocatorWantToCollectGarbageOnTarget(t *testing.T) {
	sa := NewStorageAllocator()
	sa.showGC = false
	sa.target = uintptr(wordSize)

	sbtest.Eq(t, false, sa.WantToCollectGarbage())
	sa.Allocate(uintptr(wordSize) * 2)
	sbtest.Eq(t, true, sa.WantToCollectGarbage())
}

func TestStorageAllocatorPrepareToMarkAndSweepRoundTrip(t *testing.T) {
	sa := NewStorageAllocator()
	sa.showGC = false

	sa.Allocate(uintptr(wordSize))
	sa.Allocate(uintptr(wordSize))

	toBeFreed := sa.prepareToMark()
	sbtest.Eq(t, false, toBeFreed == nil)
	sbtest.Eq(t, (*bucket)(nil), sa.inUse)
	sbtest.Eq(t, uintptr(0), sa.storageInUse)

	// Simulate the mark phase re-allocating into the now-empty in-use
	// list.
	sa.Allocate(uintptr(wordSize))

	sa.sweep(toBeFreed)
	sbtest.Eq(t, false, sa.unused == nil)
	for b := sa.unused; b != nil; b = b.next {
		sbtest.Eq(t, b.total, b.bytesFree)
	}
}

func TestStorageAllocatorSlowAllocateReusesUnusedBucket(t *testing.T) {
	sa := NewStorageAllocator()
	sa.showGC = false

	sa.Allocate(uintptr(wordSize))
	toBeFreed := sa.prepareToMark()
	sa.sweep(toBeFreed)
	sbtest.Eq(t, uint32(1), sa.bucketCount)

	sa.Allocate(uintptr(wordSize))
	// Reused the bucket that sweep put on the unused list rather than
	// allocating a new one.
	sbtest.Eq(t, uint32(1), sa.bucketCount)
}

func TestStorageAllocatorAllocatedBytesAreUsable(t *testing.T) {
	sa := NewStorageAllocator()
	sa.showGC = false

	ptr := sa.Allocate(uintptr(wordSize))
	*(*uintptr)(ptr) = 0xABCD
	sbtest.Eq(t, uintptr(0xABCD), *(*uintptr)(unsafe.Pointer(ptr)))
}

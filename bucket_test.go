package dagrc

import (
	"testing"
	"unsafe"

	sbtest "github.com/barbell-math/smoothbrain-test"
)

func TestBucketTryAllocateBasic(t *testing.T) {
	b := newBucket(64)
	ptr := b.tryAllocate(8)
	sbtest.Eq(t, false, ptr == nil)
	sbtest.Eq(t, uintptr(56), b.bytesFree)
	sbtest.Eq(t, uintptr(8), b.nextFree)
}

func TestBucketTryAllocateRealigns(t *testing.T) {
	b := newBucket(64)
	// 3 bytes leaves the cursor unaligned; the next allocation must
	// still land on an 8-byte boundary.
	ptr := b.tryAllocate(3)
	sbtest.Eq(t, false, ptr == nil)
	sbtest.Eq(t, uintptr(8), b.nextFree)
	sbtest.Eq(t, uintptr(56), b.bytesFree)
}

func TestBucketTryAllocateOutOfRoom(t *testing.T) {
	b := newBucket(8)
	sbtest.Eq(t, false, b.tryAllocate(8) == nil)
	sbtest.Eq(t, true, b.tryAllocate(8) == nil)
}

func TestBucketReset(t *testing.T) {
	b := newBucket(32)
	b.tryAllocate(16)
	b.reset()
	sbtest.Eq(t, uintptr(32), b.bytesFree)
	sbtest.Eq(t, uintptr(0), b.nextFree)
}

func TestWordSizeMatchesPlatform(t *testing.T) {
	sbtest.Eq(t, unsafe.Sizeof(uintptr(0)), wordSize)
}

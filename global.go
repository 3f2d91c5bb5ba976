package dagrc

import "sync"

var (
	defaultStorage  *StorageAllocator
	defaultAlloc    *Allocator
	defaultInitOnce sync.Once
)

func initDefaults() {
	defaultStorage = NewStorageAllocator()
	defaultAlloc = NewAllocator(defaultStorage, DefaultConfig())
}

// DefaultAllocator returns the process-wide node allocator, creating
// it (along with its companion [DefaultStorageAllocator]) on first
// use. Most programs only ever need this single shared instance;
// [NewAllocator] exists for tests and for callers that want an
// isolated arena of their own.
func DefaultAllocator() *Allocator {
	defaultInitOnce.Do(initDefaults)
	return defaultAlloc
}

// DefaultStorageAllocator returns the process-wide storage allocator
// backing [DefaultAllocator].
func DefaultStorageAllocator() *StorageAllocator {
	defaultInitOnce.Do(initDefaults)
	return defaultStorage
}

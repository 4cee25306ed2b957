package alloc

import (
	"sync"
	"unsafe"
)

// SyncAllocator serializes access to an inner allocator with a mutex, making
// it safe to share between goroutines. It is itself just another forwarding
// allocator: intercept, lock, delegate, unlock.
type SyncAllocator struct {
	mu    sync.Mutex
	inner Allocator
}

// NewSync ...
func NewSync(inner Allocator) *SyncAllocator {
	return &SyncAllocator{inner: inner}
}

// Allocate ...
func (s *SyncAllocator) Allocate(layout Layout) unsafe.Pointer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Allocate(layout)
}

// Deallocate ...
func (s *SyncAllocator) Deallocate(ptr unsafe.Pointer, layout Layout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner.Deallocate(ptr, layout)
}

// Resize ...
func (s *SyncAllocator) Resize(ptr unsafe.Pointer, layout Layout, newSize uintptr) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Resize(s.inner, ptr, layout, newSize)
}

// Query ...
func (s *SyncAllocator) Query(ptr unsafe.Pointer, layout Layout) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Query(s.inner, ptr, layout)
}

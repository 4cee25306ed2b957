package alloc

import "unsafe"

// ThresholdAllocator wraps an inner allocator and rejects any request that
// would push the cumulative number of granted bytes above a fixed threshold.
// Rejection happens before the inner allocator is consulted. It is the
// minimal shape for injecting quota policy between callers and a backend:
// intercept, decide, delegate, update local state.
type ThresholdAllocator struct {
	inner     Allocator
	threshold uintptr
	used      uintptr
}

// NewThreshold ...
func NewThreshold(inner Allocator, threshold uintptr) *ThresholdAllocator {
	return &ThresholdAllocator{
		inner:     inner,
		threshold: threshold,
	}
}

// Allocate ...
func (t *ThresholdAllocator) Allocate(layout Layout) unsafe.Pointer {
	if t.used+layout.Size() > t.threshold {
		return nil
	}
	ptr := t.inner.Allocate(layout)
	if ptr == nil {
		return nil
	}
	t.used += layout.Size()
	return ptr
}

// Deallocate ...
func (t *ThresholdAllocator) Deallocate(ptr unsafe.Pointer, layout Layout) {
	if ptr == nil {
		return
	}
	t.inner.Deallocate(ptr, layout)
	t.used -= layout.Size()
}

// Resize re-checks the quota with the size delta before delegating.
func (t *ThresholdAllocator) Resize(ptr unsafe.Pointer, layout Layout, newSize uintptr) bool {
	if newSize > layout.Size() && t.used+(newSize-layout.Size()) > t.threshold {
		return false
	}
	if !Resize(t.inner, ptr, layout, newSize) {
		return false
	}
	t.used = t.used - layout.Size() + newSize
	return true
}

// Query ...
func (t *ThresholdAllocator) Query(ptr unsafe.Pointer, layout Layout) bool {
	return Query(t.inner, ptr, layout)
}

// Used returns the cumulative bytes currently granted through this wrapper.
func (t *ThresholdAllocator) Used() uintptr {
	return t.used
}

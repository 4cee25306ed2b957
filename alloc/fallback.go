package alloc

import "unsafe"

// FallbackAllocator delegates to a primary allocator and falls back to a
// secondary when the primary rejects a request. The primary must implement
// Querier so deallocations and resizes can be routed back to the allocator
// that granted them.
type FallbackAllocator struct {
	primary   Allocator
	query     Querier
	secondary Allocator
}

// NewFallback ...
func NewFallback(primary Allocator, secondary Allocator) *FallbackAllocator {
	query, ok := primary.(Querier)
	if !ok {
		panic("alloc: fallback primary must implement Querier")
	}
	return &FallbackAllocator{
		primary:   primary,
		query:     query,
		secondary: secondary,
	}
}

// Allocate ...
func (f *FallbackAllocator) Allocate(layout Layout) unsafe.Pointer {
	if ptr := f.primary.Allocate(layout); ptr != nil {
		return ptr
	}
	return f.secondary.Allocate(layout)
}

// Deallocate ...
func (f *FallbackAllocator) Deallocate(ptr unsafe.Pointer, layout Layout) {
	if ptr == nil {
		return
	}
	if f.query.Query(ptr, layout) {
		f.primary.Deallocate(ptr, layout)
		return
	}
	f.secondary.Deallocate(ptr, layout)
}

// Resize ...
func (f *FallbackAllocator) Resize(ptr unsafe.Pointer, layout Layout, newSize uintptr) bool {
	if f.query.Query(ptr, layout) {
		return Resize(f.primary, ptr, layout, newSize)
	}
	return Resize(f.secondary, ptr, layout, newSize)
}

// Query ...
func (f *FallbackAllocator) Query(ptr unsafe.Pointer, layout Layout) bool {
	return f.query.Query(ptr, layout) || Query(f.secondary, ptr, layout)
}

package alloc

import "unsafe"

// Allocator is the capability to produce and release raw blocks of memory
// described by a Layout.
//
// Allocate returns a pointer to at least layout.Size() bytes aligned to at
// least layout.Alignment(), or nil when the request cannot be satisfied.
// Exhaustion and policy rejection are ordinary results, never panics.
//
// Deallocate releases memory previously returned by Allocate on this
// allocator (or on an allocator this one forwards to) with the identical
// layout. Deallocating nil is a no-op. Releasing with a mismatched layout or
// through an unrelated allocator is a caller bug: backends may detect it but
// are not required to.
type Allocator interface {
	Allocate(layout Layout) unsafe.Pointer
	Deallocate(ptr unsafe.Pointer, layout Layout)
}

// Resizer is an optional capability for changing the size of an allocation
// in place. On failure the original allocation is untouched and still valid.
type Resizer interface {
	Resize(ptr unsafe.Pointer, layout Layout, newSize uintptr) bool
}

// Querier is an optional capability for asking whether an allocator
// recognizes an allocation as one of its own. Forwarding allocators use it
// to route deallocations back to the allocator that granted them.
type Querier interface {
	Query(ptr unsafe.Pointer, layout Layout) bool
}

// Resize attempts to grow or shrink an allocation in place. It returns true
// without consulting the allocator when the size is unchanged, and false
// when ptr is nil, newSize is zero, or a does not support resizing.
func Resize(a Allocator, ptr unsafe.Pointer, layout Layout, newSize uintptr) bool {
	if ptr == nil || newSize == 0 {
		return false
	}
	if layout.Size() == newSize {
		return true
	}
	r, ok := a.(Resizer)
	return ok && r.Resize(ptr, layout, newSize)
}

// Query reports whether a recognizes the allocation, or false when a does
// not support querying.
func Query(a Allocator, ptr unsafe.Pointer, layout Layout) bool {
	q, ok := a.(Querier)
	return ok && q.Query(ptr, layout)
}

// Reallocate changes the size of an allocation, moving it when it cannot be
// resized in place. On success the returned pointer holds the old contents
// truncated to newSize and the old allocation is released. On failure it
// returns nil and the old allocation is untouched.
func Reallocate(a Allocator, ptr unsafe.Pointer, layout Layout, newSize uintptr) unsafe.Pointer {
	if newSize == 0 {
		return nil
	}
	if ptr == nil || layout.Size() == 0 {
		return a.Allocate(NewLayout(newSize, layout.Alignment()))
	}
	if Resize(a, ptr, layout, newSize) {
		return ptr
	}
	newPtr := a.Allocate(NewLayout(newSize, layout.Alignment()))
	if newPtr == nil {
		return nil
	}
	n := layout.Size()
	if newSize < n {
		n = newSize
	}
	copy(unsafe.Slice((*byte)(newPtr), n), unsafe.Slice((*byte)(ptr), n))
	a.Deallocate(ptr, layout)
	return newPtr
}

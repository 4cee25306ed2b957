// Package alloctest provides allocators and workload generators for
// exercising alloc.Allocator implementations in tests: a capacity-limited
// recording allocator, and a seeded random request harness that checks
// allocations for corruption.
package alloctest

import (
	"unsafe"

	"github.com/QuangTung97/memalloc/alloc"
)

// Allocator is a recording allocator for tests. It enforces a byte
// capacity on top of a backend, counts bytes and calls per operation since
// the last ResetParameters, and remembers the parameters of the most recent
// call to each operation so tests can assert exactly what reached it.
type Allocator struct {
	inner    alloc.Allocator
	capacity uintptr
	used     uintptr

	allocatedBytes   uintptr
	deallocatedBytes uintptr
	numAllocate      uint64
	numDeallocate    uint64
	numResize        uint64

	lastAllocateSize   uintptr
	lastDeallocatePtr  unsafe.Pointer
	lastDeallocateSize uintptr
	lastResizePtr      unsafe.Pointer
	lastResizeOldSize  uintptr
	lastResizeNewSize  uintptr
}

// New creates a test allocator of the given byte capacity over a private
// heap backend.
func New(capacity uintptr) *Allocator {
	return NewWith(alloc.NewHeapAllocator(), capacity)
}

// NewWith creates a test allocator of the given byte capacity over an
// explicit backend.
func NewWith(inner alloc.Allocator, capacity uintptr) *Allocator {
	return &Allocator{
		inner:    inner,
		capacity: capacity,
	}
}

// Allocate ...
func (a *Allocator) Allocate(layout alloc.Layout) unsafe.Pointer {
	a.numAllocate++
	a.lastAllocateSize = layout.Size()
	if a.used+layout.Size() > a.capacity {
		return nil
	}
	ptr := a.inner.Allocate(layout)
	if ptr == nil {
		return nil
	}
	a.used += layout.Size()
	a.allocatedBytes += layout.Size()
	return ptr
}

// Deallocate ...
func (a *Allocator) Deallocate(ptr unsafe.Pointer, layout alloc.Layout) {
	if ptr == nil {
		return
	}
	a.numDeallocate++
	a.lastDeallocatePtr = ptr
	a.lastDeallocateSize = layout.Size()
	a.inner.Deallocate(ptr, layout)
	a.used -= layout.Size()
	a.deallocatedBytes += layout.Size()
}

// Resize ...
func (a *Allocator) Resize(ptr unsafe.Pointer, layout alloc.Layout, newSize uintptr) bool {
	a.numResize++
	a.lastResizePtr = ptr
	a.lastResizeOldSize = layout.Size()
	a.lastResizeNewSize = newSize
	if newSize > layout.Size() && a.used+(newSize-layout.Size()) > a.capacity {
		return false
	}
	if !alloc.Resize(a.inner, ptr, layout, newSize) {
		return false
	}
	a.used = a.used - layout.Size() + newSize
	if newSize > layout.Size() {
		a.allocatedBytes += newSize - layout.Size()
	} else {
		a.deallocatedBytes += layout.Size() - newSize
	}
	return true
}

// Query ...
func (a *Allocator) Query(ptr unsafe.Pointer, layout alloc.Layout) bool {
	return alloc.Query(a.inner, ptr, layout)
}

// Exhaust makes every subsequent allocation fail until something is
// deallocated.
func (a *Allocator) Exhaust() {
	a.used = a.capacity
}

// ResetParameters clears the recorded parameters and counters. Live
// allocations and the capacity accounting are unaffected.
func (a *Allocator) ResetParameters() {
	used := a.used
	*a = Allocator{
		inner:    a.inner,
		capacity: a.capacity,
		used:     used,
	}
}

// AllocatedBytes returns the bytes granted since the last ResetParameters,
// in-place growth included.
func (a *Allocator) AllocatedBytes() uintptr { return a.allocatedBytes }

// DeallocatedBytes returns the bytes released since the last
// ResetParameters, in-place shrinking included. Once every allocation is
// released it equals AllocatedBytes.
func (a *Allocator) DeallocatedBytes() uintptr { return a.deallocatedBytes }

// NumAllocations ...
func (a *Allocator) NumAllocations() uint64 { return a.numAllocate }

// NumDeallocations ...
func (a *Allocator) NumDeallocations() uint64 { return a.numDeallocate }

// NumResizes ...
func (a *Allocator) NumResizes() uint64 { return a.numResize }

// AllocateSize returns the size of the most recent Allocate request.
func (a *Allocator) AllocateSize() uintptr { return a.lastAllocateSize }

// DeallocatePtr returns the pointer of the most recent Deallocate call.
func (a *Allocator) DeallocatePtr() unsafe.Pointer { return a.lastDeallocatePtr }

// DeallocateSize returns the size of the most recent Deallocate call.
func (a *Allocator) DeallocateSize() uintptr { return a.lastDeallocateSize }

// ResizePtr ...
func (a *Allocator) ResizePtr() unsafe.Pointer { return a.lastResizePtr }

// ResizeOldSize ...
func (a *Allocator) ResizeOldSize() uintptr { return a.lastResizeOldSize }

// ResizeNewSize ...
func (a *Allocator) ResizeNewSize() uintptr { return a.lastResizeNewSize }

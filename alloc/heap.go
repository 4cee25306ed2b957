package alloc

import "unsafe"

// HeapAllocator satisfies allocations from the Go heap. It keeps every live
// backing array reachable so the garbage collector does not reclaim memory
// that is still handed out.
//
// HeapAllocator verifies deallocations: releasing with a mismatched layout,
// releasing twice, or releasing a pointer it never granted panics rather
// than corrupting the live table. It is not safe for concurrent use; wrap it
// in a SyncAllocator when sharing across goroutines.
type HeapAllocator struct {
	live map[unsafe.Pointer]heapBlock
}

type heapBlock struct {
	backing []byte
	layout  Layout
}

// Default is a shared, goroutine-safe heap-backed allocator.
var Default Allocator = NewSync(NewHeapAllocator())

// NewHeapAllocator ...
func NewHeapAllocator() *HeapAllocator {
	return &HeapAllocator{
		live: map[unsafe.Pointer]heapBlock{},
	}
}

// zeroSized is the address handed out for zero-size layouts, mirroring how
// the runtime backs zero-size allocations with a single cell.
var zeroSized struct{}

func zeroSizedPtr() unsafe.Pointer {
	return unsafe.Pointer(&zeroSized)
}

// Allocate ...
func (h *HeapAllocator) Allocate(layout Layout) unsafe.Pointer {
	if layout.Size() == 0 {
		return zeroSizedPtr()
	}
	align := layout.Alignment()
	backing := make([]byte, layout.Size()+align)
	addr := uintptr(unsafe.Pointer(&backing[0]))
	shift := (align - addr%align) % align
	ptr := unsafe.Pointer(&backing[shift])
	h.live[ptr] = heapBlock{backing: backing, layout: layout}
	return ptr
}

// Deallocate ...
func (h *HeapAllocator) Deallocate(ptr unsafe.Pointer, layout Layout) {
	if ptr == nil {
		return
	}
	if ptr == zeroSizedPtr() && layout.Size() == 0 {
		return
	}
	block, ok := h.live[ptr]
	if !ok {
		panic("alloc: deallocate of a pointer not owned by this allocator")
	}
	if !block.layout.Equal(layout) {
		panic("alloc: deallocate layout does not match the allocation")
	}
	delete(h.live, ptr)
}

// Resize grows or shrinks an allocation in place when the backing array
// already has room past the aligned offset.
func (h *HeapAllocator) Resize(ptr unsafe.Pointer, layout Layout, newSize uintptr) bool {
	block, ok := h.live[ptr]
	if !ok || !block.layout.Equal(layout) {
		return false
	}
	offset := uintptr(ptr) - uintptr(unsafe.Pointer(&block.backing[0]))
	if offset+newSize > uintptr(len(block.backing)) {
		return false
	}
	block.layout.size = newSize
	h.live[ptr] = block
	return true
}

// Query ...
func (h *HeapAllocator) Query(ptr unsafe.Pointer, layout Layout) bool {
	if ptr == zeroSizedPtr() && layout.Size() == 0 {
		return true
	}
	block, ok := h.live[ptr]
	return ok && block.layout.Equal(layout)
}

// Live returns the number of outstanding allocations, for leak checks.
func (h *HeapAllocator) Live() int {
	return len(h.live)
}

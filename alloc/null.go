package alloc

import "unsafe"

// NullAllocator fails every allocation, including zero-size ones. It serves
// as a terminal allocator when allocation must be disallowed, and as a
// minimal conformance fixture. Since it never grants memory, Deallocate is
// only ever legally called with nil and is a no-op.
type NullAllocator struct{}

// Allocate ...
func (NullAllocator) Allocate(layout Layout) unsafe.Pointer {
	return nil
}

// Deallocate ...
func (NullAllocator) Deallocate(ptr unsafe.Pointer, layout Layout) {
}

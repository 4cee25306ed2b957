package alloc

import "unsafe"

// Destroyer is implemented by values that need teardown to run before their
// memory is released. Delete and UniquePtr invoke Destroy exactly once, on
// the concrete type the value was constructed as.
type Destroyer interface {
	Destroy()
}

// New allocates memory for one value of type T from a and stores value into
// it. It returns nil when the allocation cannot be satisfied.
//
// Allocator memory is invisible to the garbage collector: the stored value
// must not hold the only reference to a Go-heap object.
func New[T any](a Allocator, value T) *T {
	ptr := a.Allocate(LayoutOf[T]())
	if ptr == nil {
		return nil
	}
	p := (*T)(ptr)
	*p = value
	return p
}

// Delete destroys the pointee and releases its memory back to a using the
// layout of T. The pointer must have been produced by New with the same T on
// the same allocator. Deleting nil is a no-op.
func Delete[T any](a Allocator, ptr *T) {
	if ptr == nil {
		return
	}
	if d, ok := any(ptr).(Destroyer); ok {
		d.Destroy()
	}
	a.Deallocate(unsafe.Pointer(ptr), LayoutOf[T]())
}

// MakeUnique allocates and stores value, wrapping the result in a UniquePtr
// bound to a and the layout of T. It returns nil when the allocation fails,
// in which case nothing was constructed.
func MakeUnique[T any](a Allocator, value T) *UniquePtr[*T] {
	ptr := New(a, value)
	if ptr == nil {
		return nil
	}
	return NewUniquePtr(ptr, a, LayoutOf[T]())
}

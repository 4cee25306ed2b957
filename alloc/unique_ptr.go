package alloc

import "unsafe"

// releaseInfo is everything needed to release an allocation correctly. It is
// captured while the concrete allocated type is still known and travels
// verbatim across ownership transfers, so a later view of the object cannot
// change what gets released.
type releaseInfo struct {
	ptr       unsafe.Pointer
	layout    Layout
	destroy   func(unsafe.Pointer)
	allocator Allocator
}

// UniquePtr is a single-owner handle to one allocator-backed object. V is
// the view type: a *T for a concrete object, or an interface implemented by
// *T after narrowing with Narrow.
//
// A handle is either empty or owning. Resetting an owning handle runs the
// owned value's Destroy step (when it has one) and then releases its memory
// through the originating allocator with the layout captured at
// construction, exactly once. Handles are move-only; go vet reports value
// copies.
type UniquePtr[V any] struct {
	noCopy noCopy

	view V
	rel  releaseInfo
}

// NewUniquePtr adopts a raw pointer as owned by a with the given layout.
// The destroy step for T is captured here, while the concrete type is known.
// A nil pointer produces an empty handle.
func NewUniquePtr[T any](ptr *T, a Allocator, layout Layout) *UniquePtr[*T] {
	if ptr == nil {
		return &UniquePtr[*T]{}
	}
	return &UniquePtr[*T]{
		view: ptr,
		rel: releaseInfo{
			ptr:       unsafe.Pointer(ptr),
			layout:    layout,
			destroy:   destroyFunc[T](),
			allocator: a,
		},
	}
}

func destroyFunc[T any]() func(unsafe.Pointer) {
	if _, ok := any((*T)(nil)).(Destroyer); !ok {
		return nil
	}
	return func(p unsafe.Pointer) {
		any((*T)(p)).(Destroyer).Destroy()
	}
}

// Get returns the owned view, or the zero view (nil) when empty.
// Dereferencing the result of an empty handle is a caller bug; compare with
// IsNil first.
func (u *UniquePtr[V]) Get() V {
	return u.view
}

// IsNil reports whether the handle is empty. An empty handle compares equal
// to nil for every view type.
func (u *UniquePtr[V]) IsNil() bool {
	return u.rel.ptr == nil
}

// Reset destroys any currently owned value and releases its memory through
// the owning allocator, leaving the handle empty. Resetting an empty handle
// is a no-op.
func (u *UniquePtr[V]) Reset() {
	if u.rel.ptr == nil {
		return
	}
	rel := u.rel
	u.clear()
	if rel.destroy != nil {
		rel.destroy(rel.ptr)
	}
	rel.allocator.Deallocate(rel.ptr, rel.layout)
}

// Release relinquishes ownership without destroying the value or releasing
// its memory, returning the view. The caller becomes responsible for the
// allocation.
func (u *UniquePtr[V]) Release() V {
	view := u.view
	u.clear()
	return view
}

// MoveFrom releases any currently owned value, then takes ownership of
// src's value together with its captured release info, leaving src empty.
func (u *UniquePtr[V]) MoveFrom(src *UniquePtr[V]) {
	if u == src {
		return
	}
	u.Reset()
	u.view = src.view
	u.rel = src.rel
	src.clear()
}

func (u *UniquePtr[V]) clear() {
	var zero V
	u.view = zero
	u.rel = releaseInfo{}
}

// Move transfers ownership out of src into a fresh handle, leaving src
// empty.
func Move[V any](src *UniquePtr[V]) *UniquePtr[V] {
	dst := &UniquePtr[V]{}
	dst.MoveFrom(src)
	return dst
}

// Narrow moves ownership from src into a handle holding the wider view I,
// an interface implemented by src's view type. The release info captured at
// construction travels with the move, so releasing through the narrowed
// handle still frees the original allocation and runs the original destroy
// step. Narrowing an empty handle yields an empty handle; a view that does
// not implement I panics.
func Narrow[I any, V any](src *UniquePtr[V]) *UniquePtr[I] {
	if src == nil || src.rel.ptr == nil {
		return &UniquePtr[I]{}
	}
	view, ok := any(src.view).(I)
	if !ok {
		panic("alloc: view does not implement the target interface")
	}
	dst := &UniquePtr[I]{view: view, rel: src.rel}
	src.clear()
	return dst
}

// noCopy makes go vet's copylocks check flag value copies of UniquePtr.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

package alloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestResizeGuards(t *testing.T) {
	h := NewHeapAllocator()
	layout := NewLayout(32, 8)
	ptr := h.Allocate(layout)

	assert.False(t, Resize(h, nil, layout, 16))
	assert.False(t, Resize(h, ptr, layout, 0))

	// Unchanged size succeeds without consulting the allocator.
	assert.True(t, Resize(NullAllocator{}, ptr, layout, 32))

	// An allocator without the capability reports failure.
	assert.False(t, Resize(NullAllocator{}, ptr, layout, 16))

	h.Deallocate(ptr, layout)
}

func TestQueryWithoutCapability(t *testing.T) {
	var foreign uint64
	assert.False(t, Query(NullAllocator{}, unsafe.Pointer(&foreign), NewLayout(8, 8)))
}

func TestReallocateInPlace(t *testing.T) {
	h := NewHeapAllocator()
	layout := NewLayout(32, 8)
	ptr := h.Allocate(layout)

	newPtr := Reallocate(h, ptr, layout, 16)
	assert.Equal(t, ptr, newPtr)
	assert.Equal(t, 1, h.Live())

	h.Deallocate(newPtr, NewLayout(16, 8))
}

func TestReallocateMoves(t *testing.T) {
	h := NewHeapAllocator()
	layout := NewLayout(8, 8)
	ptr := h.Allocate(layout)

	data := unsafe.Slice((*byte)(ptr), 8)
	for i := range data {
		data[i] = byte(i + 1)
	}

	newPtr := Reallocate(h, ptr, layout, 4096)
	assert.NotNil(t, newPtr)
	assert.NotEqual(t, ptr, newPtr)
	assert.Equal(t, 1, h.Live())

	moved := unsafe.Slice((*byte)(newPtr), 8)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, moved[:8])

	h.Deallocate(newPtr, NewLayout(4096, 8))
}

func TestReallocateFromNil(t *testing.T) {
	h := NewHeapAllocator()
	ptr := Reallocate(h, nil, NewLayout(0, 8), 64)
	assert.NotNil(t, ptr)
	assert.Equal(t, 1, h.Live())
	h.Deallocate(ptr, NewLayout(64, 8))
}

func TestReallocateFailureKeepsOriginal(t *testing.T) {
	h := NewHeapAllocator()
	layout := NewLayout(8192, 8)
	ptr := h.Allocate(layout)

	limited := NewThreshold(h, 0)
	// The quota blocks the move target; the original must stay valid.
	assert.Nil(t, Reallocate(limited, ptr, layout, 16384))
	assert.True(t, h.Query(ptr, layout))

	h.Deallocate(ptr, layout)
}

func TestReallocateZeroNewSize(t *testing.T) {
	h := NewHeapAllocator()
	layout := NewLayout(8, 8)
	ptr := h.Allocate(layout)

	assert.Nil(t, Reallocate(h, ptr, layout, 0))
	assert.True(t, h.Query(ptr, layout))

	h.Deallocate(ptr, layout)
}

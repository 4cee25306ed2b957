package alloc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/QuangTung97/memalloc/alloc"
	"github.com/QuangTung97/memalloc/alloctest"
)

func newFallbackFixture() (*alloctest.Allocator, *alloctest.Allocator, *alloc.FallbackAllocator) {
	primary := alloctest.New(128)
	secondary := alloctest.New(128)
	return primary, secondary, alloc.NewFallback(primary, secondary)
}

func TestFallbackRequiresQuerier(t *testing.T) {
	assert.Panics(t, func() {
		alloc.NewFallback(alloc.NullAllocator{}, alloctest.New(128))
	})
}

func TestFallbackAllocateFromPrimary(t *testing.T) {
	primary, secondary, fallback := newFallbackFixture()

	layout := alloc.NewLayout(32, 8)
	ptr := fallback.Allocate(layout)
	assert.NotNil(t, ptr)
	assert.Equal(t, uintptr(32), primary.AllocateSize())
	assert.Equal(t, uint64(0), secondary.NumAllocations())

	fallback.Deallocate(ptr, layout)
	assert.Equal(t, ptr, primary.DeallocatePtr())
	assert.Equal(t, uint64(0), secondary.NumDeallocations())
}

func TestFallbackAllocateFromSecondary(t *testing.T) {
	primary, secondary, fallback := newFallbackFixture()
	primary.Exhaust()

	layout := alloc.NewLayout(32, 8)
	ptr := fallback.Allocate(layout)
	assert.NotNil(t, ptr)
	assert.Equal(t, uint64(1), primary.NumAllocations())
	assert.Equal(t, uintptr(32), secondary.AllocateSize())

	// The release is routed to the allocator that granted the memory.
	fallback.Deallocate(ptr, layout)
	assert.Equal(t, uint64(0), primary.NumDeallocations())
	assert.Equal(t, ptr, secondary.DeallocatePtr())
	assert.Equal(t, uintptr(32), secondary.DeallocateSize())
}

func TestFallbackBothExhausted(t *testing.T) {
	primary, secondary, fallback := newFallbackFixture()
	primary.Exhaust()
	secondary.Exhaust()

	assert.Nil(t, fallback.Allocate(alloc.NewLayout(32, 8)))
	assert.Equal(t, uint64(1), primary.NumAllocations())
	assert.Equal(t, uint64(1), secondary.NumAllocations())
}

func TestFallbackResizeRouted(t *testing.T) {
	primary, secondary, fallback := newFallbackFixture()
	primary.Exhaust()

	layout := alloc.NewLayout(32, 8)
	ptr := fallback.Allocate(layout)
	assert.NotNil(t, ptr)

	assert.True(t, fallback.Resize(ptr, layout, 16))
	assert.Equal(t, uint64(0), primary.NumResizes())
	assert.Equal(t, ptr, secondary.ResizePtr())
	assert.Equal(t, uintptr(32), secondary.ResizeOldSize())
	assert.Equal(t, uintptr(16), secondary.ResizeNewSize())

	fallback.Deallocate(ptr, alloc.NewLayout(16, 8))
}

func TestFallbackQuery(t *testing.T) {
	primary, secondary, fallback := newFallbackFixture()

	layout := alloc.NewLayout(32, 8)

	fromPrimary := primary.Allocate(layout)
	fromSecondary := secondary.Allocate(layout)

	assert.True(t, fallback.Query(fromPrimary, layout))
	assert.True(t, fallback.Query(fromSecondary, layout))

	other := alloctest.New(128)
	foreign := other.Allocate(layout)
	assert.False(t, fallback.Query(foreign, layout))

	primary.Deallocate(fromPrimary, layout)
	secondary.Deallocate(fromSecondary, layout)
	other.Deallocate(foreign, layout)
}

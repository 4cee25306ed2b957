package alloc_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/QuangTung97/memalloc/alloc"
	"github.com/QuangTung97/memalloc/alloctest"
)

type shape interface {
	Area() float64
}

// bigSquare has a much larger footprint than the shape view it narrows to.
type bigSquare struct {
	side    float64
	storage [128]byte
}

func (b *bigSquare) Area() float64 {
	return b.side * b.side
}

type destructorCounter struct {
	count *int
}

func (d *destructorCounter) Destroy() {
	*d.count++
}

func TestUniquePtrDefaultIsNil(t *testing.T) {
	var ptr alloc.UniquePtr[*int]
	assert.True(t, ptr.IsNil())
	assert.Nil(t, ptr.Get())

	// The null-sentinel comparison holds for interface views as well.
	var view alloc.UniquePtr[shape]
	assert.True(t, view.IsNil())
	assert.Nil(t, view.Get())
}

func TestUniquePtrResetOnEmptyIsNoop(t *testing.T) {
	a := alloctest.New(256)

	var ptr alloc.UniquePtr[*int]
	ptr.Reset()
	assert.Equal(t, uint64(0), a.NumDeallocations())
}

func TestUniquePtrAfterMakeUniqueIsNotNil(t *testing.T) {
	a := alloctest.New(256)

	ptr := alloc.MakeUnique(a, 5)
	assert.NotNil(t, ptr)
	assert.False(t, ptr.IsNil())
	assert.Equal(t, 5, *ptr.Get())

	ptr.Reset()
}

func TestUniquePtrNarrowFreesTotalSize(t *testing.T) {
	a := alloctest.New(256)

	ptr := alloc.MakeUnique(a, bigSquare{side: 2})
	assert.NotNil(t, ptr)
	assert.Equal(t, unsafe.Sizeof(bigSquare{}), a.AllocateSize())

	view := alloc.Narrow[shape](ptr)
	assert.True(t, ptr.IsNil())
	assert.False(t, view.IsNil())
	assert.Equal(t, float64(4), view.Get().Area())

	// The released amount must be the concrete footprint captured at
	// construction, not anything derived from the narrowed view.
	assert.Equal(t, uintptr(0), a.DeallocatedBytes())
	view.Reset()
	assert.Equal(t, unsafe.Sizeof(bigSquare{}), a.DeallocateSize())
	assert.True(t, view.IsNil())
}

func TestUniquePtrNarrowEmpty(t *testing.T) {
	var ptr alloc.UniquePtr[*bigSquare]
	view := alloc.Narrow[shape](&ptr)
	assert.True(t, view.IsNil())
}

func TestUniquePtrNarrowWrongInterfacePanics(t *testing.T) {
	a := alloctest.New(256)

	ptr := alloc.MakeUnique(a, 5)
	assert.Panics(t, func() {
		alloc.Narrow[shape](ptr)
	})
}

func TestUniquePtrMoveLeavesSourceEmpty(t *testing.T) {
	a := alloctest.New(256)

	src := alloc.MakeUnique(a, uint64(1))
	dst := alloc.Move(src)

	assert.True(t, src.IsNil())
	assert.False(t, dst.IsNil())
	assert.Equal(t, uint64(1), *dst.Get())

	// Resetting the drained source must not release anything.
	src.Reset()
	assert.Equal(t, uint64(0), a.NumDeallocations())

	dst.Reset()
	assert.Equal(t, uint64(1), a.NumDeallocations())
}

func TestUniquePtrMoveFromReleasesPrevious(t *testing.T) {
	a := alloctest.New(256)

	first := alloc.MakeUnique(a, uint64(1))
	second := alloc.MakeUnique(a, uint64(2))
	assert.Equal(t, uintptr(0), a.DeallocatedBytes())

	// Assigning into an owning handle releases the old resource first; the
	// accounting must show the old size, not the new one.
	first.MoveFrom(second)
	assert.Equal(t, unsafe.Sizeof(uint64(0)), a.DeallocatedBytes())
	assert.Equal(t, uint64(2), *first.Get())
	assert.True(t, second.IsNil())

	first.Reset()
	assert.Equal(t, 2*unsafe.Sizeof(uint64(0)), a.DeallocatedBytes())
}

func TestUniquePtrMoveFromSelf(t *testing.T) {
	a := alloctest.New(256)

	ptr := alloc.MakeUnique(a, uint64(1))
	ptr.MoveFrom(ptr)
	assert.False(t, ptr.IsNil())
	assert.Equal(t, uint64(0), a.NumDeallocations())

	ptr.Reset()
}

func TestUniquePtrDestroyRunsExactlyOnce(t *testing.T) {
	a := alloctest.New(256)
	count := 0

	ptr := alloc.MakeUnique(a, destructorCounter{count: &count})
	assert.NotNil(t, ptr)
	assert.Equal(t, 0, count)

	ptr.Reset()
	assert.Equal(t, 1, count)
	assert.Equal(t, unsafe.Sizeof(destructorCounter{}), a.DeallocateSize())

	// A second reset finds an empty handle.
	ptr.Reset()
	assert.Equal(t, 1, count)
	assert.Equal(t, uint64(1), a.NumDeallocations())
}

func TestUniquePtrDestroySurvivesNarrow(t *testing.T) {
	a := alloctest.New(256)
	count := 0

	ptr := alloc.MakeUnique(a, destructorCounter{count: &count})
	view := alloc.Narrow[alloc.Destroyer](ptr)

	view.Reset()
	assert.Equal(t, 1, count)
}

func TestUniquePtrRelease(t *testing.T) {
	a := alloctest.New(256)

	ptr := alloc.MakeUnique(a, uint64(7))
	raw := ptr.Release()
	assert.True(t, ptr.IsNil())
	assert.Equal(t, uint64(7), *raw)
	assert.Equal(t, uint64(0), a.NumDeallocations())

	// Ownership is manual now.
	alloc.Delete(a, raw)
	assert.Equal(t, uint64(1), a.NumDeallocations())
}

func TestNewUniquePtrFromRaw(t *testing.T) {
	a := alloctest.New(256)

	raw := alloc.New(a, uint32(11))
	ptr := alloc.NewUniquePtr(raw, a, alloc.LayoutOf[uint32]())
	assert.False(t, ptr.IsNil())

	ptr.Reset()
	assert.Equal(t, unsafe.Sizeof(uint32(0)), a.DeallocateSize())
}

func TestNewUniquePtrFromNilRaw(t *testing.T) {
	a := alloctest.New(256)

	ptr := alloc.NewUniquePtr[uint32](nil, a, alloc.LayoutOf[uint32]())
	assert.True(t, ptr.IsNil())
	ptr.Reset()
	assert.Equal(t, uint64(0), a.NumDeallocations())
}

func TestMakeUniqueExhausted(t *testing.T) {
	a := alloctest.New(4)

	ptr := alloc.MakeUnique(a, uint64(1))
	assert.Nil(t, ptr)
	assert.Equal(t, uint64(0), a.NumDeallocations())
}

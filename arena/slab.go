package arena

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/QuangTung97/memalloc/alloc"
)

// Slab hands out fixed-size elements carved from larger chunks obtained
// from an inner allocator. Freed elements go on an intrusive free list
// threaded through the element memory itself, so allocate and deallocate
// are pointer pops and pushes. Layouts larger or more aligned than the
// element are rejected with a nil result.
type Slab struct {
	inner alloc.Allocator

	elemSize    uintptr
	elemAlign   uintptr
	chunkLayout alloc.Layout
	perChunk    uintptr

	freeList *slabNode
	chunks   []unsafe.Pointer
	usage    uint64
}

type slabNode struct {
	next *slabNode
}

// SlabConfig ...
type SlabConfig struct {
	// ElemSize is the element size in bytes; it is rounded up to a multiple
	// of ElemAlign and must hold at least one pointer.
	ElemSize uintptr

	// ElemAlign is the element alignment. Zero means pointer alignment.
	ElemAlign uintptr

	// ChunkSizeLog is the log2 of the chunk size requested from the inner
	// allocator. A chunk must hold at least one element.
	ChunkSizeLog uint32
}

func (c SlabConfig) elemAlign() uintptr {
	if c.ElemAlign == 0 {
		return unsafe.Alignof(uintptr(0))
	}
	return c.ElemAlign
}

// Validate ...
func (c SlabConfig) Validate() error {
	align := c.elemAlign()
	if align&(align-1) != 0 {
		return errors.Errorf("arena: ElemAlign %d is not a power of two", align)
	}
	if c.ElemSize < unsafe.Sizeof(uintptr(0)) {
		return errors.Errorf("arena: ElemSize %d cannot hold a free-list node", c.ElemSize)
	}
	if c.ChunkSizeLog == 0 {
		return errors.New("arena: ChunkSizeLog must be positive")
	}
	elemSize := roundUp(c.ElemSize, align)
	if elemSize > 1<<c.ChunkSizeLog {
		return errors.Errorf("arena: chunk of 1<<%d bytes cannot hold an element of %d bytes",
			c.ChunkSizeLog, elemSize)
	}
	return nil
}

func roundUp(n uintptr, align uintptr) uintptr {
	return (n + align - 1) &^ (align - 1)
}

// NewSlab creates a slab over inner, panicking on an invalid config.
func NewSlab(inner alloc.Allocator, conf SlabConfig) *Slab {
	if err := conf.Validate(); err != nil {
		panic(err)
	}
	elemAlign := conf.elemAlign()
	elemSize := roundUp(conf.ElemSize, elemAlign)
	return &Slab{
		inner:       inner,
		elemSize:    elemSize,
		elemAlign:   elemAlign,
		chunkLayout: alloc.NewLayout(1<<conf.ChunkSizeLog, elemAlign),
		perChunk:    (1 << conf.ChunkSizeLog) / elemSize,
	}
}

// grow obtains one chunk from the inner allocator and threads its elements
// onto the free list.
func (s *Slab) grow() bool {
	chunk := s.inner.Allocate(s.chunkLayout)
	if chunk == nil {
		return false
	}
	s.chunks = append(s.chunks, chunk)

	for i := s.perChunk; i > 0; i-- {
		node := (*slabNode)(unsafe.Pointer(uintptr(chunk) + (i-1)*s.elemSize))
		node.next = s.freeList
		s.freeList = node
	}
	return true
}

// Allocate ...
func (s *Slab) Allocate(layout alloc.Layout) unsafe.Pointer {
	if layout.Size() > s.elemSize || layout.Alignment() > s.elemAlign {
		return nil
	}
	if s.freeList == nil && !s.grow() {
		return nil
	}
	node := s.freeList
	s.freeList = node.next
	s.usage += uint64(s.elemSize)
	return unsafe.Pointer(node)
}

// Deallocate ...
func (s *Slab) Deallocate(ptr unsafe.Pointer, layout alloc.Layout) {
	if ptr == nil {
		return
	}
	node := (*slabNode)(ptr)
	node.next = s.freeList
	s.freeList = node
	s.usage -= uint64(s.elemSize)
}

// Usage returns the bytes currently granted, counted in whole elements.
func (s *Slab) Usage() uint64 {
	return s.usage
}

// Release returns every chunk to the inner allocator. All elements must
// already be free; outstanding allocations become dangling.
func (s *Slab) Release() {
	for _, chunk := range s.chunks {
		s.inner.Deallocate(chunk, s.chunkLayout)
	}
	s.chunks = nil
	s.freeList = nil
	s.usage = 0
}

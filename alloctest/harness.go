package alloctest

import (
	"math/rand"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/QuangTung97/memalloc/alloc"
)

// Harness drives a seeded random sequence of allocate, resize and
// deallocate requests against an allocator. Every allocation is painted
// with a known byte pattern and inspected before release, so free-list or
// accounting bugs that let allocations overlap show up as corruption.
//
// A harness owns no goroutines; concurrency tests run one harness per
// goroutine against a shared allocator.
type Harness struct {
	allocator alloc.Allocator
	rng       *rand.Rand
	live      []liveAllocation
}

type liveAllocation struct {
	ptr    unsafe.Pointer
	layout alloc.Layout
}

// NewHarness ...
func NewHarness(a alloc.Allocator, seed int64) *Harness {
	return &Harness{
		allocator: a,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func paint(ptr unsafe.Pointer, size uintptr) {
	data := unsafe.Slice((*byte)(ptr), size)
	for i := range data {
		data[i] = byte(i)
	}
}

// inspect returns the first corrupted byte index, or size when the pattern
// is intact.
func inspect(ptr unsafe.Pointer, size uintptr) uintptr {
	data := unsafe.Slice((*byte)(ptr), size)
	for i := range data {
		if data[i] != byte(i) {
			return uintptr(i)
		}
	}
	return size
}

func (h *Harness) randomLayout(maxSize uintptr) alloc.Layout {
	size := uintptr(h.rng.Int63n(int64(maxSize))) + 1
	align := uintptr(1) << h.rng.Intn(4)
	return alloc.NewLayout(size, align)
}

// Generate performs one random request. Allocation failures are ordinary
// outcomes and not errors; corruption of a live allocation is.
func (h *Harness) Generate(maxSize uintptr) error {
	switch h.rng.Intn(3) {
	case 0:
		layout := h.randomLayout(maxSize)
		ptr := h.allocator.Allocate(layout)
		if ptr == nil {
			return nil
		}
		paint(ptr, layout.Size())
		h.live = append(h.live, liveAllocation{ptr: ptr, layout: layout})
		return nil

	case 1:
		if len(h.live) == 0 {
			return nil
		}
		index := h.rng.Intn(len(h.live))
		entry := h.live[index]
		newSize := uintptr(h.rng.Int63n(int64(maxSize))) + 1
		if !alloc.Resize(h.allocator, entry.ptr, entry.layout, newSize) {
			return nil
		}
		if newSize < entry.layout.Size() {
			if at := inspect(entry.ptr, newSize); at != newSize {
				return errors.Errorf("alloctest: corrupted byte %d of %d after shrink", at, newSize)
			}
		}
		h.live[index].layout = alloc.NewLayout(newSize, entry.layout.Alignment())
		paint(entry.ptr, newSize)
		return nil

	default:
		if len(h.live) == 0 {
			return nil
		}
		index := h.rng.Intn(len(h.live))
		entry := h.live[index]
		if at := inspect(entry.ptr, entry.layout.Size()); at != entry.layout.Size() {
			return errors.Errorf("alloctest: corrupted byte %d of %d before release", at, entry.layout.Size())
		}
		h.allocator.Deallocate(entry.ptr, entry.layout)
		h.live[index] = h.live[len(h.live)-1]
		h.live = h.live[:len(h.live)-1]
		return nil
	}
}

// Run performs n random requests, stopping at the first corruption.
func (h *Harness) Run(n int, maxSize uintptr) error {
	for i := 0; i < n; i++ {
		if err := h.Generate(maxSize); err != nil {
			return errors.Wrapf(err, "request %d", i)
		}
	}
	return nil
}

// Live returns the number of outstanding allocations.
func (h *Harness) Live() int {
	return len(h.live)
}

// ReleaseAll inspects and releases every outstanding allocation.
func (h *Harness) ReleaseAll() error {
	var firstErr error
	for _, entry := range h.live {
		if at := inspect(entry.ptr, entry.layout.Size()); at != entry.layout.Size() && firstErr == nil {
			firstErr = errors.Errorf("alloctest: corrupted byte %d of %d", at, entry.layout.Size())
		}
		h.allocator.Deallocate(entry.ptr, entry.layout)
	}
	h.live = nil
	return firstErr
}

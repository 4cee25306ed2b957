package alloc

import "unsafe"

// TrackingAllocator wraps an inner allocator and records usage counters for
// inspection: live, peak and cumulative allocated bytes, cumulative
// deallocated bytes, and per-operation call counts. Counter updates are not
// synchronized; wrap the tracker in a SyncAllocator when sharing across
// goroutines.
type TrackingAllocator struct {
	inner Allocator

	allocatedBytes   uintptr
	peakBytes        uintptr
	cumulativeBytes  uintptr
	deallocatedBytes uintptr

	numAllocate   uint64
	numDeallocate uint64
	numResize     uint64
	numFailure    uint64
}

// NewTracking ...
func NewTracking(inner Allocator) *TrackingAllocator {
	return &TrackingAllocator{inner: inner}
}

// Allocate ...
func (t *TrackingAllocator) Allocate(layout Layout) unsafe.Pointer {
	t.numAllocate++
	ptr := t.inner.Allocate(layout)
	if ptr == nil {
		t.numFailure++
		return nil
	}
	t.allocatedBytes += layout.Size()
	t.cumulativeBytes += layout.Size()
	if t.allocatedBytes > t.peakBytes {
		t.peakBytes = t.allocatedBytes
	}
	return ptr
}

// Deallocate ...
func (t *TrackingAllocator) Deallocate(ptr unsafe.Pointer, layout Layout) {
	if ptr == nil {
		return
	}
	t.numDeallocate++
	t.inner.Deallocate(ptr, layout)
	t.allocatedBytes -= layout.Size()
	t.deallocatedBytes += layout.Size()
}

// Resize ...
func (t *TrackingAllocator) Resize(ptr unsafe.Pointer, layout Layout, newSize uintptr) bool {
	t.numResize++
	if !Resize(t.inner, ptr, layout, newSize) {
		t.numFailure++
		return false
	}
	t.allocatedBytes = t.allocatedBytes - layout.Size() + newSize
	if newSize > layout.Size() {
		t.cumulativeBytes += newSize - layout.Size()
	}
	if t.allocatedBytes > t.peakBytes {
		t.peakBytes = t.allocatedBytes
	}
	return true
}

// Query ...
func (t *TrackingAllocator) Query(ptr unsafe.Pointer, layout Layout) bool {
	return Query(t.inner, ptr, layout)
}

// AllocatedBytes returns the bytes currently allocated and not yet released.
func (t *TrackingAllocator) AllocatedBytes() uintptr { return t.allocatedBytes }

// PeakAllocatedBytes ...
func (t *TrackingAllocator) PeakAllocatedBytes() uintptr { return t.peakBytes }

// CumulativeAllocatedBytes returns the total bytes granted since the last
// Reset, ignoring deallocations.
func (t *TrackingAllocator) CumulativeAllocatedBytes() uintptr { return t.cumulativeBytes }

// DeallocatedBytes returns the total bytes released since the last Reset.
func (t *TrackingAllocator) DeallocatedBytes() uintptr { return t.deallocatedBytes }

// NumAllocations ...
func (t *TrackingAllocator) NumAllocations() uint64 { return t.numAllocate }

// NumDeallocations ...
func (t *TrackingAllocator) NumDeallocations() uint64 { return t.numDeallocate }

// NumResizes ...
func (t *TrackingAllocator) NumResizes() uint64 { return t.numResize }

// NumFailures ...
func (t *TrackingAllocator) NumFailures() uint64 { return t.numFailure }

// Reset clears every counter. Live allocations are unaffected; only the
// accounting restarts.
func (t *TrackingAllocator) Reset() {
	*t = TrackingAllocator{inner: t.inner}
}

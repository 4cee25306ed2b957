// Package alloc provides a polymorphic memory-allocation capability for
// code that manages its memory explicitly: a Layout value describing
// size+alignment requests, the Allocator interface that backends implement,
// typed New/Delete/MakeUnique helpers, and the single-owner UniquePtr
// handle, which captures at construction time everything needed to release
// an object correctly no matter how it is viewed or moved later.
//
// Policy is injected by wrapping allocators in other allocators:
// ThresholdAllocator for quotas, FallbackAllocator for secondary backends,
// SyncAllocator for locking, TrackingAllocator for metering and
// LogAllocator for visibility. All of them implement the same interface, so
// wrappers nest arbitrarily without changing call sites.
//
// Memory handed out by allocators is opaque to the garbage collector.
// Values stored in it must not hold the only reference to an object on the
// Go heap.
package alloc

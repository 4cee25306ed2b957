package arena

import (
	"math/bits"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/QuangTung97/memalloc/alloc"
)

// maxAlign is the alignment of the region base; it bounds the layout
// alignment an arena can satisfy.
const maxAlign = 4096

// Config ...
type Config struct {
	// MemLimit is the region capacity in bytes. It is rounded up to a
	// multiple of the minimum block size.
	MemLimit int

	// MinBlockLog is the log2 of the smallest block handed out. Zero means
	// the default of 6 (64-byte blocks). Blocks carry an intrusive free-list
	// node, so the minimum is 4.
	MinBlockLog uint32
}

const defaultMinBlockLog = 6

func (c Config) minBlockLog() uint32 {
	if c.MinBlockLog == 0 {
		return defaultMinBlockLog
	}
	return c.MinBlockLog
}

// Validate ...
func (c Config) Validate() error {
	if c.MemLimit <= 0 {
		return errors.New("arena: MemLimit must be positive")
	}
	if c.MinBlockLog != 0 && c.MinBlockLog < 4 {
		return errors.Errorf("arena: MinBlockLog %d is below the minimum of 4", c.MinBlockLog)
	}
	if c.MinBlockLog > 20 {
		return errors.Errorf("arena: MinBlockLog %d is above the maximum of 20", c.MinBlockLog)
	}
	minBlock := 1 << c.minBlockLog()
	if c.MemLimit < minBlock {
		return errors.Errorf("arena: MemLimit %d is below one minimum block of %d bytes",
			c.MemLimit, minBlock)
	}
	return nil
}

// Arena is a fixed-capacity allocator over one contiguous region obtained
// up front. Each request is served by a buddy block covering both the size
// and the alignment of the layout, so any alignment up to 4096 is
// satisfied. The arena trusts deallocation layouts: releasing with a layout
// that rounds to a different block size corrupts the free lists, and no
// detection is attempted.
//
// An arena is not safe for concurrent use; wrap it in an
// alloc.SyncAllocator when sharing across goroutines.
type Arena struct {
	buddy    buddy
	capacity uintptr
	usage    uint64

	// data keeps the region reachable; blocks handed out point into it.
	data []uint64
}

// New creates an arena, panicking on an invalid config.
func New(conf Config) *Arena {
	if err := conf.Validate(); err != nil {
		panic(err)
	}

	minLog := conf.minBlockLog()
	blocks := uint32((conf.MemLimit + (1 << minLog) - 1) >> minLog)

	// Over-allocate so the region base can be pushed up to maxAlign.
	words := (uintptr(blocks) << minLog) / 8
	data := make([]uint64, words+maxAlign/8)
	addr := uintptr(unsafe.Pointer(&data[0]))
	base := unsafe.Add(unsafe.Pointer(&data[0]), (maxAlign-addr%maxAlign)%maxAlign)

	a := &Arena{
		capacity: uintptr(blocks) << minLog,
		data:     data,
	}
	a.buddy.init(minLog, blocks, base)
	return a
}

// blockLog returns the log2 of the block span covering both the size and
// the alignment of the layout, or false when the arena cannot satisfy it.
func (a *Arena) blockLog(layout alloc.Layout) (uint32, bool) {
	if layout.Alignment() > maxAlign {
		return 0, false
	}
	need := layout.Size()
	if layout.Alignment() > need {
		need = layout.Alignment()
	}
	log := a.buddy.minLog
	if need > 1<<log {
		log = uint32(bits.Len(uint(need - 1)))
	}
	if log > a.buddy.maxLog {
		return 0, false
	}
	return log, true
}

// Allocate ...
func (a *Arena) Allocate(layout alloc.Layout) unsafe.Pointer {
	log, ok := a.blockLog(layout)
	if !ok {
		return nil
	}
	addr, ok := a.buddy.allocate(log)
	if !ok {
		return nil
	}
	a.usage += 1 << log
	return a.buddy.toPtr(addr)
}

// Deallocate ...
func (a *Arena) Deallocate(ptr unsafe.Pointer, layout alloc.Layout) {
	if ptr == nil {
		return
	}
	log, ok := a.blockLog(layout)
	if !ok {
		panic("arena: deallocate layout was never allocatable")
	}
	addr := uint32(uintptr(ptr) - uintptr(a.buddy.base))
	a.buddy.release(addr, log)
	a.usage -= 1 << log
}

// Resize succeeds exactly when the new size still fits the block already
// backing the allocation, so nothing moves.
func (a *Arena) Resize(ptr unsafe.Pointer, layout alloc.Layout, newSize uintptr) bool {
	oldLog, ok := a.blockLog(layout)
	if !ok {
		return false
	}
	newLog, ok := a.blockLog(alloc.NewLayout(newSize, layout.Alignment()))
	if !ok {
		return false
	}
	return newLog == oldLog
}

// Query reports whether ptr points into this arena's region.
func (a *Arena) Query(ptr unsafe.Pointer, layout alloc.Layout) bool {
	addr := uintptr(ptr)
	base := uintptr(a.buddy.base)
	return addr >= base && addr < base+a.capacity
}

// Usage returns the bytes currently granted, counted in whole blocks.
func (a *Arena) Usage() uint64 {
	return a.usage
}

// Capacity ...
func (a *Arena) Capacity() uintptr {
	return a.capacity
}

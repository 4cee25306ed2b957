package arena

import (
	"math"
	"unsafe"
)

const nullAddr uint32 = math.MaxUint32

// buddy manages a contiguous region as binary blocks. Every block spans a
// power-of-two multiple of the minimum block size and sits at a region
// offset that is a multiple of its own span, so block alignment relative to
// the region base comes for free. Free blocks store an intrusive list node
// inside the region itself; the only bookkeeping outside the region is one
// bit per minimum block marking free block starts.
type buddy struct {
	minLog uint32
	maxLog uint32
	blocks uint32 // region size in minimum blocks
	base   unsafe.Pointer
	free   []uint32 // free-list heads, indexed by order above minLog
	bitset []uint64
}

// buddyNode lives in the first bytes of a free block. The minimum block size
// must cover it.
type buddyNode struct {
	next  uint32
	prev  uint32
	order uint32
}

// orderDecomposition lists the orders of the binary decomposition of a
// region of the given number of minimum blocks, smallest first.
func orderDecomposition(blocks uint32) []uint32 {
	var result []uint32
	for pos := uint32(0); blocks != 0; pos++ {
		if blocks&0x1 != 0 {
			result = append(result, pos)
		}
		blocks >>= 1
	}
	return result
}

func makeBitset(blocks uint32) []uint64 {
	if blocks <= 64 {
		return make([]uint64, 1)
	}
	return make([]uint64, (blocks+63)>>6)
}

func (b *buddy) init(minLog uint32, blocks uint32, base unsafe.Pointer) {
	orders := orderDecomposition(blocks)
	top := orders[len(orders)-1]

	b.minLog = minLog
	b.maxLog = top + minLog
	b.blocks = blocks
	b.base = base
	b.free = make([]uint32, top+1)
	b.bitset = makeBitset(blocks)

	for i := range b.free {
		b.free[i] = nullAddr
	}

	// Seed the free lists with the binary decomposition of the region,
	// largest block first so the region is covered from offset zero.
	addr := uint32(0)
	for i := len(orders) - 1; i >= 0; i-- {
		order := orders[i]
		b.push(order, addr)
		b.setBit(addr)
		addr += 1 << (order + minLog)
	}
}

func (b *buddy) node(addr uint32) *buddyNode {
	return (*buddyNode)(b.toPtr(addr))
}

func (b *buddy) toPtr(addr uint32) unsafe.Pointer {
	return unsafe.Pointer(uintptr(b.base) + uintptr(addr))
}

func (b *buddy) setBit(addr uint32) {
	index := addr >> b.minLog
	b.bitset[index>>6] |= uint64(1) << (index & 0x3f)
}

func (b *buddy) clearBit(addr uint32) {
	index := addr >> b.minLog
	b.bitset[index>>6] &^= uint64(1) << (index & 0x3f)
}

func (b *buddy) isBitSet(addr uint32) bool {
	index := addr >> b.minLog
	return b.bitset[index>>6]&(uint64(1)<<(index&0x3f)) != 0
}

func (b *buddy) push(order uint32, addr uint32) {
	node := b.node(addr)
	if b.free[order] != nullAddr {
		b.node(b.free[order]).prev = addr
	}
	node.next = b.free[order]
	node.prev = nullAddr
	node.order = order
	b.free[order] = addr
}

func (b *buddy) remove(order uint32, addr uint32) {
	node := b.node(addr)
	if node.next != nullAddr {
		b.node(node.next).prev = node.prev
	}
	if node.prev != nullAddr {
		b.node(node.prev).next = node.next
	} else {
		b.free[order] = node.next
	}
}

// allocate returns the region offset of a free block of size 1<<sizeLog,
// splitting a larger block when no exact fit is on the free lists.
func (b *buddy) allocate(sizeLog uint32) (uint32, bool) {
	order := sizeLog - b.minLog
	maxOrder := b.maxLog - b.minLog

	found := order
	for ; found <= maxOrder && b.free[found] == nullAddr; found++ {
	}
	if found > maxOrder {
		return 0, false
	}

	addr := b.free[found]
	b.free[found] = b.node(addr).next
	if b.free[found] != nullAddr {
		b.node(b.free[found]).prev = nullAddr
	}
	b.clearBit(addr)

	// Split the block down to the requested order, returning the upper
	// halves to their free lists.
	for i := int(found) - 1; i >= int(order); i-- {
		half := addr + (1 << (uint32(i) + b.minLog))
		b.push(uint32(i), half)
		b.setBit(half)
	}

	return addr, true
}

// sibling returns the merged block offset and the neighbor offset for a
// block of size 1<<sizeLog at addr.
func sibling(addr uint32, sizeLog uint32) (uint32, uint32) {
	mask := uint32(math.MaxUint32) << (sizeLog + 1)
	merged := addr & mask
	if merged == addr {
		return merged, addr + (1 << sizeLog)
	}
	return merged, merged
}

// release returns a block to the free lists, coalescing with its free
// sibling repeatedly until the sibling is missing, busy, or split.
func (b *buddy) release(addr uint32, sizeLog uint32) {
	order := sizeLog - b.minLog

	for sizeLog < b.maxLog {
		merged, neighbor := sibling(addr, sizeLog)
		if (neighbor >> b.minLog) >= b.blocks {
			break
		}
		if !b.isBitSet(neighbor) {
			break
		}
		neighborNode := b.node(neighbor)
		if neighborNode.order != order {
			break
		}

		b.remove(order, neighbor)
		b.clearBit(neighbor)

		addr = merged
		sizeLog++
		order++
	}

	b.push(order, addr)
	b.setBit(addr)
}

package alloc

import "unsafe"

// Layout describes a block of memory to allocate: a size in bytes and a
// power-of-two alignment. Layouts for a concrete type are produced with
// LayoutOf.
type Layout struct {
	size  uintptr
	align uintptr
}

// NewLayout creates a layout from an explicit size and alignment. The
// alignment must be a power of two.
func NewLayout(size uintptr, align uintptr) Layout {
	if align == 0 || align&(align-1) != 0 {
		panic("alloc: alignment must be a power of two")
	}
	return Layout{size: size, align: align}
}

// LayoutOf returns the layout for type T using its natural size and
// alignment. A zero-size T produces a zero-size layout, which is legal.
func LayoutOf[T any]() Layout {
	var zero T
	return Layout{
		size:  unsafe.Sizeof(zero),
		align: unsafe.Alignof(zero),
	}
}

// Size ...
func (l Layout) Size() uintptr {
	return l.size
}

// Alignment returns the required alignment, at least 1. The zero value of
// Layout describes an empty block with byte alignment.
func (l Layout) Alignment() uintptr {
	if l.align == 0 {
		return 1
	}
	return l.align
}

// Extend returns a layout for n more bytes at the same alignment.
func (l Layout) Extend(n uintptr) Layout {
	return Layout{size: l.size + n, align: l.align}
}

// Equal reports whether two layouts request the same size and alignment.
func (l Layout) Equal(other Layout) bool {
	return l.size == other.size && l.Alignment() == other.Alignment()
}

package alloc

import (
	"unsafe"

	"github.com/sirupsen/logrus"
)

// LogAllocator logs every operation of the inner allocator through a logrus
// logger: successful operations at debug level, failed requests at warning
// level. It follows the same shape as the other policy wrappers: intercept,
// act, delegate.
type LogAllocator struct {
	inner  Allocator
	logger logrus.FieldLogger
}

// NewLog ...
func NewLog(inner Allocator, logger logrus.FieldLogger) *LogAllocator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogAllocator{
		inner:  inner,
		logger: logger,
	}
}

func layoutFields(layout Layout) logrus.Fields {
	return logrus.Fields{
		"size":  uint64(layout.Size()),
		"align": uint64(layout.Alignment()),
	}
}

// Allocate ...
func (l *LogAllocator) Allocate(layout Layout) unsafe.Pointer {
	ptr := l.inner.Allocate(layout)
	entry := l.logger.WithFields(layoutFields(layout))
	if ptr == nil {
		entry.Warn("allocation failed")
		return nil
	}
	entry.WithField("ptr", uintptr(ptr)).Debug("allocated")
	return ptr
}

// Deallocate ...
func (l *LogAllocator) Deallocate(ptr unsafe.Pointer, layout Layout) {
	l.inner.Deallocate(ptr, layout)
	l.logger.WithFields(layoutFields(layout)).
		WithField("ptr", uintptr(ptr)).
		Debug("deallocated")
}

// Resize ...
func (l *LogAllocator) Resize(ptr unsafe.Pointer, layout Layout, newSize uintptr) bool {
	ok := Resize(l.inner, ptr, layout, newSize)
	entry := l.logger.WithFields(layoutFields(layout)).
		WithField("new_size", uint64(newSize))
	if !ok {
		entry.Warn("resize failed")
		return false
	}
	entry.Debug("resized")
	return true
}

// Query ...
func (l *LogAllocator) Query(ptr unsafe.Pointer, layout Layout) bool {
	return Query(l.inner, ptr, layout)
}

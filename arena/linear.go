// Package arena provides the linear allocator that hands out fixed backing
// blocks for tables and other systems sized once at startup.
package arena

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/theflywheel/hashtable"
)

var (
	// ErrOutOfMemory is returned when an allocation does not fit in the
	// remaining space.
	ErrOutOfMemory = errors.New("arena: out of memory")

	// ErrDestroyed is returned by Allocate after Destroy.
	ErrDestroyed = errors.New("arena: allocator not initialized")
)

// Linear is a bump allocator over one contiguous block. Individual blocks
// cannot be freed; FreeAll resets the whole arena at once.
type Linear struct {
	totalSize  uint64
	allocated  uint64
	memory     []byte
	ownsMemory bool
	log        *zap.Logger
}

// NewLinear creates an allocator of totalSize bytes over memory. When memory
// is nil the allocator allocates and owns its own block.
func NewLinear(totalSize uint64, memory []byte) (*Linear, error) {
	if totalSize == 0 {
		return nil, fmt.Errorf("arena: total size must be non-zero")
	}
	a := &Linear{
		totalSize: totalSize,
		log:       hashtable.Logger().Named("arena"),
	}
	if memory == nil {
		a.memory = make([]byte, totalSize)
		a.ownsMemory = true
		return a, nil
	}
	if uint64(len(memory)) < totalSize {
		return nil, fmt.Errorf("arena: memory holds %d bytes, %d required", len(memory), totalSize)
	}
	a.memory = memory[:totalSize:totalSize]
	return a, nil
}

// Allocate returns the next size bytes. The returned slice is capped at size,
// so appending to it never spills into the next block.
func (a *Linear) Allocate(size uint64) ([]byte, error) {
	if a == nil || a.memory == nil {
		hashtable.Logger().Error("arena allocate called on an uninitialized allocator")
		return nil, ErrDestroyed
	}
	if size > a.totalSize-a.allocated {
		remaining := a.totalSize - a.allocated
		a.log.Error("arena out of memory",
			zap.Uint64("requested", size),
			zap.Uint64("available", remaining))
		return nil, fmt.Errorf("%w: requested %dB, available %dB", ErrOutOfMemory, size, remaining)
	}
	start := a.allocated
	a.allocated += size
	return a.memory[start:a.allocated:a.allocated], nil
}

// FreeAll releases every allocation and zeroes the block.
func (a *Linear) FreeAll() {
	if a == nil || a.memory == nil {
		return
	}
	a.allocated = 0
	clear(a.memory)
}

// Destroy drops the allocator's reference to its block. Memory that was
// supplied by the caller is left untouched.
func (a *Linear) Destroy() {
	if a == nil {
		return
	}
	a.allocated = 0
	a.memory = nil
	a.totalSize = 0
	a.ownsMemory = false
}

func (a *Linear) TotalSize() uint64 { return a.totalSize }

func (a *Linear) Allocated() uint64 { return a.allocated }

func (a *Linear) Remaining() uint64 { return a.totalSize - a.allocated }

// OwnsMemory reports whether the block was allocated by NewLinear.
func (a *Linear) OwnsMemory() bool { return a.ownsMemory }

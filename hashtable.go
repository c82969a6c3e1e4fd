package hashtable

import (
	"math"
	"math/bits"
	"unsafe"

	"go.uber.org/zap"
)

// PointerSize is the slot width of a pointer-mode table.
const PointerSize = uint64(unsafe.Sizeof(unsafe.Pointer(nil)))

// Table is a fixed-capacity, direct-mapped table keyed by name. It never
// allocates: all slots live in memory borrowed from the caller at Create.
//
// The zero Table is uninitialized. A Table is not safe for concurrent use.
type Table struct {
	elementSize   uint64
	elementCount  uint32
	memory        []byte
	pointers      []unsafe.Pointer
	isPointerType bool
	algorithm     Algorithm
}

// Option configures a table at creation.
type Option func(*options)

type options struct {
	algorithm    Algorithm
	keepContents bool
}

// WithAlgorithm selects the hash used for slot addressing. DJB2 is the default.
func WithAlgorithm(a Algorithm) Option {
	return func(o *options) {
		o.algorithm = a
	}
}

// KeepContents skips zeroing the backing memory at creation. It is meant for
// re-attaching memory that an earlier table with the same element size,
// count and algorithm populated.
func KeepContents() Option {
	return func(o *options) {
		o.keepContents = true
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// MemoryRequirement returns the number of bytes a value-mode table of
// elementCount slots of elementSize bytes needs. It saturates at
// math.MaxUint64 when the product does not fit in 64 bits.
func MemoryRequirement(elementSize uint64, elementCount uint32) uint64 {
	need, ok := CheckedMemoryRequirement(elementSize, elementCount)
	if !ok {
		return math.MaxUint64
	}
	return need
}

// CheckedMemoryRequirement is MemoryRequirement that reports overflow
// instead of saturating.
func CheckedMemoryRequirement(elementSize uint64, elementCount uint32) (uint64, bool) {
	hi, lo := bits.Mul64(elementSize, uint64(elementCount))
	return lo, hi == 0
}

// Create initializes out as a value-mode table over memory. memory must hold
// at least MemoryRequirement(elementSize, elementCount) bytes; any excess is
// never touched. Unless KeepContents is given, the used region is zeroed.
func Create(elementSize uint64, elementCount uint32, memory []byte, out *Table, opts ...Option) error {
	o := buildOptions(opts)
	if err := validateCreate(elementCount, memory == nil, out == nil, o.algorithm); err != nil {
		return err
	}
	if elementSize == 0 {
		Logger().Error("hashtable create failed: element size must be non-zero")
		return invalidf("element size must be non-zero")
	}

	need, ok := CheckedMemoryRequirement(elementSize, elementCount)
	if !ok {
		Logger().Error("hashtable create failed: table size overflows",
			zap.Uint64("element_size", elementSize),
			zap.Uint32("element_count", elementCount))
		return invalidf("%d slots of %d bytes overflow 64 bits", elementCount, elementSize)
	}
	if uint64(len(memory)) < need {
		Logger().Error("hashtable create failed: backing memory too small",
			zap.Uint64("required", need),
			zap.Int("provided", len(memory)))
		return invalidf("backing memory holds %d bytes, %d required", len(memory), need)
	}

	*out = Table{
		elementSize:  elementSize,
		elementCount: elementCount,
		memory:       memory[:need:need],
		algorithm:    o.algorithm,
	}
	if !o.keepContents {
		clear(out.memory)
	}
	return nil
}

// CreatePtr initializes out as a pointer-mode table over memory. Slots hold
// pointers to values owned elsewhere; the table never dereferences them.
// memory must have at least elementCount entries.
func CreatePtr(elementCount uint32, memory []unsafe.Pointer, out *Table, opts ...Option) error {
	o := buildOptions(opts)
	if err := validateCreate(elementCount, memory == nil, out == nil, o.algorithm); err != nil {
		return err
	}
	if len(memory) < int(elementCount) {
		Logger().Error("hashtable create failed: backing memory too small",
			zap.Uint32("required", elementCount),
			zap.Int("provided", len(memory)))
		return invalidf("backing memory holds %d pointers, %d required", len(memory), elementCount)
	}

	*out = Table{
		elementSize:   PointerSize,
		elementCount:  elementCount,
		pointers:      memory[:elementCount:elementCount],
		isPointerType: true,
		algorithm:     o.algorithm,
	}
	if !o.keepContents {
		clear(out.pointers)
	}
	return nil
}

func validateCreate(elementCount uint32, nilMemory, nilOut bool, a Algorithm) error {
	if nilMemory || nilOut {
		Logger().Error("hashtable create failed: backing memory and output table are required")
		return invalidf("backing memory and output table are required")
	}
	if elementCount == 0 {
		Logger().Error("hashtable create failed: element count must be non-zero")
		return invalidf("element count must be non-zero")
	}
	if !a.Valid() {
		Logger().Error("hashtable create failed: unknown hash algorithm", zap.Stringer("algorithm", a))
		return invalidf("unknown hash algorithm %v", a)
	}
	return nil
}

// Destroy returns t to the uninitialized state. The backing memory is left
// as it is; it still belongs to the caller.
func (t *Table) Destroy() {
	if t == nil {
		return
	}
	*t = Table{}
}

// Active reports whether t was created and not yet destroyed.
func (t *Table) Active() bool {
	return t != nil && t.elementCount != 0
}

func (t *Table) ElementSize() uint64 {
	if t == nil {
		return 0
	}
	return t.elementSize
}

func (t *Table) ElementCount() uint32 {
	if t == nil {
		return 0
	}
	return t.elementCount
}

func (t *Table) IsPointerType() bool {
	return t != nil && t.isPointerType
}

func (t *Table) Algorithm() Algorithm {
	if t == nil {
		return DJB2
	}
	return t.algorithm
}

// Slot returns the slot index name maps to. Distinct names may share a slot.
func (t *Table) Slot(name string) (uint32, error) {
	if err := t.check("slot", name); err != nil {
		return 0, err
	}
	return t.slot(name), nil
}

func (t *Table) slot(name string) uint32 {
	return SlotIndex(t.algorithm, name, t.elementCount)
}

// check guards every operation against a nil or inactive table.
func (t *Table) check(op, name string) error {
	if t == nil {
		Logger().Warn("hashtable operation on nil table", zap.String("op", op), zap.String("name", name))
		return invalidf("%s: nil table", op)
	}
	if t.elementCount == 0 {
		Logger().Warn("hashtable operation on inactive table", zap.String("op", op), zap.String("name", name))
		return ErrNotActive
	}
	return nil
}

func (t *Table) checkValue(op, name string, buf []byte) error {
	if err := t.check(op, name); err != nil {
		return err
	}
	if t.isPointerType {
		Logger().Error("value operation used on a pointer table, use the Ptr variant instead",
			zap.String("op", op), zap.String("name", name))
		return ErrModeMismatch
	}
	if uint64(len(buf)) != t.elementSize {
		Logger().Warn("hashtable buffer size does not match element size",
			zap.String("op", op),
			zap.Int("size", len(buf)),
			zap.Uint64("element_size", t.elementSize))
		return invalidf("%s: buffer holds %d bytes, element size is %d", op, len(buf), t.elementSize)
	}
	return nil
}

func (t *Table) checkPointer(op, name string) error {
	if err := t.check(op, name); err != nil {
		return err
	}
	if !t.isPointerType {
		Logger().Error("pointer operation used on a value table, use the non-Ptr variant instead",
			zap.String("op", op), zap.String("name", name))
		return ErrModeMismatch
	}
	return nil
}

// Set copies value into the slot for name. value must be exactly
// ElementSize bytes. Any name sharing the slot is silently overwritten.
func (t *Table) Set(name string, value []byte) error {
	if err := t.checkValue("set", name, value); err != nil {
		return err
	}
	off := uint64(t.slot(name)) * t.elementSize
	copy(t.memory[off:off+t.elementSize], value)
	return nil
}

// Get copies the contents of the slot for name into out, which must be
// exactly ElementSize bytes. An unset slot yields zeros, or whatever Fill
// last broadcast; a colliding name yields that name's value.
func (t *Table) Get(name string, out []byte) error {
	if err := t.checkValue("get", name, out); err != nil {
		return err
	}
	off := uint64(t.slot(name)) * t.elementSize
	copy(out, t.memory[off:off+t.elementSize])
	return nil
}

// Fill copies value into every slot.
func (t *Table) Fill(value []byte) error {
	if err := t.checkValue("fill", "", value); err != nil {
		return err
	}
	for off := uint64(0); off < uint64(len(t.memory)); off += t.elementSize {
		copy(t.memory[off:off+t.elementSize], value)
	}
	return nil
}

// SetPtr stores p in the slot for name. A nil p unsets the slot.
func (t *Table) SetPtr(name string, p unsafe.Pointer) error {
	if err := t.checkPointer("set_ptr", name); err != nil {
		return err
	}
	t.pointers[t.slot(name)] = p
	return nil
}

// GetPtr returns the pointer stored in the slot for name, or nil if the
// slot is unset.
func (t *Table) GetPtr(name string) (unsafe.Pointer, error) {
	if err := t.checkPointer("get_ptr", name); err != nil {
		return nil, err
	}
	return t.pointers[t.slot(name)], nil
}

// FillPtr stores p in every slot.
func (t *Table) FillPtr(p unsafe.Pointer) error {
	if err := t.checkPointer("fill_ptr", ""); err != nil {
		return err
	}
	for i := range t.pointers {
		t.pointers[i] = p
	}
	return nil
}

package hashtable

import (
	"reflect"
	"unsafe"

	"go.uber.org/zap"
)

// Values is a value-mode table whose slots hold a T each. T is copied byte
// for byte into memory the collector does not scan, so NewValues rejects any
// T containing pointers, slices, strings, maps, channels, funcs or interfaces.
type Values[T any] struct {
	table Table
}

// ValuesRequirement returns the backing memory, in bytes, that NewValues
// needs for count slots of T.
func ValuesRequirement[T any](count uint32) uint64 {
	var zero T
	return MemoryRequirement(uint64(unsafe.Sizeof(zero)), count)
}

// NewValues creates a value-mode table of count slots of T over memory.
func NewValues[T any](count uint32, memory []byte, opts ...Option) (*Values[T], error) {
	if typ := reflect.TypeOf((*T)(nil)).Elem(); !pointerFree(typ) {
		Logger().Error("value table element type holds pointers, use Pointers instead",
			zap.Stringer("type", typ))
		return nil, invalidf("element type %v holds pointers", typ)
	}
	var zero T
	v := &Values[T]{}
	if err := Create(uint64(unsafe.Sizeof(zero)), count, memory, &v.table, opts...); err != nil {
		return nil, err
	}
	return v, nil
}

// pointerFree reports whether values of typ can be copied as plain bytes.
func pointerFree(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return typ.Len() == 0 || pointerFree(typ.Elem())
	case reflect.Struct:
		for i := 0; i < typ.NumField(); i++ {
			if !pointerFree(typ.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func bytesOf[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// Set stores v under name.
func (v *Values[T]) Set(name string, value T) error {
	return v.table.Set(name, bytesOf(&value))
}

// Get returns the value in the slot for name.
func (v *Values[T]) Get(name string) (T, error) {
	var out T
	err := v.table.Get(name, bytesOf(&out))
	return out, err
}

// Fill stores value in every slot.
func (v *Values[T]) Fill(value T) error {
	return v.table.Fill(bytesOf(&value))
}

// Table exposes the underlying table.
func (v *Values[T]) Table() *Table {
	return &v.table
}

func (v *Values[T]) Destroy() {
	v.table.Destroy()
}

// Pointers is a pointer-mode table whose slots hold a *T each. Pointees stay
// owned by the caller.
type Pointers[T any] struct {
	table Table
}

// NewPointers creates a pointer-mode table of count slots over memory.
func NewPointers[T any](count uint32, memory []unsafe.Pointer, opts ...Option) (*Pointers[T], error) {
	p := &Pointers[T]{}
	if err := CreatePtr(count, memory, &p.table, opts...); err != nil {
		return nil, err
	}
	return p, nil
}

// Set stores ptr under name. A nil ptr unsets the slot.
func (p *Pointers[T]) Set(name string, ptr *T) error {
	return p.table.SetPtr(name, unsafe.Pointer(ptr))
}

// Get returns the pointer in the slot for name and whether it is non-nil.
func (p *Pointers[T]) Get(name string) (*T, bool, error) {
	raw, err := p.table.GetPtr(name)
	if err != nil {
		return nil, false, err
	}
	return (*T)(raw), raw != nil, nil
}

func (p *Pointers[T]) Fill(ptr *T) error {
	return p.table.FillPtr(unsafe.Pointer(ptr))
}

func (p *Pointers[T]) Table() *Table {
	return &p.table
}

func (p *Pointers[T]) Destroy() {
	p.table.Destroy()
}

// Package registry keeps reference-counted resources addressed by name in a
// fixed number of entries, with the name lookup served by a hashtable
// carved out of a linear arena.
//
// Names that collide in the lookup table share one reference record, exactly
// as they share a slot in the table. Size MaxCount well above the number of
// live names.
package registry

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/theflywheel/hashtable"
	"github.com/theflywheel/hashtable/arena"
)

// InvalidHandle marks a reference with no entry behind it.
const InvalidHandle = math.MaxUint32

var (
	// ErrFull is returned when every entry is in use.
	ErrFull = errors.New("registry: no free entries, raise MaxCount")

	// ErrNotAcquired is returned when releasing a name with no references.
	ErrNotAcquired = errors.New("registry: name was not acquired")

	// ErrShutdown is returned by operations after Shutdown.
	ErrShutdown = errors.New("registry: shut down")
)

// Config sizes a registry.
type Config struct {
	// MaxCount is the number of entries and lookup slots.
	MaxCount uint32
	// DefaultName is served from the default value and never loaded.
	// Matching is case-insensitive.
	DefaultName string
}

// Loader creates and destroys the resources a registry hands out.
type Loader[T any] interface {
	Load(name string, out *T) error
	Unload(name string, v *T)
}

// reference is the value stored in the lookup table. It must stay free of
// pointers.
type reference struct {
	ReferenceCount uint64
	Handle         uint32
	AutoRelease    bool
}

type entry[T any] struct {
	value  T
	name   string
	loaded bool
}

// Registry is not safe for concurrent use.
type Registry[T any] struct {
	cfg     Config
	arena   *arena.Linear
	table   *hashtable.Values[reference]
	entries []entry[T]
	def     T
	loader  Loader[T]
	log     *zap.Logger
}

// MemoryRequirement returns the bytes New needs for the lookup table.
func MemoryRequirement(cfg Config) uint64 {
	return hashtable.ValuesRequirement[reference](cfg.MaxCount)
}

// New creates a registry. memory backs the lookup table and must hold
// MemoryRequirement(cfg) bytes; when nil the registry allocates its own.
func New[T any](cfg Config, memory []byte, loader Loader[T], def T, opts ...hashtable.Option) (*Registry[T], error) {
	if cfg.MaxCount == 0 || cfg.MaxCount == InvalidHandle {
		return nil, fmt.Errorf("registry: invalid MaxCount %d", cfg.MaxCount)
	}
	if loader == nil {
		return nil, fmt.Errorf("registry: loader is required")
	}

	need := MemoryRequirement(cfg)
	a, err := arena.NewLinear(need, memory)
	if err != nil {
		return nil, err
	}
	block, err := a.Allocate(need)
	if err != nil {
		return nil, err
	}
	table, err := hashtable.NewValues[reference](cfg.MaxCount, block, opts...)
	if err != nil {
		return nil, err
	}
	if err := table.Fill(reference{Handle: InvalidHandle}); err != nil {
		return nil, err
	}

	return &Registry[T]{
		cfg:     cfg,
		arena:   a,
		table:   table,
		entries: make([]entry[T], cfg.MaxCount),
		def:     def,
		loader:  loader,
		log:     hashtable.Logger().Named("registry"),
	}, nil
}

func (r *Registry[T]) isDefault(name string) bool {
	return r.cfg.DefaultName != "" && strings.EqualFold(name, r.cfg.DefaultName)
}

// Default returns the default resource.
func (r *Registry[T]) Default() *T {
	return &r.def
}

// Acquire returns the resource for name, loading it into a free entry on
// first use. autoRelease is only honoured when the name has no references;
// an auto-release resource is unloaded when its count drops back to zero.
func (r *Registry[T]) Acquire(name string, autoRelease bool) (*T, error) {
	if r.table == nil {
		return nil, ErrShutdown
	}
	if r.isDefault(name) {
		r.log.Warn("acquire called for the default resource, use Default instead", zap.String("name", name))
		return &r.def, nil
	}

	ref, err := r.table.Get(name)
	if err != nil {
		return nil, err
	}
	if ref.ReferenceCount == 0 {
		ref.AutoRelease = autoRelease
	}
	ref.ReferenceCount++

	if ref.Handle == InvalidHandle {
		handle, ok := r.freeEntry()
		if !ok {
			r.log.Error("registry cannot hold any more resources", zap.Uint32("max_count", r.cfg.MaxCount))
			return nil, ErrFull
		}
		e := &r.entries[handle]
		if err := r.loader.Load(name, &e.value); err != nil {
			var zero T
			e.value = zero
			return nil, fmt.Errorf("registry: failed to load %q: %w", name, err)
		}
		e.name = name
		e.loaded = true
		ref.Handle = handle
		r.log.Debug("resource created", zap.String("name", name), zap.Uint64("references", ref.ReferenceCount))
	} else {
		r.log.Debug("resource already exists", zap.String("name", name), zap.Uint64("references", ref.ReferenceCount))
	}

	if err := r.table.Set(name, ref); err != nil {
		return nil, err
	}
	return &r.entries[ref.Handle].value, nil
}

// Release drops one reference to name. Releasing the default resource is a
// no-op.
func (r *Registry[T]) Release(name string) error {
	if r.table == nil {
		return ErrShutdown
	}
	if r.isDefault(name) {
		return nil
	}

	ref, err := r.table.Get(name)
	if err != nil {
		return err
	}
	if ref.ReferenceCount == 0 {
		r.log.Warn("tried to release a resource that was never acquired", zap.String("name", name))
		return fmt.Errorf("%w: %q", ErrNotAcquired, name)
	}

	ref.ReferenceCount--
	if ref.ReferenceCount == 0 && ref.AutoRelease {
		r.unload(ref.Handle)
		ref.Handle = InvalidHandle
		ref.AutoRelease = false
		r.log.Debug("resource unloaded", zap.String("name", name))
	} else {
		r.log.Debug("resource released",
			zap.String("name", name),
			zap.Uint64("references", ref.ReferenceCount),
			zap.Bool("auto_release", ref.AutoRelease))
	}
	return r.table.Set(name, ref)
}

// References returns the reference count recorded for name.
func (r *Registry[T]) References(name string) (uint64, error) {
	if r.table == nil {
		return 0, ErrShutdown
	}
	ref, err := r.table.Get(name)
	return ref.ReferenceCount, err
}

// Loaded returns the number of entries currently holding a resource.
func (r *Registry[T]) Loaded() int {
	n := 0
	for i := range r.entries {
		if r.entries[i].loaded {
			n++
		}
	}
	return n
}

// Shutdown unloads every resource and releases the lookup table.
func (r *Registry[T]) Shutdown() {
	if r.table == nil {
		return
	}
	for i := range r.entries {
		if r.entries[i].loaded {
			r.unload(uint32(i))
		}
	}
	r.table.Destroy()
	r.table = nil
	r.arena.Destroy()
}

func (r *Registry[T]) freeEntry() (uint32, bool) {
	for i := range r.entries {
		if !r.entries[i].loaded {
			return uint32(i), true
		}
	}
	return InvalidHandle, false
}

func (r *Registry[T]) unload(handle uint32) {
	e := &r.entries[handle]
	r.loader.Unload(e.name, &e.value)
	*e = entry[T]{}
}

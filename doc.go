/*
Package hashtable provides a fixed-capacity table keyed by name that lives
entirely in memory supplied by the caller.

A Table never allocates. The caller hands it a block sized for every slot up
front, typically carved out of an arena, and the table only reads and writes
inside that block until it is destroyed.

Basic usage:

	import "github.com/theflywheel/hashtable"

	// Value mode: each slot holds an 8-byte copy.
	memory := make([]byte, hashtable.MemoryRequirement(8, 64))

	var table hashtable.Table
	if err := hashtable.Create(8, 64, memory, &table); err != nil {
		log.Fatal(err)
	}
	defer table.Destroy()

	value := make([]byte, 8)
	binary.LittleEndian.PutUint64(value, 42)
	err := table.Set("u_projection", value)

	out := make([]byte, 8)
	err = table.Get("u_projection", out)

Pointer mode stores pointers to values owned elsewhere:

	slots := make([]unsafe.Pointer, 64)
	var textures hashtable.Table
	err := hashtable.CreatePtr(64, slots, &textures)
	err = textures.SetPtr("default", unsafe.Pointer(&tex))

The generic Values and Pointers types wrap both modes with typed accessors.

Features:

  - Caller-owned backing memory, zeroed at creation
  - Value mode (inline copies) and pointer mode (stored addresses)
  - Deterministic, unseeded string hashing: DJB2 (default), FNV-1a or xxhash64
  - Constant-time Set and Get with no probing
  - Contract violations are returned as errors and reported to a zap logger

Collisions:

The table is direct-mapped. A name's slot is its hash modulo the element
count and nothing else, so two names that land on the same slot share it:
the later Set overwrites the earlier one and Get for either name returns the
last value written. Collisions are neither detected nor reported. Pick a
capacity comfortably above the number of names, and check a name set with
cmd/slotmap when it matters.

There is no delete. Unset slots read as zero (or nil in pointer mode), or as
whatever Fill last broadcast.
*/
package hashtable

package hashtable

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Algorithm selects the string hash used to map a name to a slot.
// Every algorithm is unseeded, so slot assignment is reproducible across runs.
type Algorithm uint8

const (
	// DJB2 is a polynomial hash with a prime multiplier of 97.
	DJB2 Algorithm = iota
	// FNV1a is the 64-bit FNV-1a hash.
	FNV1a
	// XXHash is xxhash64 with a zero seed.
	XXHash
)

const (
	djb2Multiplier = 97

	offset64 = 14695981039346656037
	prime64  = 1099511628211
)

// Sum64 computes the unreduced hash of name.
func (a Algorithm) Sum64(name string) uint64 {
	switch a {
	case FNV1a:
		return fnv1a(name)
	case XXHash:
		return xxhash.Sum64String(name)
	default:
		return djb2(name)
	}
}

func (a Algorithm) String() string {
	switch a {
	case DJB2:
		return "djb2"
	case FNV1a:
		return "fnv1a"
	case XXHash:
		return "xxhash"
	default:
		return fmt.Sprintf("Algorithm(%d)", uint8(a))
	}
}

// Valid reports whether a is one of the known algorithms.
func (a Algorithm) Valid() bool {
	return a <= XXHash
}

// ParseAlgorithm converts a name such as "fnv1a" back into an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "djb2", "":
		return DJB2, nil
	case "fnv1a", "fnv":
		return FNV1a, nil
	case "xxhash", "xxh64":
		return XXHash, nil
	}
	return 0, fmt.Errorf("unknown hash algorithm %q", s)
}

// SlotIndex maps name to a slot in [0, count). A zero count has no slots
// and maps every name to 0.
func SlotIndex(a Algorithm, name string, count uint32) uint32 {
	if count == 0 {
		return 0
	}
	return uint32(a.Sum64(name) % uint64(count))
}

// djb2 walks the bytes of the name, not its runes.
func djb2(name string) uint64 {
	var hash uint64
	for i := 0; i < len(name); i++ {
		hash = hash*djb2Multiplier + uint64(name[i])
	}
	return hash
}

func fnv1a(name string) uint64 {
	hash := uint64(offset64)
	for i := 0; i < len(name); i++ {
		hash ^= uint64(name[i])
		hash *= prime64
	}
	return hash
}

// Package hashtable_test benchmarks the fixed-capacity table.
//
// It measures:
//   - Set and Get for every hash algorithm and several name lengths
//   - Fill across tables of growing capacity
//   - How many of ten thousand uniform-style names survive in a table
//     sized at a given load factor
package hashtable_test

import (
	"encoding/binary"
	"fmt"
	"strings"
	"testing"
	"unsafe"

	"github.com/theflywheel/hashtable"
)

var algorithms = []hashtable.Algorithm{hashtable.DJB2, hashtable.FNV1a, hashtable.XXHash}

func names(n, length int) []string {
	out := make([]string, n)
	for i := range out {
		name := fmt.Sprintf("u_%d_", i)
		if pad := length - len(name); pad > 0 {
			name += strings.Repeat("x", pad)
		}
		out[i] = name
	}
	return out
}

func BenchmarkSetGet(b *testing.B) {
	const count = 1024

	for _, a := range algorithms {
		for _, length := range []int{8, 32, 256} {
			b.Run(fmt.Sprintf("%s/len=%d", a, length), func(b *testing.B) {
				memory := make([]byte, hashtable.MemoryRequirement(8, count))
				var table hashtable.Table
				if err := hashtable.Create(8, count, memory, &table, hashtable.WithAlgorithm(a)); err != nil {
					b.Fatalf("Failed to create table: %v", err)
				}
				defer table.Destroy()

				keys := names(count, length)
				value := make([]byte, 8)
				out := make([]byte, 8)

				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					key := keys[i%count]
					binary.LittleEndian.PutUint64(value, uint64(i))
					if err := table.Set(key, value); err != nil {
						b.Fatalf("Failed to set %q: %v", key, err)
					}
					if err := table.Get(key, out); err != nil {
						b.Fatalf("Failed to get %q: %v", key, err)
					}
				}
			})
		}
	}
}

func BenchmarkGetPtr(b *testing.B) {
	const count = 1024

	slots := make([]unsafe.Pointer, count)
	var table hashtable.Table
	if err := hashtable.CreatePtr(count, slots, &table); err != nil {
		b.Fatalf("Failed to create table: %v", err)
	}
	defer table.Destroy()

	keys := names(count, 16)
	values := make([]uint64, count)
	for i, key := range keys {
		if err := table.SetPtr(key, unsafe.Pointer(&values[i])); err != nil {
			b.Fatalf("Failed to set %q: %v", key, err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := table.GetPtr(keys[i%count]); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFill(b *testing.B) {
	for _, count := range []uint32{64, 4096, 262144} {
		b.Run(fmt.Sprintf("count=%d", count), func(b *testing.B) {
			memory := make([]byte, hashtable.MemoryRequirement(16, count))
			var table hashtable.Table
			if err := hashtable.Create(16, count, memory, &table); err != nil {
				b.Fatalf("Failed to create table: %v", err)
			}
			defer table.Destroy()

			value := make([]byte, 16)
			b.SetBytes(int64(len(memory)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := table.Fill(value); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkTenThousandNames reports the share of names whose value survives
// once every name has been written, for tables sized at several load factors.
func BenchmarkTenThousandNames(b *testing.B) {
	const numNames = 10_000
	keys := names(numNames, 0)

	for _, a := range algorithms {
		for _, load := range []float64{0.25, 0.5, 1.0} {
			b.Run(fmt.Sprintf("%s/load=%.2f", a, load), func(b *testing.B) {
				count := uint32(float64(numNames) / load)
				values, err := hashtable.NewValues[uint32](count, make([]byte, hashtable.ValuesRequirement[uint32](count)), hashtable.WithAlgorithm(a))
				if err != nil {
					b.Fatalf("Failed to create table: %v", err)
				}
				defer values.Destroy()

				var survived int
				for n := 0; n < b.N; n++ {
					for i, key := range keys {
						if err := values.Set(key, uint32(i)); err != nil {
							b.Fatal(err)
						}
					}
					survived = 0
					for i, key := range keys {
						got, err := values.Get(key)
						if err != nil {
							b.Fatal(err)
						}
						if got == uint32(i) {
							survived++
						}
					}
				}
				b.ReportMetric(float64(survived)/numNames, "survived")
			})
		}
	}
}

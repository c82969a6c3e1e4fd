package main

import (
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"unsafe"

	"go.uber.org/zap"

	"github.com/theflywheel/hashtable"
	"github.com/theflywheel/hashtable/arena"
	"github.com/theflywheel/hashtable/mapped"
)

type material struct {
	Name      string
	Roughness float32
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	hashtable.SetLogger(logger)

	// One arena backs every table in this example.
	const count = 32
	a, err := arena.NewLinear(hashtable.MemoryRequirement(8, count), nil)
	if err != nil {
		log.Fatalf("Failed to create arena: %v", err)
	}
	defer a.Destroy()

	block, err := a.Allocate(hashtable.MemoryRequirement(8, count))
	if err != nil {
		log.Fatalf("Failed to allocate table memory: %v", err)
	}

	var locations hashtable.Table
	if err := hashtable.Create(8, count, block, &locations); err != nil {
		log.Fatalf("Failed to create table: %v", err)
	}
	defer locations.Destroy()

	// Mark every slot as "no location" before registering uniforms.
	invalid := make([]byte, 8)
	binary.LittleEndian.PutUint64(invalid, ^uint64(0))
	if err := locations.Fill(invalid); err != nil {
		log.Fatalf("Failed to fill table: %v", err)
	}

	value := make([]byte, 8)
	for i, name := range []string{"u_projection", "u_view", "u_model", "u_diffuse"} {
		binary.LittleEndian.PutUint64(value, uint64(i))
		if err := locations.Set(name, value); err != nil {
			log.Fatalf("Failed to set %s: %v", name, err)
		}
	}

	out := make([]byte, 8)
	for _, name := range []string{"u_view", "u_diffuse", "u_missing"} {
		if err := locations.Get(name, out); err != nil {
			log.Fatalf("Failed to get %s: %v", name, err)
		}
		slot, _ := locations.Slot(name)
		if loc := binary.LittleEndian.Uint64(out); loc == ^uint64(0) {
			fmt.Printf("%s (slot %d) => no location\n", name, slot)
		} else {
			fmt.Printf("%s (slot %d) => location %d\n", name, slot, loc)
		}
	}

	// Pointer mode: the table holds addresses of materials owned here.
	materials := []material{{"brick", 0.9}, {"chrome", 0.1}}
	slots := make([]unsafe.Pointer, count)
	byName, err := hashtable.NewPointers[material](count, slots)
	if err != nil {
		log.Fatalf("Failed to create pointer table: %v", err)
	}
	defer byName.Destroy()

	for i := range materials {
		if err := byName.Set(materials[i].Name, &materials[i]); err != nil {
			log.Fatalf("Failed to set %s: %v", materials[i].Name, err)
		}
	}
	if m, ok, _ := byName.Get("chrome"); ok {
		fmt.Printf("chrome roughness => %.2f\n", m.Roughness)
	}

	// Mode mismatches are rejected, not coerced.
	if err := locations.SetPtr("u_view", nil); err != nil {
		fmt.Println("Expected error:", err)
	}

	// A mapped file keeps a value table across runs.
	path := filepath.Join(os.TempDir(), "example.htbl")
	os.Remove(path)
	f, err := mapped.Open(path, 8, count, hashtable.DJB2)
	if err != nil {
		log.Fatalf("Failed to open mapped file: %v", err)
	}
	defer os.Remove(path)
	defer f.Close()

	var persisted hashtable.Table
	if err := mapped.Attach(f, &persisted); err != nil {
		log.Fatalf("Failed to attach table: %v", err)
	}
	defer persisted.Destroy()

	binary.LittleEndian.PutUint64(value, 999)
	if err := persisted.Set("u_time", value); err != nil {
		log.Fatalf("Failed to set u_time: %v", err)
	}
	if err := f.Sync(); err != nil {
		log.Fatalf("Failed to sync: %v", err)
	}

	fmt.Println("Example completed successfully")
}

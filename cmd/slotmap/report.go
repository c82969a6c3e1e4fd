package main

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/theflywheel/hashtable"
)

// markerSize is the slot width of the scratch table: the 1-based index of
// the last name written to the slot.
const markerSize = 4

// Assignment is the slot one name maps to.
type Assignment struct {
	Name       string `json:"name"`
	Slot       uint32 `json:"slot"`
	Overwrites string `json:"overwrites,omitempty"`
}

// Collision lists names sharing a slot, in input order. Only the last one
// survives in a table.
type Collision struct {
	Slot  uint32   `json:"slot"`
	Names []string `json:"names"`
}

// Report summarizes how a set of names lands in a table.
type Report struct {
	Algorithm   string       `json:"algorithm"`
	Count       uint32       `json:"element_count"`
	Names       int          `json:"names"`
	UsedSlots   int          `json:"used_slots"`
	LoadFactor  float64      `json:"load_factor"`
	Assignments []Assignment `json:"assignments"`
	Collisions  []Collision  `json:"collisions,omitempty"`
}

// BuildReport writes every name into a real table of the given capacity and
// records which earlier name, if any, each write overwrote. Repeated names
// are reported once.
func BuildReport(names []string, count uint32, algorithm hashtable.Algorithm) (*Report, error) {
	memory := make([]byte, hashtable.MemoryRequirement(markerSize, count))
	var table hashtable.Table
	if err := hashtable.Create(markerSize, count, memory, &table, hashtable.WithAlgorithm(algorithm)); err != nil {
		return nil, err
	}
	defer table.Destroy()

	r := &Report{
		Algorithm: algorithm.String(),
		Count:     count,
	}
	seen := make(map[string]bool, len(names))
	bySlot := make(map[uint32][]string)
	buf := make([]byte, markerSize)

	for i, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		slot, err := table.Slot(name)
		if err != nil {
			return nil, err
		}
		if err := table.Get(name, buf); err != nil {
			return nil, err
		}
		a := Assignment{Name: name, Slot: slot}
		if prev := binary.LittleEndian.Uint32(buf); prev != 0 {
			a.Overwrites = names[prev-1]
		}

		binary.LittleEndian.PutUint32(buf, uint32(i+1))
		if err := table.Set(name, buf); err != nil {
			return nil, fmt.Errorf("set %q: %w", name, err)
		}

		r.Assignments = append(r.Assignments, a)
		bySlot[slot] = append(bySlot[slot], name)
	}

	r.Names = len(r.Assignments)
	r.UsedSlots = len(bySlot)
	r.LoadFactor = float64(r.Names) / float64(count)
	for slot, group := range bySlot {
		if len(group) > 1 {
			r.Collisions = append(r.Collisions, Collision{Slot: slot, Names: group})
		}
	}
	sort.Slice(r.Collisions, func(i, j int) bool {
		return r.Collisions[i].Slot < r.Collisions[j].Slot
	})
	return r, nil
}

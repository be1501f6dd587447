// Package capacity computes the per-slot occupancy ceiling of a campaign.
//
// The ceiling is global: it depends only on the least-filled slot. Every slot
// may hold Base people until all slots reach Base; after that the ceiling grows
// by Step each time the least-filled slot completes another round. An optional
// HardMax caps the growth.
package capacity

import "fmt"

// Slot statuses, as shown on the clock grid.
const (
	SlotOpen  = "open"  // below Base
	SlotBonus = "bonus" // past Base, extra capacity released
	SlotFull  = "full"  // at the current ceiling, waiting for other slots
	SlotMaxed = "maxed" // at HardMax, will never open again
)

type Policy struct {
	Base    int `json:"base"`
	Step    int `json:"step"`
	HardMax int `json:"hard_max,omitempty"` // 0 = unbounded
}

// DefaultPolicy is the progressive 5, 8, 11, ... policy.
func DefaultPolicy() Policy {
	return Policy{Base: 5, Step: 3}
}

func (p Policy) Validate() error {
	if p.Base < 1 {
		return fmt.Errorf("capacity base must be positive, got %d", p.Base)
	}
	if p.Step < 1 {
		return fmt.Errorf("capacity step must be positive, got %d", p.Step)
	}
	if p.HardMax != 0 && p.HardMax < p.Base {
		return fmt.Errorf("capacity hard max %d is below base %d", p.HardMax, p.Base)
	}
	return nil
}

// MinCount returns the smallest entry of counts, or 0 when counts is empty.
func MinCount(counts []int) int {
	if len(counts) == 0 {
		return 0
	}
	m := counts[0]
	for _, c := range counts[1:] {
		if c < m {
			m = c
		}
	}
	return m
}

// Ceiling returns the occupancy ceiling that applies to every slot.
func (p Policy) Ceiling(counts []int) int {
	return p.CeilingForMin(MinCount(counts))
}

// CeilingForMin returns the ceiling given the occupancy of the least-filled slot.
func (p Policy) CeilingForMin(minCount int) int {
	ceiling := p.Base
	if minCount >= p.Base && p.Step > 0 {
		ceiling = p.Base + p.Step*((minCount-p.Base)/p.Step+1)
	}
	if p.HardMax > 0 && ceiling > p.HardMax {
		ceiling = p.HardMax
	}
	return ceiling
}

// HasRoom reports whether slot may take one more signup.
func (p Policy) HasRoom(counts []int, slot int) bool {
	if slot < 0 || slot >= len(counts) {
		return false
	}
	return counts[slot] < p.Ceiling(counts)
}

// Status classifies a slot holding count signups under the given ceiling.
func (p Policy) Status(count, ceiling int) string {
	switch {
	case p.HardMax > 0 && count >= p.HardMax:
		return SlotMaxed
	case count >= ceiling:
		return SlotFull
	case count >= p.Base:
		return SlotBonus
	default:
		return SlotOpen
	}
}

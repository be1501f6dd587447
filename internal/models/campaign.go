package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/prayer-clock/backend/internal/capacity"
)

// SlotDuration is the length of one reservable slot.
const SlotDuration = time.Hour

type Campaign struct {
	ID        uuid.UUID       `json:"id"`
	Title     string          `json:"title"`
	StartAt   time.Time       `json:"start_at"`
	SlotCount int             `json:"slot_count"`
	Active    bool            `json:"active"`
	Policy    capacity.Policy `json:"policy"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ValidSlot reports whether slot lies in [0, SlotCount).
func (c *Campaign) ValidSlot(slot int) bool {
	return slot >= 0 && slot < c.SlotCount
}

// SlotStart returns the instant slot begins.
func (c *Campaign) SlotStart(slot int) time.Time {
	return c.StartAt.Add(time.Duration(slot) * SlotDuration)
}

// SlotAt returns the slot running at t, or -1 outside the campaign.
func (c *Campaign) SlotAt(t time.Time) int {
	if t.Before(c.StartAt) {
		return -1
	}
	slot := int(t.Sub(c.StartAt) / SlotDuration)
	if slot >= c.SlotCount {
		return -1
	}
	return slot
}

// EndAt returns the instant the last slot ends.
func (c *Campaign) EndAt() time.Time {
	return c.SlotStart(c.SlotCount)
}

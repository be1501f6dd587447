package models

import (
	"time"

	"github.com/google/uuid"
)

type Signup struct {
	ID         uuid.UUID `json:"id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	MemberID   uuid.UUID `json:"member_id"`
	SlotIndex  int       `json:"slot_index"`
	CreatedAt  time.Time `json:"created_at"`
}

// SignupWithMember is a reporting row joined with the member's display data.
type SignupWithMember struct {
	Signup
	MemberName  *string `json:"member_name,omitempty"`
	MemberPhone *string `json:"member_phone,omitempty"`
}

// SlotRejection explains why one slot of a batch was not granted.
type SlotRejection struct {
	SlotIndex int    `json:"slot_index"`
	Code      string `json:"code"`
	Reason    string `json:"reason"`
}

// SelectionResult is the outcome of replacing a member's slot selection.
// The batch is not all-or-nothing: callers render state from Granted.
type SelectionResult struct {
	CampaignID uuid.UUID       `json:"campaign_id"`
	MemberID   uuid.UUID       `json:"member_id"`
	Removed    []int           `json:"removed"`
	Granted    []Signup        `json:"granted"`
	Rejected   []SlotRejection `json:"rejected"`
}

// GrantedSlots returns the slot indexes that were reserved.
func (r *SelectionResult) GrantedSlots() []int {
	slots := make([]int, 0, len(r.Granted))
	for _, s := range r.Granted {
		slots = append(slots, s.SlotIndex)
	}
	return slots
}

// Reminder records that a member was reminded about one slot.
type Reminder struct {
	MemberID   uuid.UUID `json:"member_id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	SlotIndex  int       `json:"slot_index"`
	SentAt     time.Time `json:"sent_at"`
}

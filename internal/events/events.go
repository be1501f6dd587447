package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StreamSignups carries every reservation state change and slot reminder.
const StreamSignups = "events:signup"

// Event types
const (
	EventSignupReserved    = "signup_reserved"
	EventSignupCancelled   = "signup_cancelled"
	EventSelectionReplaced = "selection_replaced"
	EventSlotReminder      = "slot_reminder"
)

// Outcomes
const (
	OutcomeReserved  = "reserved"
	OutcomeCancelled = "cancelled"
	OutcomeReplaced  = "replaced"
	OutcomePartial   = "partial" // some slots of a replaced selection were rejected
	OutcomeReminder  = "reminder"
)

// Event is what the notification dispatcher and live dashboards consume.
type Event struct {
	Type       string     `json:"type"`
	CampaignID uuid.UUID  `json:"campaign_id"`
	MemberID   uuid.UUID  `json:"member_id"`
	Slots      []int      `json:"slots"`
	Rejected   []int      `json:"rejected,omitempty"`
	Outcome    string     `json:"outcome"`
	SlotStart  *time.Time `json:"slot_start,omitempty"`
	At         time.Time  `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}

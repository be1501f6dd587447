package dto

import "time"

// Campaigns

type CreateCampaignRequest struct {
	Title     string    `json:"title" validate:"required,max=200"`
	StartAt   time.Time `json:"start_at" validate:"required"`
	SlotCount int       `json:"slot_count" validate:"required,gte=1,lte=168"`
	Active    bool      `json:"active"`

	// Capacity policy; all zero means the configured default.
	Base    int `json:"base" validate:"gte=0"`
	Step    int `json:"step" validate:"gte=0"`
	HardMax int `json:"hard_max" validate:"gte=0"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// Signups

type ReserveRequest struct {
	Member string `json:"member" validate:"required,max=64"` // member id or phone
	Slot   *int   `json:"slot" validate:"required"`
}

type ReplaceSelectionRequest struct {
	Slots []int `json:"slots" validate:"max=168"`
}

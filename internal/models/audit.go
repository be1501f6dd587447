package models

import (
	"time"

	"github.com/google/uuid"
)

// Actor types
const (
	ActorMember = "member"
	ActorAdmin  = "admin"
	ActorSystem = "system"
)

type AuditLog struct {
	ID            uuid.UUID  `json:"id"`
	ActorMemberID *uuid.UUID `json:"actor_member_id,omitempty"`
	ActorType     string     `json:"actor_type"`
	Action        string     `json:"action"`
	EntityType    string     `json:"entity_type"` // campaign/signup
	EntityID      *uuid.UUID `json:"entity_id,omitempty"`
	Meta          any        `json:"meta,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/prayer-clock/backend/internal/models"
	"github.com/prayer-clock/backend/internal/repositories"
)

// CampaignStore is the durable record of campaigns.
type CampaignStore interface {
	Create(ctx context.Context, c *models.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	GetActive(ctx context.Context) (*models.Campaign, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.Campaign, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f repositories.CampaignFilter) ([]models.Campaign, error)
}

// SignupLedger is the durable record of reservations.
type SignupLedger interface {
	WithCampaignLock(ctx context.Context, campaignID uuid.UUID, fn func(ctx context.Context, tx repositories.CampaignTx) error) error
	CountsBySlot(ctx context.Context, campaignID uuid.UUID, slotCount int) ([]int, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.SignupWithMember, error)
	ListByMember(ctx context.Context, campaignID, memberID uuid.UUID) ([]models.Signup, error)
	ListBySlot(ctx context.Context, campaignID uuid.UUID, slot int) ([]models.Signup, error)
	Delete(ctx context.Context, campaignID, memberID uuid.UUID, slot int) (bool, error)
	DeleteForMember(ctx context.Context, campaignID, memberID uuid.UUID) ([]int, error)
}

// MemberResolver maps an external identifier (member id or phone) to a member.
type MemberResolver interface {
	Resolve(ctx context.Context, identifier string) (*models.Member, error)
}

type AuditLogger interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

// ReminderLog deduplicates slot reminders.
type ReminderLog interface {
	Record(ctx context.Context, memberID, campaignID uuid.UUID, slot int) (bool, error)
	Forget(ctx context.Context, memberID, campaignID uuid.UUID, slot int) error
}

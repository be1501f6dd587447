package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prayer-clock/backend/internal/apperr"
	"github.com/prayer-clock/backend/internal/capacity"
	"github.com/prayer-clock/backend/internal/config"
	"github.com/prayer-clock/backend/internal/models"
	"github.com/prayer-clock/backend/internal/repositories"
	"go.uber.org/zap"
)

// MaxSlotCount bounds a campaign to one week of hourly slots.
const MaxSlotCount = 7 * 24

type CampaignService struct {
	campaignRepo  CampaignStore
	defaultPolicy capacity.Policy
	effects       *sideEffects
	log           *zap.Logger
}

func NewCampaignService(
	campaignRepo CampaignStore,
	audit AuditLogger,
	cfg *config.Config,
	log *zap.Logger,
) *CampaignService {
	return &CampaignService{
		campaignRepo:  campaignRepo,
		defaultPolicy: cfg.DefaultPolicy(),
		effects:       &sideEffects{audit: audit, log: log, now: time.Now},
		log:           log,
	}
}

// Create stores a new campaign. A zero policy is replaced with the configured
// default; a campaign created active must be the only active one.
func (s *CampaignService) Create(ctx context.Context, c *models.Campaign) error {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return fmt.Errorf("%w: title is required", apperr.ErrInvalidCampaign)
	}
	if c.StartAt.IsZero() {
		return fmt.Errorf("%w: start_at is required", apperr.ErrInvalidCampaign)
	}
	if c.SlotCount < 1 || c.SlotCount > MaxSlotCount {
		return fmt.Errorf("%w: slot_count must be in [1, %d]", apperr.ErrInvalidCampaign, MaxSlotCount)
	}
	if c.Policy == (capacity.Policy{}) {
		c.Policy = s.defaultPolicy
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidCampaign, err)
	}

	if err := s.campaignRepo.Create(ctx, c); err != nil {
		return err
	}

	s.log.Info("campaign created",
		zap.String("campaign_id", c.ID.String()),
		zap.Int("slot_count", c.SlotCount),
		zap.Int("base", c.Policy.Base),
		zap.Int("step", c.Policy.Step),
		zap.Int("hard_max", c.Policy.HardMax),
	)
	s.effects.auditLog(ctx, models.AuditLog{
		ActorType:  models.ActorAdmin,
		Action:     "campaign_created",
		EntityType: "campaign",
		EntityID:   &c.ID,
		Meta:       map[string]any{"slot_count": c.SlotCount, "active": c.Active},
	})
	return nil
}

func (s *CampaignService) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return s.campaignRepo.GetByID(ctx, id)
}

// GetActive returns the single campaign accepting reservations.
func (s *CampaignService) GetActive(ctx context.Context) (*models.Campaign, error) {
	return s.campaignRepo.GetActive(ctx)
}

func (s *CampaignService) List(ctx context.Context, f repositories.CampaignFilter) ([]models.Campaign, error) {
	return s.campaignRepo.List(ctx, f)
}

// SetActive pauses or resumes a campaign.
func (s *CampaignService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.Campaign, error) {
	c, err := s.campaignRepo.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}

	action := "campaign_paused"
	if active {
		action = "campaign_activated"
	}
	s.log.Info(action, zap.String("campaign_id", id.String()))
	s.effects.auditLog(ctx, models.AuditLog{
		ActorType:  models.ActorAdmin,
		Action:     action,
		EntityType: "campaign",
		EntityID:   &id,
	})
	return c, nil
}

// Delete removes the campaign and, irrecoverably, all of its signups.
func (s *CampaignService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.campaignRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info("campaign deleted", zap.String("campaign_id", id.String()))
	s.effects.auditLog(ctx, models.AuditLog{
		ActorType:  models.ActorAdmin,
		Action:     "campaign_deleted",
		EntityType: "campaign",
		EntityID:   &id,
	})
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/prayer-clock/backend/internal/apperr"
	"github.com/prayer-clock/backend/internal/events"
	"github.com/prayer-clock/backend/internal/models"
	"go.uber.org/zap"
)

// SelectionService lets a member swap their whole set of slots in one call,
// as when editing an earlier submission.
type SelectionService struct {
	campaigns    CampaignStore
	ledger       SignupLedger
	reservations *ReservationService
	log          *zap.Logger
}

func NewSelectionService(campaigns CampaignStore, ledger SignupLedger, reservations *ReservationService, log *zap.Logger) *SelectionService {
	return &SelectionService{
		campaigns:    campaigns,
		ledger:       ledger,
		reservations: reservations,
		log:          log,
	}
}

// Selection returns the member's current signups in the campaign.
func (s *SelectionService) Selection(ctx context.Context, campaignID, memberID uuid.UUID) ([]models.Signup, error) {
	return s.ledger.ListByMember(ctx, campaignID, memberID)
}

// ReplaceSelection drops every signup the member holds in the campaign, then
// reserves each slot of newSlots. Slots that cannot be granted are reported in
// Rejected; the removed signups are not restored.
//
// Concurrent calls for the same member must be serialized by the caller.
func (s *SelectionService) ReplaceSelection(ctx context.Context, campaignID, memberID uuid.UUID, newSlots []int) (*models.SelectionResult, error) {
	c, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !c.Active {
		return nil, apperr.ErrCampaignInactive
	}

	slots := slices.Clone(newSlots)
	slices.Sort(slots)
	slots = slices.Compact(slots)

	removed, err := s.ledger.DeleteForMember(ctx, campaignID, memberID)
	if err != nil {
		return nil, fmt.Errorf("clear selection: %w", err)
	}
	slices.Sort(removed)

	result := &models.SelectionResult{
		CampaignID: campaignID,
		MemberID:   memberID,
		Removed:    removed,
		Granted:    []models.Signup{},
		Rejected:   []models.SlotRejection{},
	}

	for _, slot := range slots {
		signup, err := s.reservations.reserve(ctx, campaignID, memberID, slot)
		if err == nil || (errors.Is(err, apperr.ErrAlreadyReserved) && signup != nil) {
			result.Granted = append(result.Granted, *signup)
			continue
		}
		result.Rejected = append(result.Rejected, models.SlotRejection{
			SlotIndex: slot,
			Code:      string(apperr.CodeOf(err)),
			Reason:    err.Error(),
		})
	}

	rejected := make([]int, 0, len(result.Rejected))
	for _, r := range result.Rejected {
		rejected = append(rejected, r.SlotIndex)
	}
	outcome := events.OutcomeReplaced
	if len(rejected) > 0 {
		outcome = events.OutcomePartial
	}

	s.log.Info("selection replaced",
		zap.String("campaign_id", campaignID.String()),
		zap.String("member_id", memberID.String()),
		zap.Ints("removed", removed),
		zap.Ints("granted", result.GrantedSlots()),
		zap.Ints("rejected", rejected),
	)

	fx := s.reservations.effects
	fx.auditLog(ctx, models.AuditLog{
		ActorMemberID: &memberID,
		ActorType:     models.ActorMember,
		Action:        "selection_replaced",
		EntityType:    "campaign",
		EntityID:      &campaignID,
		Meta: map[string]any{
			"removed":  removed,
			"granted":  result.GrantedSlots(),
			"rejected": rejected,
		},
	})
	fx.publish(ctx, events.Event{
		Type:       events.EventSelectionReplaced,
		CampaignID: campaignID,
		MemberID:   memberID,
		Slots:      result.GrantedSlots(),
		Rejected:   rejected,
		Outcome:    outcome,
	})

	return result, nil
}

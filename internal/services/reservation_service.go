package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prayer-clock/backend/internal/apperr"
	"github.com/prayer-clock/backend/internal/config"
	"github.com/prayer-clock/backend/internal/events"
	"github.com/prayer-clock/backend/internal/models"
	"github.com/prayer-clock/backend/internal/repositories"
	"go.uber.org/zap"
)

// ReservationService is the only writer of signups. Each reservation reads the
// occupancy vector, computes the ceiling and inserts inside one transaction
// holding the campaign lock, so concurrent reservations on a campaign can never
// push a slot past its ceiling.
type ReservationService struct {
	ledger     SignupLedger
	maxRetries int
	retryDelay time.Duration
	effects    *sideEffects
	log        *zap.Logger
}

func NewReservationService(
	ledger SignupLedger,
	audit AuditLogger,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *ReservationService {
	return &ReservationService{
		ledger:     ledger,
		maxRetries: cfg.ReserveMaxRetries,
		retryDelay: cfg.ReserveRetryDelay,
		effects:    &sideEffects{audit: audit, publisher: publisher, log: log, now: time.Now},
		log:        log,
	}
}

// Reserve grants memberID one seat in slot of the campaign.
//
// When the member already holds the slot it returns the existing signup
// together with apperr.ErrAlreadyReserved, so callers that only need "at least
// reserved" can treat the replay as success.
func (s *ReservationService) Reserve(ctx context.Context, campaignID, memberID uuid.UUID, slot int) (*models.Signup, error) {
	signup, err := s.reserve(ctx, campaignID, memberID, slot)
	if err != nil {
		return signup, err
	}

	s.effects.auditLog(ctx, models.AuditLog{
		ActorMemberID: &memberID,
		ActorType:     models.ActorMember,
		Action:        "signup_reserved",
		EntityType:    "campaign",
		EntityID:      &campaignID,
		Meta:          map[string]any{"slot": slot, "signup_id": signup.ID.String()},
	})
	s.effects.publish(ctx, events.Event{
		Type:       events.EventSignupReserved,
		CampaignID: campaignID,
		MemberID:   memberID,
		Slots:      []int{slot},
		Outcome:    events.OutcomeReserved,
	})
	return signup, nil
}

// Cancel releases memberID's seat in slot. Cancelling a seat that is not held
// is a no-op; the returned flag reports whether a seat was released.
func (s *ReservationService) Cancel(ctx context.Context, campaignID, memberID uuid.UUID, slot int) (bool, error) {
	removed, err := s.ledger.Delete(ctx, campaignID, memberID, slot)
	if err != nil {
		return false, fmt.Errorf("cancel slot %d: %w", slot, err)
	}
	if !removed {
		return false, nil
	}

	s.log.Info("signup cancelled",
		zap.String("campaign_id", campaignID.String()),
		zap.String("member_id", memberID.String()),
		zap.Int("slot", slot),
	)
	s.effects.auditLog(ctx, models.AuditLog{
		ActorMemberID: &memberID,
		ActorType:     models.ActorMember,
		Action:        "signup_cancelled",
		EntityType:    "campaign",
		EntityID:      &campaignID,
		Meta:          map[string]any{"slot": slot},
	})
	s.effects.publish(ctx, events.Event{
		Type:       events.EventSignupCancelled,
		CampaignID: campaignID,
		MemberID:   memberID,
		Slots:      []int{slot},
		Outcome:    events.OutcomeCancelled,
	})
	return true, nil
}

// reserve commits the reservation without side effects, retrying storage
// conflicts a bounded number of times.
func (s *ReservationService) reserve(ctx context.Context, campaignID, memberID uuid.UUID, slot int) (*models.Signup, error) {
	for attempt := 0; ; attempt++ {
		signup, err := s.reserveOnce(ctx, campaignID, memberID, slot)
		if err == nil || !errors.Is(err, apperr.ErrStorageConflict) || attempt >= s.maxRetries {
			return signup, err
		}

		s.log.Debug("reservation conflict, retrying",
			zap.String("campaign_id", campaignID.String()),
			zap.Int("slot", slot),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		timer := time.NewTimer(s.retryDelay * time.Duration(attempt+1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %w", apperr.ErrStorageTimeout, ctx.Err())
		case <-timer.C:
		}
	}
}

func (s *ReservationService) reserveOnce(ctx context.Context, campaignID, memberID uuid.UUID, slot int) (*models.Signup, error) {
	var result *models.Signup

	err := s.ledger.WithCampaignLock(ctx, campaignID, func(ctx context.Context, tx repositories.CampaignTx) error {
		c := tx.Campaign()
		if !c.Active {
			return apperr.ErrCampaignInactive
		}
		if !c.ValidSlot(slot) {
			return fmt.Errorf("%w: %d not in [0, %d)", apperr.ErrInvalidSlot, slot, c.SlotCount)
		}

		existing, err := tx.FindSignup(ctx, memberID, slot)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return apperr.ErrAlreadyReserved
		}

		counts, err := tx.CountsBySlot(ctx)
		if err != nil {
			return err
		}
		ceiling := c.Policy.Ceiling(counts)
		if !c.Policy.HasRoom(counts, slot) {
			return fmt.Errorf("%w: slot %d holds %d of %d", apperr.ErrSlotFull, slot, counts[slot], ceiling)
		}

		signup := &models.Signup{MemberID: memberID, SlotIndex: slot}
		inserted, err := tx.InsertSignup(ctx, signup)
		if err != nil {
			return err
		}
		if !inserted {
			return apperr.ErrAlreadyReserved
		}

		s.log.Info("signup reserved",
			zap.String("campaign_id", campaignID.String()),
			zap.String("member_id", memberID.String()),
			zap.Int("slot", slot),
			zap.Int("count", counts[slot]+1),
			zap.Int("ceiling", ceiling),
		)
		result = signup
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyReserved) {
			return result, err
		}
		return nil, err
	}
	return result, nil
}

package services

import (
	"context"
	"errors"
	"time"

	"github.com/prayer-clock/backend/internal/apperr"
	"github.com/prayer-clock/backend/internal/events"
	"go.uber.org/zap"
)

// ReminderService announces upcoming slots to the members holding them.
// Reminders go out once per (member, campaign, slot).
type ReminderService struct {
	campaigns CampaignStore
	ledger    SignupLedger
	reminders ReminderLog
	publisher events.Publisher
	leadTime  time.Duration
	log       *zap.Logger
	now       func() time.Time
}

func NewReminderService(
	campaigns CampaignStore,
	ledger SignupLedger,
	reminders ReminderLog,
	publisher events.Publisher,
	leadTime time.Duration,
	log *zap.Logger,
) *ReminderService {
	return &ReminderService{
		campaigns: campaigns,
		ledger:    ledger,
		reminders: reminders,
		publisher: publisher,
		leadTime:  leadTime,
		log:       log,
		now:       time.Now,
	}
}

// SendDue publishes a reminder for every signup of the active campaign's slot
// running leadTime from now. It returns how many reminders were published.
func (s *ReminderService) SendDue(ctx context.Context) (int, error) {
	c, err := s.campaigns.GetActive(ctx)
	if errors.Is(err, apperr.ErrCampaignNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	slot := c.SlotAt(s.now().Add(s.leadTime))
	if slot < 0 {
		return 0, nil
	}
	start := c.SlotStart(slot)

	signups, err := s.ledger.ListBySlot(ctx, c.ID, slot)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, su := range signups {
		recorded, err := s.reminders.Record(ctx, su.MemberID, c.ID, slot)
		if err != nil {
			return sent, err
		}
		if !recorded {
			continue
		}

		err = s.publisher.Publish(ctx, events.StreamSignups, events.Event{
			Type:       events.EventSlotReminder,
			CampaignID: c.ID,
			MemberID:   su.MemberID,
			Slots:      []int{slot},
			Outcome:    events.OutcomeReminder,
			SlotStart:  &start,
			At:         s.now(),
		})
		if err != nil {
			s.log.Warn("publish reminder failed, will retry",
				zap.String("member_id", su.MemberID.String()),
				zap.Int("slot", slot),
				zap.Error(err),
			)
			if ferr := s.reminders.Forget(ctx, su.MemberID, c.ID, slot); ferr != nil {
				s.log.Error("failed to roll back reminder log", zap.Error(ferr))
			}
			continue
		}
		sent++
	}

	if sent > 0 {
		s.log.Info("slot reminders sent",
			zap.String("campaign_id", c.ID.String()),
			zap.Int("slot", slot),
			zap.Int("count", sent),
		)
	}
	return sent, nil
}

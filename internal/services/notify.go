package services

import (
	"context"
	"time"

	"github.com/prayer-clock/backend/internal/events"
	"github.com/prayer-clock/backend/internal/models"
	"go.uber.org/zap"
)

const sideEffectTimeout = 2 * time.Second

// sideEffects records audit entries and publishes events after a commit.
// Failures are logged and never reach the caller: the reservation stands.
type sideEffects struct {
	audit     AuditLogger
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func (s *sideEffects) auditLog(ctx context.Context, entry models.AuditLog) {
	if s.audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := s.audit.Log(ctx, entry); err != nil {
		s.log.Warn("audit log failed", zap.String("action", entry.Action), zap.Error(err))
	}
}

func (s *sideEffects) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if event.At.IsZero() {
		event.At = s.now()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, events.StreamSignups, event); err != nil {
		s.log.Warn("publish event failed",
			zap.String("type", event.Type),
			zap.String("campaign_id", event.CampaignID.String()),
			zap.String("member_id", event.MemberID.String()),
			zap.Error(err),
		)
	}
}

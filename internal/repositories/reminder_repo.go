package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReminderRepo struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewReminderRepo(pool *pgxpool.Pool, timeout time.Duration) *ReminderRepo {
	return &ReminderRepo{pool: pool, timeout: timeout}
}

// Record marks the member as reminded for the slot. It reports false when a
// reminder had already been recorded, so each reminder is sent at most once.
func (r *ReminderRepo) Record(ctx context.Context, memberID, campaignID uuid.UUID, slot int) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO reminder_logs (member_id, campaign_id, slot_index)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, memberID, campaignID, slot)
	if err != nil {
		return false, storageErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

// Forget removes a recorded reminder so it can be retried after a failed publish.
func (r *ReminderRepo) Forget(ctx context.Context, memberID, campaignID uuid.UUID, slot int) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
		DELETE FROM reminder_logs WHERE member_id = $1 AND campaign_id = $2 AND slot_index = $3
	`, memberID, campaignID, slot)
	return storageErr(err)
}

package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prayer-clock/backend/internal/apperr"
	"github.com/prayer-clock/backend/internal/models"
)

// CampaignTx is a ledger transaction holding the exclusive lock of one
// campaign. Every reservation on that campaign is serialized behind it, so
// counts read through it stay valid until the transaction ends.
type CampaignTx interface {
	Campaign() *models.Campaign
	CountsBySlot(ctx context.Context) ([]int, error)
	FindSignup(ctx context.Context, memberID uuid.UUID, slot int) (*models.Signup, error)
	// InsertSignup reports false when the (campaign, member, slot) row already exists.
	InsertSignup(ctx context.Context, s *models.Signup) (bool, error)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type SignupRepo struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewSignupRepo(pool *pgxpool.Pool, timeout time.Duration) *SignupRepo {
	return &SignupRepo{pool: pool, timeout: timeout}
}

// WithCampaignLock runs fn in a transaction that first locks the campaign row
// (SELECT ... FOR UPDATE). fn's writes commit only if it returns nil.
func (r *SignupRepo) WithCampaignLock(ctx context.Context, campaignID uuid.UUID, fn func(ctx context.Context, tx CampaignTx) error) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		c, err := scanCampaign(tx.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 FOR UPDATE`, campaignID))
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.ErrCampaignNotFound
		}
		if err != nil {
			return err
		}
		return fn(ctx, &pgCampaignTx{tx: tx, campaign: c})
	})
	return storageErr(err)
}

// CountsBySlot returns the committed occupancy vector of a campaign.
func (r *SignupRepo) CountsBySlot(ctx context.Context, campaignID uuid.UUID, slotCount int) ([]int, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	counts, err := countsBySlot(ctx, r.pool, campaignID, slotCount)
	return counts, storageErr(err)
}

// ListByCampaign returns every signup of a campaign ordered by slot, joined
// with member display data when the member is known.
func (r *SignupRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.SignupWithMember, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.campaign_id, s.member_id, s.slot_index, s.created_at, m.name, m.phone
		FROM signups s
		LEFT JOIN members m ON m.id = s.member_id
		WHERE s.campaign_id = $1
		ORDER BY s.slot_index, s.created_at
	`, campaignID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	signups := []models.SignupWithMember{}
	for rows.Next() {
		var s models.SignupWithMember
		if err := rows.Scan(&s.ID, &s.CampaignID, &s.MemberID, &s.SlotIndex, &s.CreatedAt,
			&s.MemberName, &s.MemberPhone); err != nil {
			return nil, storageErr(err)
		}
		signups = append(signups, s)
	}
	return signups, storageErr(rows.Err())
}

func (r *SignupRepo) ListByMember(ctx context.Context, campaignID, memberID uuid.UUID) ([]models.Signup, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT id, campaign_id, member_id, slot_index, created_at
		FROM signups WHERE campaign_id = $1 AND member_id = $2
		ORDER BY slot_index
	`, campaignID, memberID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()
	return scanSignups(rows)
}

func (r *SignupRepo) ListBySlot(ctx context.Context, campaignID uuid.UUID, slot int) ([]models.Signup, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT id, campaign_id, member_id, slot_index, created_at
		FROM signups WHERE campaign_id = $1 AND slot_index = $2
		ORDER BY created_at
	`, campaignID, slot)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()
	return scanSignups(rows)
}

// Delete removes one signup. It reports whether a row existed.
func (r *SignupRepo) Delete(ctx context.Context, campaignID, memberID uuid.UUID, slot int) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM signups WHERE campaign_id = $1 AND member_id = $2 AND slot_index = $3
	`, campaignID, memberID, slot)
	if err != nil {
		return false, storageErr(err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteForMember removes all of a member's signups in a campaign and returns
// the freed slot indexes.
func (r *SignupRepo) DeleteForMember(ctx context.Context, campaignID, memberID uuid.UUID) ([]int, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		DELETE FROM signups WHERE campaign_id = $1 AND member_id = $2
		RETURNING slot_index
	`, campaignID, memberID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	slots := []int{}
	for rows.Next() {
		var slot int
		if err := rows.Scan(&slot); err != nil {
			return nil, storageErr(err)
		}
		slots = append(slots, slot)
	}
	return slots, storageErr(rows.Err())
}

type pgCampaignTx struct {
	tx       pgx.Tx
	campaign *models.Campaign
}

func (t *pgCampaignTx) Campaign() *models.Campaign {
	return t.campaign
}

func (t *pgCampaignTx) CountsBySlot(ctx context.Context) ([]int, error) {
	return countsBySlot(ctx, t.tx, t.campaign.ID, t.campaign.SlotCount)
}

func (t *pgCampaignTx) FindSignup(ctx context.Context, memberID uuid.UUID, slot int) (*models.Signup, error) {
	var s models.Signup
	err := t.tx.QueryRow(ctx, `
		SELECT id, campaign_id, member_id, slot_index, created_at
		FROM signups WHERE campaign_id = $1 AND member_id = $2 AND slot_index = $3
	`, t.campaign.ID, memberID, slot).Scan(&s.ID, &s.CampaignID, &s.MemberID, &s.SlotIndex, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (t *pgCampaignTx) InsertSignup(ctx context.Context, s *models.Signup) (bool, error) {
	s.CampaignID = t.campaign.ID
	err := t.tx.QueryRow(ctx, `
		INSERT INTO signups (campaign_id, member_id, slot_index)
		VALUES ($1, $2, $3)
		ON CONFLICT (campaign_id, member_id, slot_index) DO NOTHING
		RETURNING id, created_at
	`, s.CampaignID, s.MemberID, s.SlotIndex).Scan(&s.ID, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func countsBySlot(ctx context.Context, q querier, campaignID uuid.UUID, slotCount int) ([]int, error) {
	rows, err := q.Query(ctx, `
		SELECT slot_index, COUNT(*) FROM signups
		WHERE campaign_id = $1
		GROUP BY slot_index
	`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]int, slotCount)
	for rows.Next() {
		var slot int
		var n int64
		if err := rows.Scan(&slot, &n); err != nil {
			return nil, err
		}
		if slot >= 0 && slot < slotCount {
			counts[slot] = int(n)
		}
	}
	return counts, rows.Err()
}

func scanSignups(rows pgx.Rows) ([]models.Signup, error) {
	signups := []models.Signup{}
	for rows.Next() {
		var s models.Signup
		if err := rows.Scan(&s.ID, &s.CampaignID, &s.MemberID, &s.SlotIndex, &s.CreatedAt); err != nil {
			return nil, storageErr(err)
		}
		signups = append(signups, s)
	}
	return signups, storageErr(rows.Err())
}

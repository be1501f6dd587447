package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prayer-clock/backend/internal/apperr"
	"github.com/prayer-clock/backend/internal/models"
)

const campaignColumns = `id, title, start_at, slot_count, active,
	capacity_base, capacity_step, capacity_hard_max, created_at, updated_at`

const constraintSingleActive = "campaigns_single_active"

type CampaignRepo struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewCampaignRepo(pool *pgxpool.Pool, timeout time.Duration) *CampaignRepo {
	return &CampaignRepo{pool: pool, timeout: timeout}
}

func (r *CampaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (title, start_at, slot_count, active, capacity_base, capacity_step, capacity_hard_max)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, c.Title, c.StartAt, c.SlotCount, c.Active,
		c.Policy.Base, c.Policy.Step, nullableInt(c.Policy.HardMax),
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err, constraintSingleActive) {
		return apperr.ErrActiveCampaignExists
	}
	return storageErr(err)
}

func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	c, err := scanCampaign(r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrCampaignNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return c, nil
}

// GetActive returns the campaign currently accepting reservations.
func (r *CampaignRepo) GetActive(ctx context.Context) (*models.Campaign, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	c, err := scanCampaign(r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE active`))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrCampaignNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return c, nil
}

// SetActive toggles the active flag. Activating fails with
// ErrActiveCampaignExists while another campaign is active.
func (r *CampaignRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.Campaign, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var updated *models.Campaign
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if active {
			var other uuid.UUID
			err := tx.QueryRow(ctx, `SELECT id FROM campaigns WHERE active AND id <> $1 FOR UPDATE`, id).Scan(&other)
			if err == nil {
				return fmt.Errorf("%w: %s", apperr.ErrActiveCampaignExists, other)
			}
			if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
		}

		c, err := scanCampaign(tx.QueryRow(ctx, `
			UPDATE campaigns SET active = $1, updated_at = now()
			WHERE id = $2
			RETURNING `+campaignColumns, active, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.ErrCampaignNotFound
		}
		if err != nil {
			return err
		}
		updated = c
		return nil
	})
	if isUniqueViolation(err, constraintSingleActive) {
		return nil, apperr.ErrActiveCampaignExists
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return updated, nil
}

// Delete removes the campaign; its signups and reminder logs go with it.
func (r *CampaignRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return storageErr(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrCampaignNotFound
	}
	return nil
}

type CampaignFilter struct {
	Active *bool
	Limit  int
	Offset int
}

func (r *CampaignRepo) List(ctx context.Context, f CampaignFilter) ([]models.Campaign, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.Active != nil {
		where = append(where, fmt.Sprintf("active = $%d", argIdx))
		args = append(args, *f.Active)
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY start_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	campaigns := []models.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, storageErr(rows.Err())
}

func scanCampaign(row pgx.Row) (*models.Campaign, error) {
	var c models.Campaign
	var hardMax *int
	err := row.Scan(&c.ID, &c.Title, &c.StartAt, &c.SlotCount, &c.Active,
		&c.Policy.Base, &c.Policy.Step, &hardMax, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if hardMax != nil {
		c.Policy.HardMax = *hardMax
	}
	return &c, nil
}

func nullableInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prayer-clock/backend/internal/apperr"
	"github.com/prayer-clock/backend/internal/models"
)

// MemberRepo reads the member directory. Members are registered elsewhere;
// this service never writes them.
type MemberRepo struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewMemberRepo(pool *pgxpool.Pool, timeout time.Duration) *MemberRepo {
	return &MemberRepo{pool: pool, timeout: timeout}
}

// Resolve looks a member up by id, or by phone number when identifier is not a uuid.
func (r *MemberRepo) Resolve(ctx context.Context, identifier string) (*models.Member, error) {
	identifier = strings.TrimSpace(identifier)
	if id, err := uuid.Parse(identifier); err == nil {
		return r.GetByID(ctx, id)
	}
	return r.GetByPhone(ctx, identifier)
}

func (r *MemberRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var m models.Member
	err := r.pool.QueryRow(ctx, `SELECT id, name, phone FROM members WHERE id = $1`, id).
		Scan(&m.ID, &m.Name, &m.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrMemberNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &m, nil
}

func (r *MemberRepo) GetByPhone(ctx context.Context, phone string) (*models.Member, error) {
	candidates := models.PhoneCandidates(phone)
	if len(candidates) == 0 {
		return nil, apperr.ErrMemberNotFound
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var m models.Member
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, phone FROM members
		WHERE regexp_replace(phone, '\D', '', 'g') = ANY($1)
		ORDER BY created_at
		LIMIT 1
	`, candidates).Scan(&m.ID, &m.Name, &m.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrMemberNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &m, nil
}

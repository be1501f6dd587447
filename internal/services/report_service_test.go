package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prayer-clock/backend/internal/apperr"
	"github.com/prayer-clock/backend/internal/capacity"
	"github.com/prayer-clock/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReport(t *testing.T) {
	start := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	c := &models.Campaign{StartAt: start, SlotCount: 4, Policy: capacity.DefaultPolicy()}

	tests := []struct {
		name     string
		counts   []int
		ceiling  int
		bonus    bool
		total    int
		progress int
		statuses []string
	}{
		{
			name:     "empty",
			counts:   []int{0, 0, 0, 0},
			ceiling:  5,
			statuses: []string{capacity.SlotOpen, capacity.SlotOpen, capacity.SlotOpen, capacity.SlotOpen},
		},
		{
			name:     "base round",
			counts:   []int{5, 5, 5, 2},
			ceiling:  5,
			total:    17,
			progress: 85,
			statuses: []string{capacity.SlotFull, capacity.SlotFull, capacity.SlotFull, capacity.SlotOpen},
		},
		{
			name:     "bonus unlocked",
			counts:   []int{6, 5, 8, 5},
			ceiling:  8,
			bonus:    true,
			total:    24,
			progress: 100,
			statuses: []string{capacity.SlotBonus, capacity.SlotBonus, capacity.SlotFull, capacity.SlotBonus},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := BuildReport(c, tt.counts)
			assert.Equal(t, tt.ceiling, r.Ceiling)
			assert.Equal(t, tt.bonus, r.BonusUnlocked)
			assert.Equal(t, tt.total, r.TotalSignups)
			assert.Equal(t, 20, r.Target)
			assert.Equal(t, tt.progress, r.ProgressPercent)
			require.Len(t, r.Slots, len(tt.counts))
			for i, s := range r.Slots {
				assert.Equalf(t, tt.statuses[i], s.Status, "slot %d", i)
				assert.Equal(t, start.Add(time.Duration(i)*time.Hour), s.StartsAt)
			}
		})
	}
}

func TestReportService(t *testing.T) {
	f := newFixture(t, 3, capacity.DefaultPolicy())
	svc := NewReportService(memCampaigns{f.store}, f.store)
	ctx := context.Background()
	f.seedCounts(1, 0, 2)

	r, err := svc.Report(ctx, f.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 2}, r.Counts)
	assert.Equal(t, 0, r.MinCount)
	assert.Equal(t, 3, r.TotalSignups)

	counts, err := svc.CountsBySlot(ctx, f.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 2}, counts)

	rows, err := svc.Signups(ctx, f.campaign.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = svc.Report(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrCampaignNotFound)
}

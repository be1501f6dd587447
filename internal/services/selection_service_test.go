package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prayer-clock/backend/internal/apperr"
	"github.com/prayer-clock/backend/internal/capacity"
	"github.com/prayer-clock/backend/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSelectionService(f *fixture) *SelectionService {
	return NewSelectionService(memCampaigns{f.store}, f.store, f.svc, zap.NewNop())
}

func TestReplaceSelection_RoundTrip(t *testing.T) {
	f := newFixture(t, 6, capacity.DefaultPolicy())
	svc := newSelectionService(f)
	member := uuid.New()
	ctx := context.Background()

	for _, slot := range []int{0, 1} {
		_, err := f.svc.Reserve(ctx, f.campaign.ID, member, slot)
		require.NoError(t, err)
	}

	result, err := svc.ReplaceSelection(ctx, f.campaign.ID, member, []int{4, 2, 4})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, result.Removed)
	assert.Equal(t, []int{2, 4}, result.GrantedSlots())
	assert.Empty(t, result.Rejected)

	held, err := svc.Selection(ctx, f.campaign.ID, member)
	require.NoError(t, err)
	slots := make([]int, 0, len(held))
	for _, s := range held {
		slots = append(slots, s.SlotIndex)
	}
	assert.Equal(t, result.GrantedSlots(), slots)
	assert.Equal(t, []int{0, 0, 1, 0, 1, 0}, f.counts(t))

	recorded := f.publisher.recorded()
	last := recorded[len(recorded)-1]
	assert.Equal(t, events.EventSelectionReplaced, last.Type)
	assert.Equal(t, events.OutcomeReplaced, last.Outcome)
}

func TestReplaceSelection_KeepsSlotAlreadyHeld(t *testing.T) {
	f := newFixture(t, 3, capacity.DefaultPolicy())
	svc := newSelectionService(f)
	member := uuid.New()
	ctx := context.Background()

	_, err := f.svc.Reserve(ctx, f.campaign.ID, member, 1)
	require.NoError(t, err)

	result, err := svc.ReplaceSelection(ctx, f.campaign.ID, member, []int{1})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, result.Removed)
	assert.Equal(t, []int{1}, result.GrantedSlots())
	assert.Equal(t, []int{0, 1, 0}, f.counts(t))
}

// A member editing into a full slot loses the old slots and gets nothing back.
func TestReplaceSelection_PartialFailureDoesNotRestore(t *testing.T) {
	f := newFixture(t, 4, capacity.DefaultPolicy())
	svc := newSelectionService(f)
	member := uuid.New()
	ctx := context.Background()

	for _, slot := range []int{0, 1} {
		_, err := f.svc.Reserve(ctx, f.campaign.ID, member, slot)
		require.NoError(t, err)
	}
	f.store.seed(f.campaign.ID, 2, 5)

	result, err := svc.ReplaceSelection(ctx, f.campaign.ID, member, []int{2})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, result.Removed)
	assert.Empty(t, result.Granted)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, 2, result.Rejected[0].SlotIndex)
	assert.Equal(t, string(apperr.CodeSlotFull), result.Rejected[0].Code)

	held, err := svc.Selection(ctx, f.campaign.ID, member)
	require.NoError(t, err)
	assert.Empty(t, held)

	recorded := f.publisher.recorded()
	last := recorded[len(recorded)-1]
	assert.Equal(t, events.OutcomePartial, last.Outcome)
	assert.Equal(t, []int{2}, last.Rejected)
}

func TestReplaceSelection_InvalidSlotsRejected(t *testing.T) {
	f := newFixture(t, 3, capacity.DefaultPolicy())
	svc := newSelectionService(f)
	member := uuid.New()

	result, err := svc.ReplaceSelection(context.Background(), f.campaign.ID, member, []int{-1, 0, 7})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, result.GrantedSlots())
	require.Len(t, result.Rejected, 2)
	for _, r := range result.Rejected {
		assert.Equal(t, string(apperr.CodeInvalidSlot), r.Code)
	}
}

func TestReplaceSelection_EmptyClearsEverything(t *testing.T) {
	f := newFixture(t, 3, capacity.DefaultPolicy())
	svc := newSelectionService(f)
	member := uuid.New()
	ctx := context.Background()

	_, err := f.svc.Reserve(ctx, f.campaign.ID, member, 2)
	require.NoError(t, err)

	result, err := svc.ReplaceSelection(ctx, f.campaign.ID, member, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, result.Removed)
	assert.Empty(t, result.Granted)
	assert.Equal(t, []int{0, 0, 0}, f.counts(t))
}

func TestReplaceSelection_InactiveCampaignTouchesNothing(t *testing.T) {
	f := newFixture(t, 3, capacity.DefaultPolicy())
	svc := newSelectionService(f)
	member := uuid.New()
	ctx := context.Background()

	_, err := f.svc.Reserve(ctx, f.campaign.ID, member, 0)
	require.NoError(t, err)
	_, err = memCampaigns{f.store}.SetActive(ctx, f.campaign.ID, false)
	require.NoError(t, err)

	_, err = svc.ReplaceSelection(ctx, f.campaign.ID, member, []int{1})
	assert.ErrorIs(t, err, apperr.ErrCampaignInactive)
	assert.Equal(t, []int{1, 0, 0}, f.counts(t))

	_, err = svc.ReplaceSelection(ctx, uuid.New(), member, []int{1})
	assert.ErrorIs(t, err, apperr.ErrCampaignNotFound)
}

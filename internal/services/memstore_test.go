package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prayer-clock/backend/internal/apperr"
	"github.com/prayer-clock/backend/internal/events"
	"github.com/prayer-clock/backend/internal/models"
	"github.com/prayer-clock/backend/internal/repositories"
)

// memStore is an in-memory SignupLedger and campaign table. WithCampaignLock
// holds a per-campaign mutex for the whole callback, like the row lock taken
// by the Postgres ledger.
type memStore struct {
	mu        sync.Mutex
	campaigns map[uuid.UUID]*models.Campaign
	signups   []models.Signup
	locks     map[uuid.UUID]*sync.Mutex

	conflicts int // WithCampaignLock fails with a storage conflict this many times
	lockCalls int
}

func newMemStore() *memStore {
	return &memStore{
		campaigns: map[uuid.UUID]*models.Campaign{},
		locks:     map[uuid.UUID]*sync.Mutex{},
	}
}

func (m *memStore) Create(_ context.Context, c *models.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.Active && m.activeLocked() != nil {
		return apperr.ErrActiveCampaignExists
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, apperr.ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) GetActive(_ context.Context) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.activeLocked()
	if c == nil {
		return nil, apperr.ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) activeLocked() *models.Campaign {
	for _, c := range m.campaigns {
		if c.Active {
			return c
		}
	}
	return nil
}

func (m *memStore) SetActive(_ context.Context, id uuid.UUID, active bool) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, apperr.ErrCampaignNotFound
	}
	if active {
		if other := m.activeLocked(); other != nil && other.ID != id {
			return nil, apperr.ErrActiveCampaignExists
		}
	}
	c.Active = active
	cp := *c
	return &cp, nil
}

// memCampaigns exposes the campaign half of a memStore as a CampaignStore.
type memCampaigns struct{ *memStore }

func (m memCampaigns) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[id]; !ok {
		return apperr.ErrCampaignNotFound
	}
	delete(m.campaigns, id)
	kept := m.signups[:0]
	for _, s := range m.signups {
		if s.CampaignID != id {
			kept = append(kept, s)
		}
	}
	m.signups = kept
	return nil
}

func (m *memStore) List(_ context.Context, f repositories.CampaignFilter) ([]models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Campaign{}
	for _, c := range m.campaigns {
		if f.Active != nil && c.Active != *f.Active {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.After(out[j].StartAt) })
	return out, nil
}

func (m *memStore) WithCampaignLock(ctx context.Context, campaignID uuid.UUID, fn func(ctx context.Context, tx repositories.CampaignTx) error) error {
	m.mu.Lock()
	m.lockCalls++
	if m.conflicts > 0 {
		m.conflicts--
		m.mu.Unlock()
		return apperr.ErrStorageConflict
	}
	c, ok := m.campaigns[campaignID]
	if !ok {
		m.mu.Unlock()
		return apperr.ErrCampaignNotFound
	}
	lock, ok := m.locks[campaignID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[campaignID] = lock
	}
	cp := *c
	m.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	tx := &memTx{store: m, campaign: &cp}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	m.mu.Lock()
	m.signups = append(m.signups, tx.pending...)
	m.mu.Unlock()
	return nil
}

func (m *memStore) CountsBySlot(_ context.Context, campaignID uuid.UUID, slotCount int) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countsLocked(campaignID, slotCount), nil
}

func (m *memStore) countsLocked(campaignID uuid.UUID, slotCount int) []int {
	counts := make([]int, slotCount)
	for _, s := range m.signups {
		if s.CampaignID == campaignID && s.SlotIndex >= 0 && s.SlotIndex < slotCount {
			counts[s.SlotIndex]++
		}
	}
	return counts
}

func (m *memStore) ListByCampaign(_ context.Context, campaignID uuid.UUID) ([]models.SignupWithMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.SignupWithMember{}
	for _, s := range m.signups {
		if s.CampaignID == campaignID {
			out = append(out, models.SignupWithMember{Signup: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SlotIndex < out[j].SlotIndex })
	return out, nil
}

func (m *memStore) ListByMember(_ context.Context, campaignID, memberID uuid.UUID) ([]models.Signup, error) {
	return m.filter(func(s models.Signup) bool {
		return s.CampaignID == campaignID && s.MemberID == memberID
	}), nil
}

func (m *memStore) ListBySlot(_ context.Context, campaignID uuid.UUID, slot int) ([]models.Signup, error) {
	return m.filter(func(s models.Signup) bool {
		return s.CampaignID == campaignID && s.SlotIndex == slot
	}), nil
}

func (m *memStore) filter(keep func(models.Signup) bool) []models.Signup {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Signup{}
	for _, s := range m.signups {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotIndex < out[j].SlotIndex })
	return out
}

func (m *memStore) Delete(_ context.Context, campaignID, memberID uuid.UUID, slot int) (bool, error) {
	removed := m.remove(func(s models.Signup) bool {
		return s.CampaignID == campaignID && s.MemberID == memberID && s.SlotIndex == slot
	})
	return len(removed) > 0, nil
}

func (m *memStore) DeleteForMember(_ context.Context, campaignID, memberID uuid.UUID) ([]int, error) {
	return m.remove(func(s models.Signup) bool {
		return s.CampaignID == campaignID && s.MemberID == memberID
	}), nil
}

func (m *memStore) remove(match func(models.Signup) bool) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := []int{}
	kept := m.signups[:0]
	for _, s := range m.signups {
		if match(s) {
			removed = append(removed, s.SlotIndex)
			continue
		}
		kept = append(kept, s)
	}
	m.signups = kept
	return removed
}

// seed adds n signups from fresh members to slot, bypassing the capacity check.
func (m *memStore) seed(campaignID uuid.UUID, slot, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for range n {
		m.signups = append(m.signups, models.Signup{
			ID:         uuid.New(),
			CampaignID: campaignID,
			MemberID:   uuid.New(),
			SlotIndex:  slot,
			CreatedAt:  time.Now(),
		})
	}
}

type memTx struct {
	store    *memStore
	campaign *models.Campaign
	pending  []models.Signup
}

func (t *memTx) Campaign() *models.Campaign {
	return t.campaign
}

func (t *memTx) CountsBySlot(_ context.Context) ([]int, error) {
	t.store.mu.Lock()
	counts := t.store.countsLocked(t.campaign.ID, t.campaign.SlotCount)
	t.store.mu.Unlock()
	for _, s := range t.pending {
		counts[s.SlotIndex]++
	}
	// Widen the window between read and insert to shake out races.
	runtime.Gosched()
	return counts, nil
}

func (t *memTx) FindSignup(_ context.Context, memberID uuid.UUID, slot int) (*models.Signup, error) {
	match := func(s models.Signup) bool {
		return s.CampaignID == t.campaign.ID && s.MemberID == memberID && s.SlotIndex == slot
	}
	for _, s := range t.pending {
		if match(s) {
			return &s, nil
		}
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, s := range t.store.signups {
		if match(s) {
			return &s, nil
		}
	}
	return nil, nil
}

func (t *memTx) InsertSignup(ctx context.Context, s *models.Signup) (bool, error) {
	existing, _ := t.FindSignup(ctx, s.MemberID, s.SlotIndex)
	if existing != nil {
		return false, nil
	}
	s.ID = uuid.New()
	s.CampaignID = t.campaign.ID
	s.CreatedAt = time.Now()
	t.pending = append(t.pending, *s)
	return true, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	fail   bool
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, e events.Event) error {
	if p.fail {
		return errors.New("redis down")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) recorded() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

type recordingAudit struct {
	mu      sync.Mutex
	actions []string
}

func (a *recordingAudit) Log(_ context.Context, entry models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, entry.Action)
	return nil
}

// memReminders is an in-memory ReminderLog.
type memReminders struct {
	mu   sync.Mutex
	sent map[string]bool
}

func (r *memReminders) key(memberID, campaignID uuid.UUID, slot int) string {
	return fmt.Sprintf("%s/%s/%d", memberID, campaignID, slot)
}

func (r *memReminders) Record(_ context.Context, memberID, campaignID uuid.UUID, slot int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent == nil {
		r.sent = map[string]bool{}
	}
	k := r.key(memberID, campaignID, slot)
	if r.sent[k] {
		return false, nil
	}
	r.sent[k] = true
	return true, nil
}

func (r *memReminders) Forget(_ context.Context, memberID, campaignID uuid.UUID, slot int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sent, r.key(memberID, campaignID, slot))
	return nil
}

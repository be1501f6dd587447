package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prayer-clock/backend/internal/capacity"
	"github.com/prayer-clock/backend/internal/models"
)

type SlotView struct {
	Index    int       `json:"index"`
	StartsAt time.Time `json:"starts_at"`
	Count    int       `json:"count"`
	Status   string    `json:"status"`
}

// CampaignReport is the read-only occupancy view used by dashboards.
type CampaignReport struct {
	Campaign        *models.Campaign `json:"campaign"`
	Counts          []int            `json:"counts"`
	MinCount        int              `json:"min_count"`
	Ceiling         int              `json:"ceiling"`
	BonusUnlocked   bool             `json:"bonus_unlocked"`
	TotalSignups    int              `json:"total_signups"`
	Target          int              `json:"target"`
	ProgressPercent int              `json:"progress_percent"`
	Slots           []SlotView       `json:"slots"`
}

// BuildReport derives the report of c from its occupancy vector.
func BuildReport(c *models.Campaign, counts []int) *CampaignReport {
	minCount := capacity.MinCount(counts)
	ceiling := c.Policy.CeilingForMin(minCount)

	r := &CampaignReport{
		Campaign:      c,
		Counts:        counts,
		MinCount:      minCount,
		Ceiling:       ceiling,
		BonusUnlocked: len(counts) > 0 && minCount >= c.Policy.Base,
		Target:        c.SlotCount * c.Policy.Base,
		Slots:         make([]SlotView, len(counts)),
	}
	for i, n := range counts {
		r.TotalSignups += n
		r.Slots[i] = SlotView{
			Index:    i,
			StartsAt: c.SlotStart(i),
			Count:    n,
			Status:   c.Policy.Status(n, ceiling),
		}
	}
	if r.Target > 0 {
		r.ProgressPercent = min(100, (r.TotalSignups*100+r.Target/2)/r.Target)
	}
	return r
}

type ReportService struct {
	campaigns CampaignStore
	ledger    SignupLedger
}

func NewReportService(campaigns CampaignStore, ledger SignupLedger) *ReportService {
	return &ReportService{campaigns: campaigns, ledger: ledger}
}

// Report returns the committed occupancy of a campaign and its current ceiling.
func (s *ReportService) Report(ctx context.Context, campaignID uuid.UUID) (*CampaignReport, error) {
	c, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	counts, err := s.ledger.CountsBySlot(ctx, c.ID, c.SlotCount)
	if err != nil {
		return nil, err
	}
	return BuildReport(c, counts), nil
}

// CountsBySlot returns the committed occupancy vector of a campaign.
func (s *ReportService) CountsBySlot(ctx context.Context, campaignID uuid.UUID) ([]int, error) {
	c, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return s.ledger.CountsBySlot(ctx, c.ID, c.SlotCount)
}

// Signups lists a campaign's committed signups ordered by slot.
func (s *ReportService) Signups(ctx context.Context, campaignID uuid.UUID) ([]models.SignupWithMember, error) {
	if _, err := s.campaigns.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.ledger.ListByCampaign(ctx, campaignID)
}

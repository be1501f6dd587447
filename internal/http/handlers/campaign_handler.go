package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prayer-clock/backend/internal/capacity"
	"github.com/prayer-clock/backend/internal/http/dto"
	"github.com/prayer-clock/backend/internal/models"
	"github.com/prayer-clock/backend/internal/repositories"
	"github.com/prayer-clock/backend/internal/services"
	"github.com/prayer-clock/backend/internal/validation"
	"go.uber.org/zap"
)

type CampaignHandler struct {
	campaignService *services.CampaignService
	reportService   *services.ReportService
	validator       *validation.Validator
	log             *zap.Logger
}

func NewCampaignHandler(
	campaignService *services.CampaignService,
	reportService *services.ReportService,
	validator *validation.Validator,
	log *zap.Logger,
) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
		reportService:   reportService,
		validator:       validator,
		log:             log,
	}
}

func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := h.validator.Validate(req); err != nil {
		return respondError(c, h.log, err)
	}

	campaign := &models.Campaign{
		Title:     req.Title,
		StartAt:   req.StartAt,
		SlotCount: req.SlotCount,
		Active:    req.Active,
		Policy:    capacity.Policy{Base: req.Base, Step: req.Step, HardMax: req.HardMax},
	}
	if err := h.campaignService.Create(c.Context(), campaign); err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}

	campaign, err := h.campaignService.GetByID(c.Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

func (h *CampaignHandler) GetActiveCampaign(c *fiber.Ctx) error {
	campaign, err := h.campaignService.GetActive(c.Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

func (h *CampaignHandler) ListCampaigns(c *fiber.Ctx) error {
	filter := repositories.CampaignFilter{
		Limit:  20,
		Offset: 0,
	}

	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}
	if v := c.Query("active"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.Active = &b
		}
	}

	campaigns, err := h.campaignService.List(c.Context(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaigns})
}

// SetActive pauses or resumes a campaign.
func (h *CampaignHandler) SetActive(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}

	var req dto.SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := h.validator.Validate(req); err != nil {
		return respondError(c, h.log, err)
	}

	campaign, err := h.campaignService.SetActive(c.Context(), id, *req.Active)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

func (h *CampaignHandler) DeleteCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}

	if err := h.campaignService.Delete(c.Context(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *CampaignHandler) GetReport(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}

	report, err := h.reportService.Report(c.Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: report})
}

func (h *CampaignHandler) ListSignups(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}

	signups, err := h.reportService.Signups(c.Context(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: signups})
}

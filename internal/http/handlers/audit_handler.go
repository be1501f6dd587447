package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prayer-clock/backend/internal/http/dto"
	"github.com/prayer-clock/backend/internal/models"
	"go.uber.org/zap"
)

type AuditReader interface {
	GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]models.AuditLog, error)
}

type AuditHandler struct {
	audit AuditReader
	log   *zap.Logger
}

func NewAuditHandler(audit AuditReader, log *zap.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, log: log}
}

// CampaignAudit lists the newest audit entries of a campaign.
func (h *AuditHandler) CampaignAudit(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	offset = max(offset, 0)

	logs, err := h.audit.GetByEntity(c.Context(), "campaign", id, limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: logs})
}

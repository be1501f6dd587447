package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prayer-clock/backend/internal/apperr"
	"github.com/prayer-clock/backend/internal/http/dto"
	"github.com/prayer-clock/backend/internal/services"
	"github.com/prayer-clock/backend/internal/validation"
	"go.uber.org/zap"
)

// MemberLocker serializes one member's writes to one campaign.
type MemberLocker interface {
	Lock(ctx context.Context, campaignID, memberID uuid.UUID) (func(), error)
}

type SignupHandler struct {
	reservationService *services.ReservationService
	selectionService   *services.SelectionService
	members            services.MemberResolver
	locker             MemberLocker
	validator          *validation.Validator
	log                *zap.Logger
}

func NewSignupHandler(
	reservationService *services.ReservationService,
	selectionService *services.SelectionService,
	members services.MemberResolver,
	locker MemberLocker,
	validator *validation.Validator,
	log *zap.Logger,
) *SignupHandler {
	return &SignupHandler{
		reservationService: reservationService,
		selectionService:   selectionService,
		members:            members,
		locker:             locker,
		validator:          validator,
		log:                log,
	}
}

func (h *SignupHandler) Reserve(c *fiber.Ctx) error {
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}

	var req dto.ReserveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := h.validator.Validate(req); err != nil {
		return respondError(c, h.log, err)
	}

	member, err := h.members.Resolve(c.Context(), req.Member)
	if err != nil {
		return respondError(c, h.log, err)
	}

	unlock, err := h.locker.Lock(c.Context(), campaignID, member.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer unlock()

	signup, err := h.reservationService.Reserve(c.Context(), campaignID, member.ID, *req.Slot)
	if errors.Is(err, apperr.ErrAlreadyReserved) && signup != nil {
		return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ReserveResponse{Signup: signup, AlreadyReserved: true}})
	}
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: dto.ReserveResponse{Signup: signup}})
}

func (h *SignupHandler) Cancel(c *fiber.Ctx) error {
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}
	slot, err := strconv.Atoi(c.Params("slot"))
	if err != nil {
		return badRequest(c, "invalid slot")
	}
	identifier := c.Query("member")
	if identifier == "" {
		return badRequest(c, "member is required")
	}

	member, err := h.members.Resolve(c.Context(), identifier)
	if err != nil {
		return respondError(c, h.log, err)
	}

	unlock, err := h.locker.Lock(c.Context(), campaignID, member.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer unlock()

	removed, err := h.reservationService.Cancel(c.Context(), campaignID, member.ID, slot)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.CancelResponse{Removed: removed}})
}

func (h *SignupHandler) GetSelection(c *fiber.Ctx) error {
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}

	member, err := h.members.Resolve(c.Context(), c.Params("member"))
	if err != nil {
		return respondError(c, h.log, err)
	}

	signups, err := h.selectionService.Selection(c.Context(), campaignID, member.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: signups})
}

// ReplaceSelection swaps the member's slots. The response lists granted and
// rejected slots; a partial result is still 200.
func (h *SignupHandler) ReplaceSelection(c *fiber.Ctx) error {
	campaignID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid campaign id")
	}

	var req dto.ReplaceSelectionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := h.validator.Validate(req); err != nil {
		return respondError(c, h.log, err)
	}

	member, err := h.members.Resolve(c.Context(), c.Params("member"))
	if err != nil {
		return respondError(c, h.log, err)
	}

	unlock, err := h.locker.Lock(c.Context(), campaignID, member.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer unlock()

	result, err := h.selectionService.ReplaceSelection(c.Context(), campaignID, member.ID, req.Slots)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: result})
}

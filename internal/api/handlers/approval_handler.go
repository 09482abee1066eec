package handlers

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/jsandell/postline/internal/service"
	"github.com/jsandell/postline/internal/transfer"
)

type ApprovalHandler struct {
	s service.ApprovalService
	u service.UserService
}

func NewApprovalHandler(s service.ApprovalService, u service.UserService) *ApprovalHandler {
	return &ApprovalHandler{s: s, u: u}
}

func (h *ApprovalHandler) ApproveRecords(c *fiber.Ctx) error {
	var req transfer.ApprovalRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	approver := fmt.Sprintf("user:%d", GetUserID(c))
	if user, err := h.u.GetUserInfo(c.Context(), GetUserID(c)); err == nil && user != nil {
		approver = user.Email
	}

	result, err := h.s.ApproveAndSchedule(c.Context(), req.IDs, approver, req.AutoSchedule)
	if err != nil {
		return errorReply(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *ApprovalHandler) ScheduleRecord(c *fiber.Ctx) error {
	var req transfer.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	item, err := h.s.ScheduleAt(c.Context(), req.ID, req.ScheduledFor, req.Timezone)
	if err != nil {
		return errorReply(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(item)
}

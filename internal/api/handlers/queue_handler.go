package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jsandell/postline/internal/service"
	"github.com/jsandell/postline/internal/transfer"
)

type QueueHandler struct {
	s service.QueueService
}

func NewQueueHandler(s service.QueueService) *QueueHandler {
	return &QueueHandler{s: s}
}

func (h *QueueHandler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.s.Accounts(c.Context())
	if err != nil {
		return errorReply(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *QueueHandler) GetSchedule(c *fiber.Ctx) error {
	schedule, err := h.s.Schedule(c.Context())
	if err != nil {
		return errorReply(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(schedule)
}

func (h *QueueHandler) SetSchedule(c *fiber.Ctx) error {
	var req transfer.QueueScheduleUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.ReplaceSchedule(c.Context(), req.Timezone, req.Slots, req.Active); err != nil {
		return errorReply(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *QueueHandler) PreviewSlots(c *fiber.Ctx) error {
	n := c.QueryInt("count", 5)

	slots, err := h.s.Preview(c.Context(), n)
	if err != nil {
		return errorReply(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"slots": slots,
	})
}

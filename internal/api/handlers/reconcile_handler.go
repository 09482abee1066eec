package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/jsandell/postline/internal/queue"
	"github.com/jsandell/postline/internal/service"
)

type ReconcileHandler struct {
	s           service.ReconcileService
	AsynqClient *asynq.Client
}

func NewReconcileHandler(s service.ReconcileService, asynqClient *asynq.Client) *ReconcileHandler {
	return &ReconcileHandler{s: s, AsynqClient: asynqClient}
}

// Reconcile runs a pass synchronously and returns the report.
func (h *ReconcileHandler) Reconcile(c *fiber.Ctx) error {
	report, err := h.s.Reconcile(c.Context())
	if err != nil {
		return errorReply(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(report)
}

// ReconcileAsync enqueues a pass instead of waiting for it.
func (h *ReconcileHandler) ReconcileAsync(c *fiber.Ctx) error {
	err := queue.EnqueueReconcile(h.AsynqClient, queue.ReconcilePayload{TriggeredBy: "operator"})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error enqueueing reconciliation",
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Reconciliation enqueued",
	})
}

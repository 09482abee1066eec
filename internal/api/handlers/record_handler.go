package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/jsandell/postline/internal/models"
	"github.com/jsandell/postline/internal/service"
	"github.com/jsandell/postline/internal/transfer"
)

type RecordHandler struct {
	s  service.RecordService
	lc service.LifecycleService
}

func NewRecordHandler(s service.RecordService, lc service.LifecycleService) *RecordHandler {
	return &RecordHandler{s: s, lc: lc}
}

func (h *RecordHandler) CreateRecord(c *fiber.Ctx) error {
	var rc transfer.RecordCreation
	if err := c.BodyParser(&rc); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	id, err := h.s.Create(c.Context(), &rc)
	if err != nil {
		return errorReply(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id": id,
	})
}

func (h *RecordHandler) ListRecords(c *fiber.Ctx) error {
	recordID := c.QueryInt("id", 0)
	if recordID != 0 {
		rec, err := h.s.Info(c.Context(), int64(recordID))
		if err != nil {
			return errorReply(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(rec)
	}

	filter := models.RecordFilter{
		ApprovalStatus: c.Query("approval_status"),
		Source:         c.Query("source"),
	}
	if c.Query("is_draft") != "" {
		isDraft := c.QueryBool("is_draft")
		filter.IsDraft = &isDraft
	}

	recs, err := h.s.List(c.Context(), &filter)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list records",
		})
	}

	return c.Status(fiber.StatusOK).JSON(recs)
}

func (h *RecordHandler) GetRecordInfo(c *fiber.Ctx) error {
	recordID := c.QueryInt("id", 0)

	rec, err := h.s.Info(c.Context(), int64(recordID))
	if err != nil {
		return errorReply(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(rec)
}

func (h *RecordHandler) UpdateRecord(c *fiber.Ctx) error {
	recordID := c.QueryInt("id", 0)

	var ru transfer.RecordUpdate
	if err := c.BodyParser(&ru); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	patch := models.ContentPatch{
		Caption:        ru.Caption,
		Hashtags:       ru.Hashtags,
		ImageURL:       ru.ImageURL,
		ExtraImageURLs: ru.ExtraImageURLs,
		SourceMetadata: ru.SourceMetadata,
	}
	if err := h.s.UpdateContent(c.Context(), int64(recordID), &patch); err != nil {
		return errorReply(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *RecordHandler) RemoveRecord(c *fiber.Ctx) error {
	recordID := c.QueryInt("id", 0)

	if err := h.s.Remove(c.Context(), int64(recordID)); err != nil {
		return errorReply(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *RecordHandler) SubmitDraft(c *fiber.Ctx) error {
	recordID := c.QueryInt("id", 0)

	if err := h.lc.SubmitDraft(c.Context(), int64(recordID)); err != nil {
		return errorReply(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *RecordHandler) RejectRecord(c *fiber.Ctx) error {
	var rr transfer.RejectionRequest
	if err := c.BodyParser(&rr); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.lc.Reject(c.Context(), rr.ID, rr.Reason); err != nil {
		return errorReply(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *RecordHandler) RestoreDraft(c *fiber.Ctx) error {
	recordID := c.QueryInt("id", 0)

	if err := h.lc.RestoreDraft(c.Context(), int64(recordID)); err != nil {
		return errorReply(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *RecordHandler) Unapprove(c *fiber.Ctx) error {
	recordID := c.QueryInt("id", 0)

	if err := h.lc.SendToPending(c.Context(), int64(recordID)); err != nil {
		return errorReply(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *RecordHandler) Unschedule(c *fiber.Ctx) error {
	recordID := c.QueryInt("id", 0)

	if err := h.lc.Unschedule(c.Context(), int64(recordID)); err != nil {
		return errorReply(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

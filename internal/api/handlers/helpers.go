package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jsandell/postline/internal/service"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := strconv.Atoi(c.Locals("user_id").(string))
	return int64(userID)
}

// statusForError maps the service error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	var (
		validation *service.ValidationError
		immutable  *service.ImmutableRecordError
		noop       *service.NoOpError
		notFound   *service.NotFoundError
		remote     *service.RemoteUnavailableError
		concurrent *service.ConcurrentRunError
	)
	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest
	case errors.As(err, &noop):
		return fiber.StatusBadRequest
	case errors.As(err, &immutable):
		return fiber.StatusConflict
	case errors.As(err, &notFound):
		return fiber.StatusNotFound
	case errors.As(err, &remote):
		return fiber.StatusBadGateway
	case errors.As(err, &concurrent):
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

func errorReply(c *fiber.Ctx, err error) error {
	return c.Status(statusForError(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

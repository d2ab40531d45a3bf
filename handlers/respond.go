package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"mpa-platform/apperror"
	"mpa-platform/services"
	"mpa-platform/utils"

	"github.com/gofiber/fiber/v2"
)

// statusOf maps an error kind onto an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, apperror.ErrInsufficientPoints):
		return fiber.StatusPaymentRequired
	case errors.Is(err, apperror.ErrLimitExceeded):
		return fiber.StatusTooManyRequests
	case errors.Is(err, apperror.ErrRemote):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// fail writes err as {"error": message[, "field": field]}. Unknown errors are
// logged and hidden behind a generic message.
func fail(c *fiber.Ctx, log *slog.Logger, err error) error {
	status := statusOf(err)
	if status == fiber.StatusInternalServerError {
		log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(status).JSON(fiber.Map{"error": "Something went wrong. Please try again."})
	}

	body := fiber.Map{"error": apperror.Message(err, err.Error())}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "" {
		body["field"] = appErr.Field
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func pageFromQuery(c *fiber.Ctx) services.Page {
	return services.Page{Number: c.QueryInt("page", 1), Size: c.QueryInt("size", 0)}
}

// optionalUpload reads a multipart file if the field is present.
func optionalUpload(c *fiber.Ctx, field string, maxBytes int64) (*utils.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// not a multipart request
		return nil, nil
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	up, err := utils.ReadUpload(files[0], maxBytes)
	if err != nil {
		return nil, apperror.ValidationFailed(field, "File must be at most "+strconv.FormatInt(maxBytes>>20, 10)+" MB.")
	}
	return up, nil
}

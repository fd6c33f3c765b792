// Package apperr holds the error kinds shared by every domain package and
// their mapping onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/premiumrays/digital-goods-backend/internal/logger"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("service unavailable")
)

// Validation wraps a human readable message as a validation error.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Conflict wraps a human readable message as a conflict error.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// NotFound reports a missing entity of the given kind.
func NotFound(entity, id string) error {
	return fmt.Errorf("%s %q %w", entity, id, ErrNotFound)
}

// Unavailable wraps a human readable message as an unavailable error.
func Unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}

// Status maps an error onto an HTTP status code.
func Status(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// Respond writes err as {"message": ...}. Infrastructure errors are logged
// and still surfaced verbatim to the caller.
func Respond(c *fiber.Ctx, err error) error {
	status := Status(err)
	if status >= fiber.StatusInternalServerError {
		logger.FromFiber(c).Error("request failed", zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"message": err.Error()})
}

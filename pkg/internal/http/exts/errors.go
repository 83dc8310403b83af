package exts

import (
	"errors"

	"git.solsynth.dev/hypernet/ponder/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

// ToFiberError turns an engine error into a response status.
func ToFiberError(err error) error {
	var status int
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidOption),
		errors.Is(err, services.ErrInsufficientStake):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrPollNotActive),
		errors.Is(err, services.ErrPollExpired),
		errors.Is(err, services.ErrPollStillActive),
		errors.Is(err, services.ErrAlreadyPredicted),
		errors.Is(err, services.ErrAlreadyClosed),
		errors.Is(err, services.ErrAlreadyDistributed),
		errors.Is(err, services.ErrNotPaused):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrTransferFailed):
		status = fiber.StatusPaymentRequired
	case errors.Is(err, services.ErrPaused):
		status = fiber.StatusServiceUnavailable
	default:
		status = fiber.StatusInternalServerError
	}
	return fiber.NewError(status, err.Error())
}

package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Sentinel errors for the request-visible failure classes. Services return
// these (optionally wrapped) and handlers let the server's error handler
// translate them into statuses.
var (
	ErrUnauthenticated = errors.New("session code required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
)

// ErrorHandler renders every failure as a JSON body with a message,
// using the taxonomy's status mapping unless the error carries its own
// fiber code. Installed as the app-wide fiber error handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := Status(err)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	return c.Status(code).JSON(fiber.Map{"message": err.Error()})
}

// Status maps an error to its HTTP status. Unrecognized errors are 500.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

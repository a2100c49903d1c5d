package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/pkg/validator"
)

// errorStatus traduce un error de dominio a estado HTTP y código.
// Divergencias de lotes son errores de sistema (500), no del cliente.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrPriceNotFound):
		return fiber.StatusNotFound, "PRICE_NOT_FOUND"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrTransient):
		return fiber.StatusServiceUnavailable, "RETRY"
	case errors.Is(err, domain.ErrBatchUnderflow):
		return fiber.StatusInternalServerError, "BATCH_UNDERFLOW"
	case errors.Is(err, domain.ErrAllocationMismatch):
		return fiber.StatusInternalServerError, "ALLOCATION_MISMATCH"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// writeError responde con dto.ErrorResponse. Los 500 no exponen el detalle interno.
func writeError(c *fiber.Ctx, err error) error {
	status, code := errorStatus(err)
	msg := err.Error()
	if status >= fiber.StatusInternalServerError && code == "INTERNAL" {
		msg = "error interno"
	}
	if status == fiber.StatusServiceUnavailable {
		c.Set(fiber.HeaderRetryAfter, "1")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// validationFailed aplica las etiquetas `validate` del DTO. Si falla, ya respondió 400.
func validationFailed(c *fiber.Ctx, in any) (bool, error) {
	errs := validator.ValidateStruct(in)
	if len(errs) == 0 {
		return false, nil
	}
	return true, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validator.Message(errs)})
}

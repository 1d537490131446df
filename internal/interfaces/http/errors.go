package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-kardex/internal/application/dto"
	"github.com/jhoicas/inventario-kardex/internal/domain"
)

// respondError traduce la taxonomía de errores de dominio a status y cuerpo HTTP.
func respondError(c *fiber.Ctx, err error) error {
	code := domain.Code(err)
	body := dto.ErrorResponse{Code: code, Message: err.Error()}

	var (
		batchErr *domain.BatchValidationError
		stockErr *domain.InsufficientStockError
	)
	switch {
	case errors.As(err, &batchErr):
		body.Details = batchErr.Failures
	case errors.As(err, &stockErr):
		body.Details = fiber.Map{
			"product_id":   stockErr.ProductID,
			"warehouse_id": stockErr.WarehouseID,
			"available":    stockErr.Available,
			"requested":    stockErr.Requested,
		}
	}

	status := fiber.StatusInternalServerError
	switch code {
	case "VALIDATION", "BATCH_VALIDATION":
		status = fiber.StatusBadRequest
	case "NOT_FOUND":
		status = fiber.StatusNotFound
		body.Message = "recurso no encontrado"
	case "INSUFFICIENT_STOCK", "ORDER_ALREADY_PROCESSED", "ORDER_NOT_OPEN", "CONFLICT", "DUPLICATE":
		status = fiber.StatusConflict
	case "UNAUTHORIZED":
		status = fiber.StatusUnauthorized
	case "FORBIDDEN":
		status = fiber.StatusForbidden
	default:
		body.Message = "error interno"
	}
	return c.Status(status).JSON(body)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

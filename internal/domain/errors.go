package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrOrderNotOpen      = errors.New("la orden no está abierta")
)

// Códigos de falla por línea usados en BatchValidationError.
const (
	FailureInvalidQuantity   = "INVALID_QUANTITY"
	FailureDuplicateLine     = "DUPLICATE_LINE"
	FailureUnknownProduct    = "UNKNOWN_PRODUCT"
	FailureUnknownWarehouse  = "UNKNOWN_WAREHOUSE"
	FailureInsufficientStock = "INSUFFICIENT_STOCK"
	FailureInvalidLine       = "INVALID_LINE"
)

// ValidationError entrada mal formada detectada antes de cualquier mutación.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError construye un ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validación: " + e.Reason
	}
	return fmt.Sprintf("validación: %s: %s", e.Field, e.Reason)
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// InsufficientStockError una salida pediría más de lo disponible.
type InsufficientStockError struct {
	ProductID   string
	WarehouseID string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s en bodega %s: disponible=%s, solicitado=%s",
		e.ProductID, e.WarehouseID, e.Available.String(), e.Requested.String())
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// ConcurrentModificationError el CAS sobre el estado de la orden no afectó filas:
// otra petición ya procesó la orden.
type ConcurrentModificationError struct {
	OrderID string
	Status  string
}

func (e *ConcurrentModificationError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("orden %s ya procesada", e.OrderID)
	}
	return fmt.Sprintf("orden %s ya procesada (estado actual %s)", e.OrderID, e.Status)
}

// Is permite errors.Is(err, ErrConflict).
func (e *ConcurrentModificationError) Is(target error) bool { return target == ErrConflict }

// LineFailure falla de una línea concreta de un lote.
type LineFailure struct {
	Line        int              `json:"line"`
	ProductID   string           `json:"product_id,omitempty"`
	WarehouseID string           `json:"warehouse_id,omitempty"`
	Code        string           `json:"code"`
	Message     string           `json:"message"`
	Available   *decimal.Decimal `json:"available,omitempty"`
	Requested   *decimal.Decimal `json:"requested,omitempty"`
}

// BatchValidationError una o más líneas del lote no pasaron la validación; el lote entero se rechaza.
type BatchValidationError struct {
	Failures []LineFailure
}

func (e *BatchValidationError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("línea %d: %s", f.Line, f.Code))
	}
	return "lote rechazado: " + strings.Join(parts, "; ")
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *BatchValidationError) Is(target error) bool { return target == ErrInvalidInput }

// Code devuelve el código estable del error para respuestas HTTP, métricas y logs.
func Code(err error) string {
	var (
		batchErr *BatchValidationError
		stockErr *InsufficientStockError
		casErr   *ConcurrentModificationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &batchErr):
		return "BATCH_VALIDATION"
	case errors.As(err, &stockErr), errors.Is(err, ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.As(err, &casErr):
		return "ORDER_ALREADY_PROCESSED"
	case errors.Is(err, ErrOrderNotOpen):
		return "ORDER_NOT_OPEN"
	case errors.Is(err, ErrInvalidInput):
		return "VALIDATION"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrDuplicate):
		return "DUPLICATE"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	}
	return "INTERNAL"
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	Kind        string `json:"kind"`
	WarehouseID string `json:"warehouse_id"`
	Currency    string `json:"currency"`
	Notes       string `json:"notes,omitempty"`
}

// AddOrderLineRequest body para POST /api/orders/:id/lines.
type AddOrderLineRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
}

// OrderLineResponse salida de una línea.
type OrderLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderResponse salida de una orden con sus líneas.
type OrderResponse struct {
	ID          string              `json:"id"`
	Kind        string              `json:"kind"`
	Status      string              `json:"status"`
	WarehouseID string              `json:"warehouse_id"`
	Currency    string              `json:"currency"`
	Subtotal    decimal.Decimal     `json:"subtotal"`
	TaxTotal    decimal.Decimal     `json:"tax_total"`
	Total       decimal.Decimal     `json:"total"`
	Notes       string              `json:"notes,omitempty"`
	CreatedBy   string              `json:"created_by,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	FulfilledAt *time.Time          `json:"fulfilled_at,omitempty"`
	Lines       []OrderLineResponse `json:"lines"`
}

// OrderListResponse lista paginada de órdenes.
type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// FulfillOrderResponse orden cumplida y movimientos emitidos.
type FulfillOrderResponse struct {
	Order     OrderResponse      `json:"order"`
	Movements []MovementResponse `json:"movements"`
}

// ToOrderResponse mapea la entidad al DTO.
func ToOrderResponse(o *entity.Order) OrderResponse {
	lines := make([]OrderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, OrderLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			TaxRate:   l.TaxRate,
			TaxAmount: l.TaxAmount,
			LineTotal: l.LineTotal,
		})
	}
	return OrderResponse{
		ID:          o.ID,
		Kind:        string(o.Kind),
		Status:      string(o.Status),
		WarehouseID: o.WarehouseID,
		Currency:    o.Currency,
		Subtotal:    o.Subtotal,
		TaxTotal:    o.TaxTotal,
		Total:       o.Total,
		Notes:       o.Notes,
		CreatedBy:   o.CreatedBy,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		FulfilledAt: o.FulfilledAt,
		Lines:       lines,
	}
}

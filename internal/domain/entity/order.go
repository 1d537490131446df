package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderKind tipo de orden: compra o venta (misma forma).
type OrderKind string

const (
	OrderKindPurchase OrderKind = "PURCHASE"
	OrderKindSales    OrderKind = "SALES"
)

// Valid indica si el tipo de orden es conocido.
func (k OrderKind) Valid() bool {
	return k == OrderKindPurchase || k == OrderKindSales
}

// OrderStatus estado de la orden (enum etiquetado; las transiciones válidas viven en domain/order).
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusReceived  OrderStatus = "RECEIVED"  // compra recibida
	OrderStatusCompleted OrderStatus = "COMPLETED" // venta entregada
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Order cabecera de orden de compra o venta. Subtotal, TaxTotal y Total se recalculan
// siempre desde todas las líneas actuales.
type Order struct {
	ID          string
	Kind        OrderKind
	Status      OrderStatus
	WarehouseID string
	Currency    string
	Subtotal    decimal.Decimal
	TaxTotal    decimal.Decimal
	Total       decimal.Decimal
	Notes       string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	FulfilledAt *time.Time
	Lines       []*OrderLine `db:"-"`
}

// OrderLine línea de una orden. LineTotal = Quantity × UnitPrice + TaxAmount.
type OrderLine struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal // precio de venta o costo de compra
	TaxRate   decimal.Decimal // 0, 0.05, 0.19 ...
	TaxAmount decimal.Decimal
	LineTotal decimal.Decimal
	CreatedAt time.Time
}

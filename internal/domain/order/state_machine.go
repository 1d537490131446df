// Package order contiene la máquina de estados de órdenes de compra/venta y el recálculo de totales.
package order

import (
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

type transition struct {
	kind entity.OrderKind
	from entity.OrderStatus
	to   entity.OrderStatus
}

// allowed tabla central de transiciones; cualquier par ausente está prohibido.
var allowed = map[transition]struct{}{
	{entity.OrderKindPurchase, entity.OrderStatusOpen, entity.OrderStatusReceived}:  {},
	{entity.OrderKindPurchase, entity.OrderStatusOpen, entity.OrderStatusCancelled}: {},
	{entity.OrderKindSales, entity.OrderStatusOpen, entity.OrderStatusCompleted}:    {},
	{entity.OrderKindSales, entity.OrderStatusOpen, entity.OrderStatusCancelled}:    {},
}

// CanTransition indica si la orden del tipo dado puede pasar de from a to.
func CanTransition(kind entity.OrderKind, from, to entity.OrderStatus) bool {
	_, ok := allowed[transition{kind: kind, from: from, to: to}]
	return ok
}

// IsTerminal indica si el estado no admite más transiciones.
func IsTerminal(s entity.OrderStatus) bool {
	return s == entity.OrderStatusReceived || s == entity.OrderStatusCompleted || s == entity.OrderStatusCancelled
}

// FulfilledStatus estado terminal que alcanza una orden al cumplirse (recibir compra, entregar venta).
func FulfilledStatus(kind entity.OrderKind) entity.OrderStatus {
	if kind == entity.OrderKindPurchase {
		return entity.OrderStatusReceived
	}
	return entity.OrderStatusCompleted
}

// FulfillmentMovement tipo de movimiento y motivo que emite cada línea al cumplir la orden.
func FulfillmentMovement(kind entity.OrderKind) (entity.MovementType, string, string) {
	if kind == entity.OrderKindPurchase {
		return entity.MovementTypeIN, entity.ReasonPurchaseReceipt, entity.ReferencePurchaseOrder
	}
	return entity.MovementTypeOUT, entity.ReasonSalesDelivery, entity.ReferenceSalesOrder
}

// ReservesStock indica si las líneas abiertas del tipo de orden reservan stock.
func ReservesStock(kind entity.OrderKind) bool {
	return kind == entity.OrderKindSales
}

package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		kind entity.OrderKind
		from entity.OrderStatus
		to   entity.OrderStatus
		want bool
	}{
		{entity.OrderKindPurchase, entity.OrderStatusOpen, entity.OrderStatusReceived, true},
		{entity.OrderKindPurchase, entity.OrderStatusOpen, entity.OrderStatusCancelled, true},
		{entity.OrderKindPurchase, entity.OrderStatusOpen, entity.OrderStatusCompleted, false},
		{entity.OrderKindSales, entity.OrderStatusOpen, entity.OrderStatusCompleted, true},
		{entity.OrderKindSales, entity.OrderStatusOpen, entity.OrderStatusReceived, false},
		{entity.OrderKindSales, entity.OrderStatusCompleted, entity.OrderStatusCancelled, false},
		{entity.OrderKindPurchase, entity.OrderStatusCancelled, entity.OrderStatusOpen, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.kind, tt.from, tt.to), "%s %s→%s", tt.kind, tt.from, tt.to)
	}
}

func TestFulfillment(t *testing.T) {
	assert.Equal(t, entity.OrderStatusReceived, FulfilledStatus(entity.OrderKindPurchase))
	assert.Equal(t, entity.OrderStatusCompleted, FulfilledStatus(entity.OrderKindSales))

	typ, reason, ref := FulfillmentMovement(entity.OrderKindPurchase)
	assert.Equal(t, entity.MovementTypeIN, typ)
	assert.Equal(t, entity.ReasonPurchaseReceipt, reason)
	assert.Equal(t, entity.ReferencePurchaseOrder, ref)

	typ, reason, ref = FulfillmentMovement(entity.OrderKindSales)
	assert.Equal(t, entity.MovementTypeOUT, typ)
	assert.Equal(t, entity.ReasonSalesDelivery, reason)
	assert.Equal(t, entity.ReferenceSalesOrder, ref)

	assert.True(t, ReservesStock(entity.OrderKindSales))
	assert.False(t, ReservesStock(entity.OrderKindPurchase))
	assert.True(t, IsTerminal(entity.OrderStatusCancelled))
	assert.False(t, IsTerminal(entity.OrderStatusOpen))
}

func TestRecompute(t *testing.T) {
	o := &entity.Order{}
	lines := []*entity.OrderLine{
		{Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(1000), TaxRate: decimal.RequireFromString("0.19")},
		{Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(500), TaxRate: decimal.NewFromInt(5)},
	}
	Recompute(o, lines)

	assert.True(t, decimal.NewFromInt(380).Equal(lines[0].TaxAmount))
	assert.True(t, decimal.NewFromInt(2380).Equal(lines[0].LineTotal))
	assert.True(t, decimal.RequireFromString("0.05").Equal(lines[1].TaxRate), "19 o 5 se interpretan como porcentaje")
	assert.True(t, decimal.NewFromInt(75).Equal(lines[1].TaxAmount))

	assert.True(t, decimal.NewFromInt(3500).Equal(o.Subtotal))
	assert.True(t, decimal.NewFromInt(455).Equal(o.TaxTotal))
	assert.True(t, decimal.NewFromInt(3955).Equal(o.Total))
	assert.Len(t, o.Lines, 2)

	Recompute(o, lines[:1])
	assert.True(t, decimal.NewFromInt(2380).Equal(o.Total), "recalcula desde las líneas actuales")
}

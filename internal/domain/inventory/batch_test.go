package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

func TestCheckLines(t *testing.T) {
	lines := []BatchLine{
		{ProductID: "p1", WarehouseID: "w1", Quantity: d("2")},
		{ProductID: "", WarehouseID: "w1", Quantity: d("1")},
		{ProductID: "p2", WarehouseID: "w1", Quantity: d("0")},
		{ProductID: "p1", WarehouseID: "w1", Quantity: d("3")},
	}
	failures := CheckLines(entity.MovementTypeOUT, lines)
	require.Len(t, failures, 3)

	assert.Equal(t, 1, failures[0].Line)
	assert.Equal(t, domain.FailureInvalidLine, failures[0].Code)
	assert.Equal(t, 2, failures[1].Line)
	assert.Equal(t, domain.FailureInvalidQuantity, failures[1].Code)
	assert.Equal(t, 3, failures[2].Line)
	assert.Equal(t, domain.FailureDuplicateLine, failures[2].Code)
}

func TestCheckLines_AjusteAdmiteCero(t *testing.T) {
	failures := CheckLines(entity.MovementTypeADJUSTMENT, []BatchLine{
		{ProductID: "p1", WarehouseID: "w1", Quantity: decimal.Zero},
	})
	assert.Empty(t, failures)
}

func TestQuantityAllowed(t *testing.T) {
	assert.True(t, QuantityAllowed(entity.MovementTypeIN, d("0.5")))
	assert.False(t, QuantityAllowed(entity.MovementTypeIN, decimal.Zero))
	assert.False(t, QuantityAllowed(entity.MovementTypeOUT, d("-1")))
	assert.True(t, QuantityAllowed(entity.MovementTypeADJUSTMENT, decimal.Zero))
	assert.False(t, QuantityAllowed(entity.MovementTypeADJUSTMENT, d("-1")))
}

func TestWithinScale(t *testing.T) {
	assert.True(t, WithinScale(d("1.2345")))
	assert.True(t, WithinScale(d("1.50000")), "ceros a la derecha no cuentan")
	assert.True(t, WithinScale(d("100")))
	assert.False(t, WithinScale(d("0.00001")))
	assert.False(t, WithinScale(d("3.14159")))
}

func TestCheckLines_EscalaExcedida(t *testing.T) {
	failures := CheckLines(entity.MovementTypeIN, []BatchLine{
		{ProductID: "p1", WarehouseID: "w1", Quantity: d("1.5")},
		{ProductID: "p2", WarehouseID: "w1", Quantity: d("1.00001")},
	})
	require.Len(t, failures, 1)
	assert.Equal(t, 1, failures[0].Line)
	assert.Equal(t, domain.FailureInvalidQuantity, failures[0].Code)
}

func TestCheckAvailability(t *testing.T) {
	lines := []BatchLine{
		{ProductID: "p1", WarehouseID: "w1", Quantity: d("5")},
		{ProductID: "p2", WarehouseID: "w1", Quantity: d("10")},
	}
	available := map[entity.StockKey]decimal.Decimal{
		{ProductID: "p1", WarehouseID: "w1"}: d("5"),
		{ProductID: "p2", WarehouseID: "w1"}: d("3"),
	}
	failures := CheckAvailability(lines, available)
	require.Len(t, failures, 1)
	f := failures[0]
	assert.Equal(t, 1, f.Line)
	assert.Equal(t, domain.FailureInsufficientStock, f.Code)
	require.NotNil(t, f.Available)
	require.NotNil(t, f.Requested)
	assert.True(t, d("3").Equal(*f.Available))
	assert.True(t, d("10").Equal(*f.Requested))
}

func TestSortedKeys(t *testing.T) {
	keys := SortedKeys(map[entity.StockKey]decimal.Decimal{
		{ProductID: "b", WarehouseID: "w1"}: decimal.Zero,
		{ProductID: "a", WarehouseID: "w2"}: decimal.Zero,
		{ProductID: "a", WarehouseID: "w1"}: decimal.Zero,
	})
	assert.Equal(t, []entity.StockKey{
		{ProductID: "a", WarehouseID: "w1"},
		{ProductID: "a", WarehouseID: "w2"},
		{ProductID: "b", WarehouseID: "w1"},
	}, keys)
}

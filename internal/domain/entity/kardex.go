package entity

import "github.com/shopspring/decimal"

// KardexEntry movimiento con el saldo resultante tras aplicarlo.
// Balance es el saldo de la bodega del movimiento; ProductBalance suma todas las bodegas.
type KardexEntry struct {
	Movement       MovementRecord
	Balance        decimal.Decimal
	ProductBalance decimal.Decimal
}

// StockDrift diferencia entre el agregado registrado y el saldo reconstruido del kardex.
type StockDrift struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Recorded    decimal.Decimal `json:"recorded"`
	Replayed    decimal.Decimal `json:"replayed"`
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel stock actual de un producto en una bodega.
// Agregado derivado del kardex; existe una fila por cada par que alguna vez tuvo movimiento.
type StockLevel struct {
	ProductID   string          `db:"product_id"`
	WarehouseID string          `db:"warehouse_id"`
	Quantity    decimal.Decimal `db:"quantity"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// StockKey identifica un par producto+bodega.
type StockKey struct {
	ProductID   string
	WarehouseID string
}

// Key devuelve el par del nivel.
func (s *StockLevel) Key() StockKey {
	return StockKey{ProductID: s.ProductID, WarehouseID: s.WarehouseID}
}

// Availability stock, reservas abiertas y disponible para un par.
type Availability struct {
	ProductID   string
	WarehouseID string
	OnHand      decimal.Decimal
	Reserved    decimal.Decimal
	Available   decimal.Decimal
}

// LowStockItem nivel en o por debajo del mínimo del producto (solo lectura, sin alertas).
type LowStockItem struct {
	ProductID   string          `db:"product_id"`
	SKU         string          `db:"sku"`
	ProductName string          `db:"product_name"`
	WarehouseID string          `db:"warehouse_id"`
	Quantity    decimal.Decimal `db:"quantity"`
	MinStock    decimal.Decimal `db:"min_stock"`
}

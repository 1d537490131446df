package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo (multi-bodega).
// Es dato de referencia inmutable para el núcleo de inventario; el stock se maneja por bodega en StockLevel.
type Product struct {
	ID          string
	SKU         string // código único
	Name        string
	UnitMeasure string
	MinStock    decimal.Decimal // umbral de stock mínimo para reportes de bajo stock
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

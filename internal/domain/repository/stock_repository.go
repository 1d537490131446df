package repository

import (
	"context"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar el agregado de stock por bodega+producto.
// Usado dentro de transacciones para garantizar consistencia con el kardex.
type StockRepository interface {
	// Get devuelve cantidad cero si el par no tiene fila.
	Get(ctx context.Context, productID, warehouseID string) (*entity.StockLevel, error)
	// GetForUpdate asegura la fila del par y la bloquea hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.StockLevel, error)
	Upsert(ctx context.Context, stock *entity.StockLevel) error
	// List filtra por producto y/o bodega (vacío = todos).
	List(ctx context.Context, productID, warehouseID string) ([]*entity.StockLevel, error)
	// ListLow niveles en o por debajo del mínimo del producto.
	ListLow(ctx context.Context, warehouseID string) ([]entity.LowStockItem, error)
}

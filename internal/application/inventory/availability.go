package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// AvailabilityChecker calcula lo vendible/trasladable: stock del agregado menos reservas de
// líneas de venta abiertas para el mismo par.
type AvailabilityChecker struct{}

// ComputeAvailable bloquea la fila de stock del par (lectura y escritura posteriores quedan serializadas)
// y devuelve stock, reservado y disponible. excludeOrderID omite las reservas de esa orden.
func (AvailabilityChecker) ComputeAvailable(ctx context.Context, repos TxRepos, productID, warehouseID, excludeOrderID string) (entity.Availability, error) {
	level, err := repos.Stock.GetForUpdate(ctx, productID, warehouseID)
	if err != nil {
		return entity.Availability{}, err
	}
	reserved, err := repos.Orders.ReservedQuantity(ctx, productID, warehouseID, excludeOrderID)
	if err != nil {
		return entity.Availability{}, fmt.Errorf("reserved quantity: %w", err)
	}
	return entity.Availability{
		ProductID:   productID,
		WarehouseID: warehouseID,
		OnHand:      level.Quantity,
		Reserved:    reserved,
		Available:   level.Quantity.Sub(reserved),
	}, nil
}

// Require falla con InsufficientStockError si lo solicitado supera lo disponible.
func (c AvailabilityChecker) Require(ctx context.Context, repos TxRepos, productID, warehouseID string, requested decimal.Decimal, excludeOrderID string) error {
	a, err := c.ComputeAvailable(ctx, repos, productID, warehouseID, excludeOrderID)
	if err != nil {
		return err
	}
	if requested.GreaterThan(a.Available) {
		return &domain.InsufficientStockError{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Available:   a.Available,
			Requested:   requested,
		}
	}
	return nil
}

package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

// StockQueryUseCase lecturas del agregado para reportes y formularios: niveles, disponibilidad,
// bajo stock y listado de movimientos. No genera alertas; solo expone el valor actual.
type StockQueryUseCase struct {
	stockRepo repository.StockRepository
	orderRepo repository.OrderRepository
	movRepo   repository.MovementRepository
}

// NewStockQueryUseCase construye el caso de uso.
func NewStockQueryUseCase(stockRepo repository.StockRepository, orderRepo repository.OrderRepository, movRepo repository.MovementRepository) *StockQueryUseCase {
	return &StockQueryUseCase{stockRepo: stockRepo, orderRepo: orderRepo, movRepo: movRepo}
}

// Availability stock, reservado y disponible de un par, sin bloquear.
func (uc *StockQueryUseCase) Availability(ctx context.Context, productID, warehouseID string) (entity.Availability, error) {
	if productID == "" || warehouseID == "" {
		return entity.Availability{}, domain.NewValidationError("product_id", "product_id y warehouse_id son obligatorios")
	}
	level, err := uc.stockRepo.Get(ctx, productID, warehouseID)
	if err != nil {
		return entity.Availability{}, err
	}
	reserved, err := uc.orderRepo.ReservedQuantity(ctx, productID, warehouseID, "")
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

// Levels lista el agregado filtrando por producto y/o bodega.
func (uc *StockQueryUseCase) Levels(ctx context.Context, productID, warehouseID string) ([]*entity.StockLevel, error) {
	return uc.stockRepo.List(ctx, productID, warehouseID)
}

// LowStock niveles en o por debajo del mínimo configurado del producto.
func (uc *StockQueryUseCase) LowStock(ctx context.Context, warehouseID string) ([]entity.LowStockItem, error) {
	return uc.stockRepo.ListLow(ctx, warehouseID)
}

// Movements listado paginado del kardex, más recientes primero.
func (uc *StockQueryUseCase) Movements(ctx context.Context, filter repository.MovementFilter) ([]*entity.MovementRecord, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.movRepo.List(ctx, filter)
}

package inventory

import (
	"context"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/inventory"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

// StockAggregator mantiene la tabla derivada de stock sincronizada con el kardex,
// en la misma unidad de trabajo que la inserción del movimiento.
type StockAggregator struct{}

// ApplyMovement IN suma, OUT resta (ya aprobado por el chequeo de disponibilidad),
// ADJUSTMENT reemplaza el saldo. Nunca recorta en cero.
func (StockAggregator) ApplyMovement(ctx context.Context, stock repository.StockRepository, m *entity.MovementRecord) (*entity.StockLevel, error) {
	level, err := stock.GetForUpdate(ctx, m.ProductID, m.WarehouseID)
	if err != nil {
		return nil, err
	}
	level.Quantity = inventory.Apply(level.Quantity, m.Type, m.Quantity)
	level.UpdatedAt = m.OccurredAt
	if err := stock.Upsert(ctx, level); err != nil {
		return nil, err
	}
	return level, nil
}

// Lock bloquea las filas de los pares en orden determinista para evitar interbloqueos.
func (StockAggregator) Lock(ctx context.Context, stock repository.StockRepository, keys []entity.StockKey) error {
	sorted := append([]entity.StockKey(nil), keys...)
	inventory.SortKeys(sorted)
	for _, k := range sorted {
		if _, err := stock.GetForUpdate(ctx, k.ProductID, k.WarehouseID); err != nil {
			return err
		}
	}
	return nil
}

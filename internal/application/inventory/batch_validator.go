package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/inventory"
)

// BatchValidator chequeos previos de un envío múltiple antes de cualquier mutación.
// Devuelve nil ("proceder") o un *domain.BatchValidationError con las fallas por línea.
type BatchValidator struct {
	availability AvailabilityChecker
}

// Validate forma de las líneas, datos de referencia y, para salidas, el total solicitado por par
// contra la disponibilidad (con las filas de stock bloqueadas).
func (v BatchValidator) Validate(ctx context.Context, repos TxRepos, t entity.MovementType, lines []inventory.BatchLine, excludeOrderID string) error {
	if err := v.CheckShape(ctx, repos, t, lines); err != nil {
		return err
	}
	if !inventory.IsOutbound(t) {
		return nil
	}
	return v.CheckStock(ctx, repos, lines, excludeOrderID)
}

// CheckShape duplicados, cantidades y existencia de productos/bodegas.
func (v BatchValidator) CheckShape(ctx context.Context, repos TxRepos, t entity.MovementType, lines []inventory.BatchLine) error {
	if !t.Valid() {
		return domain.NewValidationError("type", "debe ser IN, OUT o ADJUSTMENT")
	}
	if len(lines) == 0 {
		return domain.NewValidationError("lines", "el lote no tiene líneas")
	}
	failures := inventory.CheckLines(t, lines)
	if len(failures) > 0 {
		return &domain.BatchValidationError{Failures: failures}
	}
	for i, l := range lines {
		p, err := repos.Products.GetByID(ctx, l.ProductID)
		if err != nil {
			return fmt.Errorf("get product: %w", err)
		}
		if p == nil {
			failures = append(failures, domain.LineFailure{
				Line: i, ProductID: l.ProductID, WarehouseID: l.WarehouseID,
				Code: domain.FailureUnknownProduct, Message: "producto desconocido",
			})
		}
		wh, err := repos.Warehouses.GetByID(ctx, l.WarehouseID)
		if err != nil {
			return fmt.Errorf("get warehouse: %w", err)
		}
		if wh == nil {
			failures = append(failures, domain.LineFailure{
				Line: i, ProductID: l.ProductID, WarehouseID: l.WarehouseID,
				Code: domain.FailureUnknownWarehouse, Message: "bodega desconocida",
			})
		}
	}
	if len(failures) > 0 {
		return &domain.BatchValidationError{Failures: failures}
	}
	return nil
}

// CheckStock bloquea las filas en orden y compara el total solicitado por par contra lo disponible.
func (v BatchValidator) CheckStock(ctx context.Context, repos TxRepos, lines []inventory.BatchLine, excludeOrderID string) error {
	requested := inventory.Aggregate(lines)
	available := make(map[entity.StockKey]decimal.Decimal, len(requested))
	for _, k := range inventory.SortedKeys(requested) {
		a, err := v.availability.ComputeAvailable(ctx, repos, k.ProductID, k.WarehouseID, excludeOrderID)
		if err != nil {
			return err
		}
		available[k] = a.Available
	}
	if failures := inventory.CheckAvailability(lines, available); len(failures) > 0 {
		return &domain.BatchValidationError{Failures: failures}
	}
	return nil
}

// Package reference expone los datos de referencia (productos, bodegas, motivos) que el
// núcleo de inventario solo lee.
package reference

import (
	"context"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

// UseCase lecturas de catálogo.
type UseCase struct {
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	reasons    repository.ReasonRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(products repository.ProductRepository, warehouses repository.WarehouseRepository, reasons repository.ReasonRepository) *UseCase {
	return &UseCase{products: products, warehouses: warehouses, reasons: reasons}
}

func (uc *UseCase) ListProducts(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	return uc.products.List(ctx, limit, offset)
}

// GetProduct devuelve ErrNotFound si no existe.
func (uc *UseCase) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	p, err := uc.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (uc *UseCase) ListWarehouses(ctx context.Context, limit, offset int) ([]*entity.Warehouse, error) {
	return uc.warehouses.List(ctx, limit, offset)
}

func (uc *UseCase) ListReasons(ctx context.Context) ([]*entity.Reason, error) {
	return uc.reasons.List(ctx)
}

package inventory

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/inventory"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

// errStopStream corta el recorrido del repositorio cuando el consumidor deja de iterar.
var errStopStream = errors.New("stream detenido por el consumidor")

// KardexUseCase reconstrucción de solo lectura del saldo histórico de un producto.
// Se recalcula en cada llamada, sin caché ni bloqueos.
type KardexUseCase struct {
	productRepo repository.ProductRepository
	movRepo     repository.MovementRepository
}

// NewKardexUseCase construye el caso de uso.
func NewKardexUseCase(productRepo repository.ProductRepository, movRepo repository.MovementRepository) *KardexUseCase {
	return &KardexUseCase{productRepo: productRepo, movRepo: movRepo}
}

// Reconstruct devuelve la secuencia perezosa (movimiento, saldo resultante) del producto en orden del kardex.
// warehouseID vacío incluye todas las bodegas. La secuencia es finita y puede recorrerse varias veces;
// cada recorrido vuelve a leer el kardex.
func (uc *KardexUseCase) Reconstruct(ctx context.Context, productID, warehouseID string) (iter.Seq2[entity.KardexEntry, error], error) {
	if productID == "" {
		return nil, domain.NewValidationError("product_id", "obligatorio")
	}
	p, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	filter := repository.MovementFilter{ProductID: productID, WarehouseID: warehouseID}
	return inventory.Replay(uc.stream(ctx, filter)), nil
}

// Collect materializa la secuencia completa (vistas de historial y exportes).
func (uc *KardexUseCase) Collect(ctx context.Context, productID, warehouseID string) ([]entity.KardexEntry, error) {
	seq, err := uc.Reconstruct(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	var out []entity.KardexEntry
	for e, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (uc *KardexUseCase) stream(ctx context.Context, filter repository.MovementFilter) iter.Seq2[*entity.MovementRecord, error] {
	return func(yield func(*entity.MovementRecord, error) bool) {
		err := uc.movRepo.Stream(ctx, filter, func(m *entity.MovementRecord) error {
			if !yield(m, nil) {
				return errStopStream
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopStream) {
			yield(nil, err)
		}
	}
}

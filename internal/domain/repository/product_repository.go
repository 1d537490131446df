package repository

import (
	"context"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// ProductRepository define el puerto de lectura del catálogo de productos (dato de referencia).
// GetByID devuelve (nil, nil) si no existe.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
}

package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// OrderFilter filtros del listado de órdenes.
type OrderFilter struct {
	Kind   entity.OrderKind
	Status entity.OrderStatus
	Limit  int
	Offset int
}

// OrderRepository define el puerto de persistencia para órdenes y sus líneas.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	// GetByID carga cabecera y líneas; (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// GetForUpdate igual que GetByID pero bloquea la fila de la orden.
	GetForUpdate(ctx context.Context, id string) (*entity.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*entity.Order, error)
	AddLine(ctx context.Context, line *entity.OrderLine) error
	// DeleteLine devuelve false si la línea no pertenece a la orden.
	DeleteLine(ctx context.Context, orderID, lineID string) (bool, error)
	UpdateTotals(ctx context.Context, order *entity.Order) error
	// CompareAndSetStatus actualiza el estado solo si sigue siendo from. Devuelve false si no afectó filas.
	CompareAndSetStatus(ctx context.Context, id string, from, to entity.OrderStatus, at time.Time) (bool, error)
	// ReservedQuantity suma las líneas de órdenes de venta abiertas para el par, excluyendo excludeOrderID.
	ReservedQuantity(ctx context.Context, productID, warehouseID, excludeOrderID string) (decimal.Decimal, error)
}

package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// MovementFilter filtros para listar o recorrer el kardex. Campos vacíos no filtran.
type MovementFilter struct {
	ProductID   string
	WarehouseID string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// MovementRepository puerto del kardex: solo inserción y lectura; no existe update ni delete.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.MovementRecord) error
	// CreateMany inserta varias filas en una sola sentencia (todas o ninguna).
	CreateMany(ctx context.Context, movements []*entity.MovementRecord) error
	GetByID(ctx context.Context, id string) (*entity.MovementRecord, error)
	// List devuelve los más recientes primero (paginado).
	List(ctx context.Context, filter MovementFilter) ([]*entity.MovementRecord, error)
	// Stream recorre en orden del kardex (ascendente) sin cargar todo en memoria.
	// Si fn devuelve error se detiene y lo propaga.
	Stream(ctx context.Context, filter MovementFilter, fn func(*entity.MovementRecord) error) error
}

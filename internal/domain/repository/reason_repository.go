package repository

import (
	"context"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// ReasonRepository define el puerto de lectura de motivos de movimiento.
type ReasonRepository interface {
	GetByCode(ctx context.Context, code string) (*entity.Reason, error)
	List(ctx context.Context) ([]*entity.Reason, error)
}

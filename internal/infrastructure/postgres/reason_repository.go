package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

var _ repository.ReasonRepository = (*ReasonRepo)(nil)

// ReasonRepo motivos de movimiento; types es un TEXT[] con los tipos a los que aplica.
type ReasonRepo struct {
	q Querier
}

// NewReasonRepository construye el adaptador.
func NewReasonRepository(q Querier) *ReasonRepo {
	return &ReasonRepo{q: q}
}

func (r *ReasonRepo) GetByCode(ctx context.Context, code string) (*entity.Reason, error) {
	var (
		reason entity.Reason
		types  []string
	)
	err := r.q.QueryRow(ctx, `SELECT code, description, types FROM reasons WHERE code = $1`, code).
		Scan(&reason.Code, &reason.Description, &types)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reason: %w", err)
	}
	reason.Types = toMovementTypes(types)
	return &reason, nil
}

func (r *ReasonRepo) List(ctx context.Context) ([]*entity.Reason, error) {
	rows, err := r.q.Query(ctx, `SELECT code, description, types FROM reasons ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list reasons: %w", err)
	}
	defer rows.Close()
	var out []*entity.Reason
	for rows.Next() {
		var (
			reason entity.Reason
			types  []string
		)
		if err := rows.Scan(&reason.Code, &reason.Description, &types); err != nil {
			return nil, fmt.Errorf("scan reason: %w", err)
		}
		reason.Types = toMovementTypes(types)
		out = append(out, &reason)
	}
	return out, rows.Err()
}

func toMovementTypes(in []string) []entity.MovementType {
	out := make([]entity.MovementType, 0, len(in))
	for _, t := range in {
		out = append(out, entity.MovementType(t))
	}
	return out
}

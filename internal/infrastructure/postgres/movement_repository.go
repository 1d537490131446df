package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

var movementColumns = []string{
	"id", "seq", "transaction_id", "product_id", "warehouse_id", "type", "quantity",
	"reason_code", "reference_kind", "reference_id", "notes", "occurred_at", "created_by",
}

var movementInsertColumns = []string{
	"id", "transaction_id", "product_id", "warehouse_id", "type", "quantity",
	"reason_code", "reference_kind", "reference_id", "notes", "occurred_at", "created_by",
}

// MovementRepo kardex sobre la tabla movements (solo INSERT y SELECT).
// seq (BIGSERIAL) fija el orden de reproducción.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create inserta un movimiento y asigna su seq.
func (r *MovementRepo) Create(ctx context.Context, m *entity.MovementRecord) error {
	return r.CreateMany(ctx, []*entity.MovementRecord{m})
}

// CreateMany inserta todas las filas en una sola sentencia multi-VALUES y asigna seq por id.
func (r *MovementRepo) CreateMany(ctx context.Context, movements []*entity.MovementRecord) error {
	if len(movements) == 0 {
		return nil
	}
	q := psql.Insert("movements").Columns(movementInsertColumns...)
	byID := make(map[string]*entity.MovementRecord, len(movements))
	for _, m := range movements {
		q = q.Values(
			m.ID, m.TransactionID, m.ProductID, m.WarehouseID, string(m.Type), m.Quantity,
			m.ReasonCode, m.ReferenceKind, m.ReferenceID, m.Notes, m.OccurredAt, m.CreatedBy,
		)
		byID[m.ID] = m
	}
	sql, args, err := q.Suffix("RETURNING id, seq").ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id  string
			seq int64
		)
		if err := rows.Scan(&id, &seq); err != nil {
			return fmt.Errorf("scan movement seq: %w", err)
		}
		if m, ok := byID[id]; ok {
			m.Seq = seq
		}
	}
	if err := rows.Err(); err != nil {
		switch {
		case isCheckViolation(err):
			return domain.NewValidationError("quantity", "la cantidad no puede ser negativa")
		case isForeignKeyViolation(err):
			return domain.NewValidationError("", "producto, bodega o motivo inexistente")
		}
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento; (nil, nil) si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.MovementRecord, error) {
	if !validID(id) {
		return nil, nil
	}
	sql, args, err := psql.Select(movementColumns...).From("movements").
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var m entity.MovementRecord
	if err := pgxscan.Get(ctx, r.q, &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return &m, nil
}

// List más recientes primero, paginado.
func (r *MovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.MovementRecord, error) {
	q := applyMovementFilter(psql.Select(movementColumns...).From("movements"), filter).
		OrderBy("seq DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []*entity.MovementRecord
	if err := pgxscan.Select(ctx, r.q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return out, nil
}

// Stream recorre los movimientos en orden de seq fila por fila, sin materializar el resultado.
func (r *MovementRepo) Stream(ctx context.Context, filter repository.MovementFilter, fn func(*entity.MovementRecord) error) error {
	sql, args, err := applyMovementFilter(psql.Select(movementColumns...).From("movements"), filter).
		OrderBy("seq ASC").ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("stream movements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m entity.MovementRecord
		if err := pgxscan.ScanRow(&m, rows); err != nil {
			return fmt.Errorf("scan movement: %w", err)
		}
		if err := fn(&m); err != nil {
			return err
		}
	}
	return rows.Err()
}

func applyMovementFilter(q squirrel.SelectBuilder, f repository.MovementFilter) squirrel.SelectBuilder {
	if f.ProductID != "" {
		q = q.Where(squirrel.Eq{"product_id": f.ProductID})
	}
	if f.WarehouseID != "" {
		q = q.Where(squirrel.Eq{"warehouse_id": f.WarehouseID})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"occurred_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.Lt{"occurred_at": *f.To})
	}
	return q
}

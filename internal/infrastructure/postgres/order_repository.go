package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

const (
	orderColumns = `id, kind, status, warehouse_id, currency, subtotal, tax_total, total, notes,
		created_by, created_at, updated_at, fulfilled_at`
	orderLineColumns = `id, order_id, product_id, quantity, unit_price, tax_rate, tax_amount, line_total, created_at`
)

// OrderRepo órdenes de compra/venta y sus líneas sobre PostgreSQL.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO orders (id, kind, status, warehouse_id, currency, subtotal, tax_total, total, notes,
			created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, string(o.Kind), string(o.Status), o.WarehouseID, o.Currency, o.Subtotal, o.TaxTotal, o.Total,
		o.Notes, o.CreatedBy, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByID carga cabecera y líneas; (nil, nil) si no existe.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila de la orden hasta el fin de la transacción.
// Las líneas no se bloquean: solo se modifican con la cabecera bloqueada.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepo) get(ctx context.Context, query, id string) (*entity.Order, error) {
	if !validID(id) {
		return nil, nil
	}
	var o entity.Order
	if err := pgxscan.Get(ctx, r.q, &o, query, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	lines, err := r.lines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func (r *OrderRepo) lines(ctx context.Context, orderID string) ([]*entity.OrderLine, error) {
	var lines []*entity.OrderLine
	err := pgxscan.Select(ctx, r.q, &lines,
		`SELECT `+orderLineColumns+` FROM order_lines WHERE order_id = $1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	return lines, nil
}

// List cabeceras (sin líneas), más recientes primero.
func (r *OrderRepo) List(ctx context.Context, filter repository.OrderFilter) ([]*entity.Order, error) {
	q := psql.Select(orderColumns).From("orders").OrderBy("created_at DESC", "id")
	if filter.Kind != "" {
		q = q.Where(squirrel.Eq{"kind": string(filter.Kind)})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": string(filter.Status)})
	}
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
	var out []*entity.Order
	if err := pgxscan.Select(ctx, r.q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}

func (r *OrderRepo) AddLine(ctx context.Context, l *entity.OrderLine) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO order_lines (`+orderLineColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		l.ID, l.OrderID, l.ProductID, l.Quantity, l.UnitPrice, l.TaxRate, l.TaxAmount, l.LineTotal, l.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewValidationError("product_id", "el producto ya tiene una línea en la orden")
		}
		return fmt.Errorf("insert order line: %w", err)
	}
	return nil
}

func (r *OrderRepo) DeleteLine(ctx context.Context, orderID, lineID string) (bool, error) {
	if !validID(lineID) {
		return false, nil
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM order_lines WHERE id = $1 AND order_id = $2`, lineID, orderID)
	if err != nil {
		return false, fmt.Errorf("delete order line: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *OrderRepo) UpdateTotals(ctx context.Context, o *entity.Order) error {
	_, err := r.q.Exec(ctx, `
		UPDATE orders SET subtotal = $2, tax_total = $3, total = $4, updated_at = $5
		WHERE id = $1`, o.ID, o.Subtotal, o.TaxTotal, o.Total, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order totals: %w", err)
	}
	return nil
}

// CompareAndSetStatus UPDATE condicionado al estado esperado; RowsAffected = 0 significa que otro la procesó.
func (r *OrderRepo) CompareAndSetStatus(ctx context.Context, id string, from, to entity.OrderStatus, at time.Time) (bool, error) {
	fulfilled := to == entity.OrderStatusReceived || to == entity.OrderStatusCompleted
	tag, err := r.q.Exec(ctx, `
		UPDATE orders
		SET status = $3, updated_at = $4,
		    fulfilled_at = CASE WHEN $5::boolean THEN $4 ELSE fulfilled_at END
		WHERE id = $1 AND status = $2`, id, string(from), string(to), at, fulfilled)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReservedQuantity suma las líneas de ventas abiertas del par, sin contar excludeOrderID.
func (r *OrderRepo) ReservedQuantity(ctx context.Context, productID, warehouseID, excludeOrderID string) (decimal.Decimal, error) {
	if !validID(productID) || !validID(warehouseID) {
		return decimal.Zero, nil
	}
	var reserved decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(l.quantity), 0)
		FROM order_lines l
		JOIN orders o ON o.id = l.order_id
		WHERE o.kind = 'SALES' AND o.status = 'OPEN'
		  AND l.product_id = $1 AND o.warehouse_id = $2
		  AND ($3::text = '' OR o.id::text <> $3::text)`,
		productID, warehouseID, excludeOrderID).Scan(&reserved)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reserved quantity: %w", err)
	}
	return reserved, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock actual de un producto en una bodega (cero si no hay fila).
func (r *StockRepo) Get(ctx context.Context, productID, warehouseID string) (*entity.StockLevel, error) {
	if !validID(productID) || !validID(warehouseID) {
		return zeroLevel(productID, warehouseID), nil
	}
	var s entity.StockLevel
	err := pgxscan.Get(ctx, r.q, &s, `
		SELECT product_id, warehouse_id, quantity, updated_at
		FROM stock_levels WHERE product_id = $1 AND warehouse_id = $2`, productID, warehouseID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return zeroLevel(productID, warehouseID), nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// GetForUpdate asegura la fila en cero (ON CONFLICT DO NOTHING) y la bloquea (SELECT FOR UPDATE).
// Sin la inserción previa, dos transacciones sobre un par nuevo no tendrían fila que bloquear.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.StockLevel, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_levels (product_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (product_id, warehouse_id) DO NOTHING`, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("ensure stock row: %w", err)
	}
	var s entity.StockLevel
	err = pgxscan.Get(ctx, r.q, &s, `
		SELECT product_id, warehouse_id, quantity, updated_at
		FROM stock_levels WHERE product_id = $1 AND warehouse_id = $2
		FOR UPDATE`, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad en stock (por producto y bodega).
func (r *StockRepo) Upsert(ctx context.Context, stock *entity.StockLevel) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_levels (product_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`,
		stock.ProductID, stock.WarehouseID, stock.Quantity, stock.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// List filtra por producto y/o bodega.
func (r *StockRepo) List(ctx context.Context, productID, warehouseID string) ([]*entity.StockLevel, error) {
	q := psql.Select("product_id", "warehouse_id", "quantity", "updated_at").
		From("stock_levels").
		OrderBy("product_id", "warehouse_id")
	if productID != "" {
		q = q.Where(squirrel.Eq{"product_id": productID})
	}
	if warehouseID != "" {
		q = q.Where(squirrel.Eq{"warehouse_id": warehouseID})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []*entity.StockLevel
	if err := pgxscan.Select(ctx, r.q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	return out, nil
}

// ListLow niveles en o por debajo de products.min_stock (solo productos con mínimo configurado).
func (r *StockRepo) ListLow(ctx context.Context, warehouseID string) ([]entity.LowStockItem, error) {
	q := psql.Select(
		"s.product_id", "p.sku", "p.name AS product_name",
		"s.warehouse_id", "s.quantity", "p.min_stock",
	).
		From("stock_levels s").
		Join("products p ON p.id = s.product_id").
		Where("p.min_stock > 0").
		Where("s.quantity <= p.min_stock").
		OrderBy("p.sku", "s.warehouse_id")
	if warehouseID != "" {
		q = q.Where(squirrel.Eq{"s.warehouse_id": warehouseID})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []entity.LowStockItem
	if err := pgxscan.Select(ctx, r.q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return out, nil
}

func zeroLevel(productID, warehouseID string) *entity.StockLevel {
	return &entity.StockLevel{ProductID: productID, WarehouseID: warehouseID, Quantity: decimal.Zero}
}

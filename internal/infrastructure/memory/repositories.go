package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

var (
	_ repository.ProductRepository   = (*ProductRepo)(nil)
	_ repository.WarehouseRepository = (*WarehouseRepo)(nil)
	_ repository.ReasonRepository    = (*ReasonRepo)(nil)
	_ repository.MovementRepository  = (*MovementRepo)(nil)
	_ repository.StockRepository     = (*StockRepo)(nil)
	_ repository.OrderRepository     = (*OrderRepo)(nil)
)

type ProductRepo struct{ base }

func (r *ProductRepo) GetByID(_ context.Context, id string) (p *entity.Product, err error) {
	err = r.view(func(d *state) error {
		if v, ok := d.products[id]; ok {
			p = &v
		}
		return nil
	})
	return p, err
}

func (r *ProductRepo) List(_ context.Context, limit, offset int) (out []*entity.Product, err error) {
	err = r.view(func(d *state) error {
		for _, v := range d.products {
			out = append(out, &v)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return page(out, limit, offset), err
}

type WarehouseRepo struct{ base }

func (r *WarehouseRepo) GetByID(_ context.Context, id string) (w *entity.Warehouse, err error) {
	err = r.view(func(d *state) error {
		if v, ok := d.warehouses[id]; ok {
			w = &v
		}
		return nil
	})
	return w, err
}

func (r *WarehouseRepo) List(_ context.Context, limit, offset int) (out []*entity.Warehouse, err error) {
	err = r.view(func(d *state) error {
		for _, v := range d.warehouses {
			out = append(out, &v)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, limit, offset), err
}

type ReasonRepo struct{ base }

func (r *ReasonRepo) GetByCode(_ context.Context, code string) (reason *entity.Reason, err error) {
	err = r.view(func(d *state) error {
		if v, ok := d.reasons[code]; ok {
			reason = &v
		}
		return nil
	})
	return reason, err
}

func (r *ReasonRepo) List(_ context.Context) (out []*entity.Reason, err error) {
	err = r.view(func(d *state) error {
		for _, v := range d.reasons {
			out = append(out, &v)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, err
}

// MovementRepo kardex en memoria: solo append.
type MovementRepo struct{ base }

func (r *MovementRepo) Create(ctx context.Context, m *entity.MovementRecord) error {
	return r.CreateMany(ctx, []*entity.MovementRecord{m})
}

// CreateMany valida todas las filas antes de insertar cualquiera.
func (r *MovementRepo) CreateMany(_ context.Context, movements []*entity.MovementRecord) error {
	return r.view(func(d *state) error {
		for _, m := range movements {
			if m.Quantity.IsNegative() {
				return domain.NewValidationError("quantity", "la cantidad no puede ser negativa")
			}
		}
		for _, m := range movements {
			d.seq++
			m.Seq = d.seq
			d.movements = append(d.movements, *m)
		}
		return nil
	})
}

func (r *MovementRepo) GetByID(_ context.Context, id string) (m *entity.MovementRecord, err error) {
	err = r.view(func(d *state) error {
		for i := range d.movements {
			if d.movements[i].ID == id {
				v := d.movements[i]
				m = &v
				return nil
			}
		}
		return nil
	})
	return m, err
}

func (r *MovementRepo) List(_ context.Context, filter repository.MovementFilter) ([]*entity.MovementRecord, error) {
	var out []*entity.MovementRecord
	err := r.view(func(d *state) error {
		for i := len(d.movements) - 1; i >= 0; i-- {
			if matches(&d.movements[i], filter) {
				v := d.movements[i]
				out = append(out, &v)
			}
		}
		return nil
	})
	return page(out, filter.Limit, filter.Offset), err
}

// Stream copia las filas que coinciden y las entrega fuera del mutex si el llamador no tiene la tx.
func (r *MovementRepo) Stream(_ context.Context, filter repository.MovementFilter, fn func(*entity.MovementRecord) error) error {
	var rows []entity.MovementRecord
	if err := r.view(func(d *state) error {
		for i := range d.movements {
			if matches(&d.movements[i], filter) {
				rows = append(rows, d.movements[i])
			}
		}
		return nil
	}); err != nil {
		return err
	}
	for i := range rows {
		if err := fn(&rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func matches(m *entity.MovementRecord, f repository.MovementFilter) bool {
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if f.WarehouseID != "" && m.WarehouseID != f.WarehouseID {
		return false
	}
	if f.From != nil && m.OccurredAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !m.OccurredAt.Before(*f.To) {
		return false
	}
	return true
}

type StockRepo struct{ base }

func (r *StockRepo) Get(_ context.Context, productID, warehouseID string) (s *entity.StockLevel, err error) {
	err = r.view(func(d *state) error {
		v, ok := d.stock[entity.StockKey{ProductID: productID, WarehouseID: warehouseID}]
		if !ok {
			v = entity.StockLevel{ProductID: productID, WarehouseID: warehouseID, Quantity: decimal.Zero}
		}
		s = &v
		return nil
	})
	return s, err
}

// GetForUpdate crea la fila en cero si falta; el bloqueo es el mutex de la transacción.
func (r *StockRepo) GetForUpdate(_ context.Context, productID, warehouseID string) (s *entity.StockLevel, err error) {
	err = r.view(func(d *state) error {
		k := entity.StockKey{ProductID: productID, WarehouseID: warehouseID}
		v, ok := d.stock[k]
		if !ok {
			v = entity.StockLevel{ProductID: productID, WarehouseID: warehouseID, Quantity: decimal.Zero, UpdatedAt: time.Now().UTC()}
			d.stock[k] = v
		}
		s = &v
		return nil
	})
	return s, err
}

func (r *StockRepo) Upsert(_ context.Context, stock *entity.StockLevel) error {
	return r.view(func(d *state) error {
		d.stock[stock.Key()] = *stock
		return nil
	})
}

func (r *StockRepo) List(_ context.Context, productID, warehouseID string) (out []*entity.StockLevel, err error) {
	err = r.view(func(d *state) error {
		for _, v := range d.stock {
			if productID != "" && v.ProductID != productID {
				continue
			}
			if warehouseID != "" && v.WarehouseID != warehouseID {
				continue
			}
			out = append(out, &v)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].WarehouseID < out[j].WarehouseID
	})
	return out, err
}

func (r *StockRepo) ListLow(_ context.Context, warehouseID string) (out []entity.LowStockItem, err error) {
	err = r.view(func(d *state) error {
		for _, v := range d.stock {
			if warehouseID != "" && v.WarehouseID != warehouseID {
				continue
			}
			p, ok := d.products[v.ProductID]
			if !ok || !p.MinStock.IsPositive() || v.Quantity.GreaterThan(p.MinStock) {
				continue
			}
			out = append(out, entity.LowStockItem{
				ProductID:   v.ProductID,
				SKU:         p.SKU,
				ProductName: p.Name,
				WarehouseID: v.WarehouseID,
				Quantity:    v.Quantity,
				MinStock:    p.MinStock,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].SKU != out[j].SKU {
			return out[i].SKU < out[j].SKU
		}
		return out[i].WarehouseID < out[j].WarehouseID
	})
	return out, err
}

type OrderRepo struct{ base }

func (r *OrderRepo) Create(_ context.Context, o *entity.Order) error {
	return r.view(func(d *state) error {
		if _, ok := d.orders[o.ID]; ok {
			return domain.ErrDuplicate
		}
		v := *o
		v.Lines = nil
		d.orders[o.ID] = v
		return nil
	})
}

func (r *OrderRepo) GetByID(_ context.Context, id string) (o *entity.Order, err error) {
	err = r.view(func(d *state) error {
		o = d.load(id)
		return nil
	})
	return o, err
}

// GetForUpdate el mutex de la transacción ya serializa el acceso a la orden.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.GetByID(ctx, id)
}

func (d *state) load(id string) *entity.Order {
	v, ok := d.orders[id]
	if !ok {
		return nil
	}
	lines := d.lines[id]
	v.Lines = make([]*entity.OrderLine, 0, len(lines))
	for i := range lines {
		l := lines[i]
		v.Lines = append(v.Lines, &l)
	}
	return &v
}

func (r *OrderRepo) List(_ context.Context, filter repository.OrderFilter) (out []*entity.Order, err error) {
	err = r.view(func(d *state) error {
		for _, v := range d.orders {
			if filter.Kind != "" && v.Kind != filter.Kind {
				continue
			}
			if filter.Status != "" && v.Status != filter.Status {
				continue
			}
			out = append(out, &v)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, filter.Limit, filter.Offset), err
}

func (r *OrderRepo) AddLine(_ context.Context, l *entity.OrderLine) error {
	return r.view(func(d *state) error {
		if _, ok := d.orders[l.OrderID]; !ok {
			return domain.ErrNotFound
		}
		for _, existing := range d.lines[l.OrderID] {
			if existing.ProductID == l.ProductID {
				return domain.NewValidationError("product_id", "el producto ya tiene una línea en la orden")
			}
		}
		d.lines[l.OrderID] = append(d.lines[l.OrderID], *l)
		return nil
	})
}

func (r *OrderRepo) DeleteLine(_ context.Context, orderID, lineID string) (removed bool, err error) {
	err = r.view(func(d *state) error {
		lines := d.lines[orderID]
		for i := range lines {
			if lines[i].ID == lineID {
				d.lines[orderID] = append(lines[:i:i], lines[i+1:]...)
				removed = true
				return nil
			}
		}
		return nil
	})
	return removed, err
}

func (r *OrderRepo) UpdateTotals(_ context.Context, o *entity.Order) error {
	return r.view(func(d *state) error {
		v, ok := d.orders[o.ID]
		if !ok {
			return domain.ErrNotFound
		}
		v.Subtotal, v.TaxTotal, v.Total, v.UpdatedAt = o.Subtotal, o.TaxTotal, o.Total, o.UpdatedAt
		d.orders[o.ID] = v
		return nil
	})
}

func (r *OrderRepo) CompareAndSetStatus(_ context.Context, id string, from, to entity.OrderStatus, at time.Time) (swapped bool, err error) {
	err = r.view(func(d *state) error {
		v, ok := d.orders[id]
		if !ok || v.Status != from {
			return nil
		}
		v.Status = to
		v.UpdatedAt = at
		if to == entity.OrderStatusReceived || to == entity.OrderStatusCompleted {
			fulfilled := at
			v.FulfilledAt = &fulfilled
		}
		d.orders[id] = v
		swapped = true
		return nil
	})
	return swapped, err
}

func (r *OrderRepo) ReservedQuantity(_ context.Context, productID, warehouseID, excludeOrderID string) (reserved decimal.Decimal, err error) {
	err = r.view(func(d *state) error {
		for id, o := range d.orders {
			if id == excludeOrderID || o.Kind != entity.OrderKindSales || o.Status != entity.OrderStatusOpen || o.WarehouseID != warehouseID {
				continue
			}
			for _, l := range d.lines[id] {
				if l.ProductID == productID {
					reserved = reserved.Add(l.Quantity)
				}
			}
		}
		return nil
	})
	return reserved, err
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

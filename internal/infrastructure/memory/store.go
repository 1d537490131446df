// Package memory implementa los puertos de persistencia en proceso. Las transacciones se
// serializan con un único mutex y se revierten restaurando una copia del estado, de modo que
// un Run fallido no deja rastro. Lo usan las pruebas y el modo APP_STORAGE=memory.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/inventario-kardex/internal/application/inventory"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

type state struct {
	products   map[string]entity.Product
	warehouses map[string]entity.Warehouse
	reasons    map[string]entity.Reason
	movements  []entity.MovementRecord
	seq        int64
	stock      map[entity.StockKey]entity.StockLevel
	orders     map[string]entity.Order
	lines      map[string][]entity.OrderLine // por order id, en orden de inserción
}

func newState() *state {
	return &state{
		products:   make(map[string]entity.Product),
		warehouses: make(map[string]entity.Warehouse),
		reasons:    make(map[string]entity.Reason),
		stock:      make(map[entity.StockKey]entity.StockLevel),
		orders:     make(map[string]entity.Order),
		lines:      make(map[string][]entity.OrderLine),
	}
}

// clone copia lo mutable. Los movimientos son de solo inserción: basta con recortar el slice.
func (s *state) clone() *state {
	c := &state{
		products:   s.products,
		warehouses: s.warehouses,
		reasons:    s.reasons,
		movements:  s.movements[:len(s.movements):len(s.movements)],
		seq:        s.seq,
		stock:      make(map[entity.StockKey]entity.StockLevel, len(s.stock)),
		orders:     make(map[string]entity.Order, len(s.orders)),
		lines:      make(map[string][]entity.OrderLine, len(s.lines)),
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = append([]entity.OrderLine(nil), v...)
	}
	return c
}

// Store datastore en memoria. El valor cero no es utilizable; usar NewStore.
type Store struct {
	mu   sync.Mutex
	data *state
}

// NewStore crea un store vacío con los motivos por defecto.
func NewStore() *Store {
	st := &Store{data: newState()}
	for _, r := range entity.DefaultReasons() {
		st.data.reasons[r.Code] = *r
	}
	return st
}

// Run ejecuta fn con acceso exclusivo; si fn falla el estado vuelve a la copia previa.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.data.clone()
	if err := fn(s.repos(true)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// RunReadOnly igual que Run; el lector nunca modifica, así que no hace falta copia.
func (s *Store) RunReadOnly(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.repos(true))
}

// Repos repositorios fuera de transacción: cada llamada toma el mutex por su cuenta.
func (s *Store) Repos() inventory.TxRepos {
	return s.repos(false)
}

func (s *Store) repos(locked bool) inventory.TxRepos {
	b := base{st: s, locked: locked}
	return inventory.TxRepos{
		Movements:  &MovementRepo{base: b},
		Stock:      &StockRepo{base: b},
		Orders:     &OrderRepo{base: b},
		Products:   &ProductRepo{base: b},
		Warehouses: &WarehouseRepo{base: b},
		Reasons:    &ReasonRepo{base: b},
	}
}

// AddProduct registra un producto de referencia.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.products = cloneMap(s.data.products)
	s.data.products[p.ID] = p
}

// AddWarehouse registra una bodega de referencia.
func (s *Store) AddWarehouse(w entity.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.warehouses = cloneMap(s.data.warehouses)
	s.data.warehouses[w.ID] = w
}

// OverwriteStock escribe el agregado saltándose el kardex. Solo para provocar deriva en pruebas de reconciliación.
func (s *Store) OverwriteStock(level entity.StockLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.stock[level.Key()] = level
}

// base da acceso al estado respetando si el llamador ya tiene el mutex.
type base struct {
	st     *Store
	locked bool
}

func (b base) view(fn func(d *state) error) error {
	if !b.locked {
		b.st.mu.Lock()
		defer b.st.mu.Unlock()
	}
	return fn(b.st.data)
}

// cloneMap los catálogos se comparten entre copias; se copian al escribir.
func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

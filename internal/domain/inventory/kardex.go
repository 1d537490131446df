package inventory

import (
	"iter"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// Replayer mantiene el saldo corrido por bodega de un producto mientras se recorre el kardex.
type Replayer struct {
	byWarehouse map[string]decimal.Decimal
	total       decimal.Decimal
}

// NewReplayer inicia todos los saldos en cero.
func NewReplayer() *Replayer {
	return &Replayer{byWarehouse: make(map[string]decimal.Decimal)}
}

// Step aplica el movimiento y devuelve la entrada de kardex con el saldo resultante.
func (r *Replayer) Step(m *entity.MovementRecord) entity.KardexEntry {
	prev := r.byWarehouse[m.WarehouseID]
	next := Apply(prev, m.Type, m.Quantity)
	r.byWarehouse[m.WarehouseID] = next
	r.total = r.total.Sub(prev).Add(next)
	return entity.KardexEntry{Movement: *m, Balance: next, ProductBalance: r.total}
}

// Balance saldo actual reconstruido para la bodega.
func (r *Replayer) Balance(warehouseID string) decimal.Decimal {
	return r.byWarehouse[warehouseID]
}

// Replay recorre los movimientos en orden y produce pares (entrada, error).
// La secuencia es perezosa y reiniciable: cada recorrido vuelve a leer desde src.
func Replay(src iter.Seq2[*entity.MovementRecord, error]) iter.Seq2[entity.KardexEntry, error] {
	return func(yield func(entity.KardexEntry, error) bool) {
		r := NewReplayer()
		for m, err := range src {
			if err != nil {
				yield(entity.KardexEntry{}, err)
				return
			}
			if !yield(r.Step(m), nil) {
				return
			}
		}
	}
}

// FinalBalances reconstruye el saldo final por par producto+bodega.
func FinalBalances(movements []*entity.MovementRecord) map[entity.StockKey]decimal.Decimal {
	out := make(map[entity.StockKey]decimal.Decimal)
	for _, m := range movements {
		k := entity.StockKey{ProductID: m.ProductID, WarehouseID: m.WarehouseID}
		out[k] = Apply(out[k], m.Type, m.Quantity)
	}
	return out
}

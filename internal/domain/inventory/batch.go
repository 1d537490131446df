package inventory

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// BatchLine línea de un envío múltiple de movimientos.
type BatchLine struct {
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	Notes       string
}

// CheckLines valida la forma de las líneas de un lote del tipo dado, antes de tocar la BD:
// ids presentes, cantidades positivas (ADJUSTMENT admite cero) y pares producto+bodega sin repetir.
// Line en cada falla es la posición (base 0) dentro del lote.
func CheckLines(t entity.MovementType, lines []BatchLine) []domain.LineFailure {
	var failures []domain.LineFailure
	seen := make(map[entity.StockKey]int, len(lines))
	for i, l := range lines {
		if l.ProductID == "" || l.WarehouseID == "" {
			failures = append(failures, domain.LineFailure{
				Line: i, ProductID: l.ProductID, WarehouseID: l.WarehouseID,
				Code: domain.FailureInvalidLine, Message: "product_id y warehouse_id son obligatorios",
			})
			continue
		}
		if !QuantityAllowed(t, l.Quantity) {
			failures = append(failures, domain.LineFailure{
				Line: i, ProductID: l.ProductID, WarehouseID: l.WarehouseID,
				Code: domain.FailureInvalidQuantity, Message: "la cantidad debe ser positiva",
			})
		} else if !WithinScale(l.Quantity) {
			failures = append(failures, domain.LineFailure{
				Line: i, ProductID: l.ProductID, WarehouseID: l.WarehouseID,
				Code:    domain.FailureInvalidQuantity,
				Message: fmt.Sprintf("máximo %d decimales", QuantityScale),
			})
		}
		k := entity.StockKey{ProductID: l.ProductID, WarehouseID: l.WarehouseID}
		if first, dup := seen[k]; dup {
			failures = append(failures, domain.LineFailure{
				Line: i, ProductID: l.ProductID, WarehouseID: l.WarehouseID,
				Code:    domain.FailureDuplicateLine,
				Message: fmt.Sprintf("par producto/bodega repetido (línea %d)", first),
			})
			continue
		}
		seen[k] = i
	}
	return failures
}

// QuantityAllowed IN y OUT exigen cantidad > 0; ADJUSTMENT acepta >= 0 (un conteo físico puede ser cero).
func QuantityAllowed(t entity.MovementType, qty decimal.Decimal) bool {
	if t == entity.MovementTypeADJUSTMENT {
		return !qty.IsNegative()
	}
	return qty.IsPositive()
}

// QuantityScale decimales que admite la columna NUMERIC(18,4) de movimientos y stock.
const QuantityScale = 4

// WithinScale indica si la cantidad cabe en QuantityScale decimales sin redondeo.
// Un cero a la derecha no cuenta: 1.50000 es válido.
func WithinScale(qty decimal.Decimal) bool {
	return qty.Equal(qty.Truncate(QuantityScale))
}

// Aggregate suma la cantidad solicitada por par producto+bodega.
func Aggregate(lines []BatchLine) map[entity.StockKey]decimal.Decimal {
	out := make(map[entity.StockKey]decimal.Decimal, len(lines))
	for _, l := range lines {
		k := entity.StockKey{ProductID: l.ProductID, WarehouseID: l.WarehouseID}
		out[k] = out[k].Add(l.Quantity)
	}
	return out
}

// CheckAvailability compara el total solicitado por par contra lo disponible y
// devuelve una falla por cada línea de un par sin stock suficiente.
func CheckAvailability(lines []BatchLine, available map[entity.StockKey]decimal.Decimal) []domain.LineFailure {
	requested := Aggregate(lines)
	var failures []domain.LineFailure
	for i, l := range lines {
		k := entity.StockKey{ProductID: l.ProductID, WarehouseID: l.WarehouseID}
		avail := available[k]
		req := requested[k]
		if req.GreaterThan(avail) {
			a, r := avail, req
			failures = append(failures, domain.LineFailure{
				Line: i, ProductID: l.ProductID, WarehouseID: l.WarehouseID,
				Code: domain.FailureInsufficientStock, Message: "stock insuficiente",
				Available: &a, Requested: &r,
			})
		}
	}
	return failures
}

// SortedKeys devuelve los pares en orden determinista (producto, bodega) para tomar bloqueos sin interbloqueos.
func SortedKeys(keys map[entity.StockKey]decimal.Decimal) []entity.StockKey {
	out := make([]entity.StockKey, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	SortKeys(out)
	return out
}

// SortKeys ordena los pares in-place.
func SortKeys(keys []entity.StockKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ProductID != keys[j].ProductID {
			return keys[i].ProductID < keys[j].ProductID
		}
		return keys[i].WarehouseID < keys[j].WarehouseID
	})
}

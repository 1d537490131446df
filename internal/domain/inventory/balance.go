// Package inventory contiene las reglas puras del kardex: efecto de cada tipo de movimiento
// sobre el saldo, validación de lotes y reconstrucción del saldo histórico.
package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// Apply devuelve el saldo tras aplicar un movimiento:
// IN suma, OUT resta, ADJUSTMENT reemplaza el saldo (absoluto, no delta).
// No recorta en cero: la protección de salidas ocurre antes, en el chequeo de disponibilidad.
func Apply(balance decimal.Decimal, t entity.MovementType, qty decimal.Decimal) decimal.Decimal {
	switch t {
	case entity.MovementTypeIN:
		return balance.Add(qty)
	case entity.MovementTypeOUT:
		return balance.Sub(qty)
	case entity.MovementTypeADJUSTMENT:
		return qty
	}
	return balance
}

// IsOutbound indica si el tipo retira stock y requiere chequeo de disponibilidad.
func IsOutbound(t entity.MovementType) bool {
	return t == entity.MovementTypeOUT
}

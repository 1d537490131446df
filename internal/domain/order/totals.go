package order

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// normalizeRate acepta tasas expresadas como fracción (0.19) o porcentaje (19).
func normalizeRate(rate decimal.Decimal) decimal.Decimal {
	if rate.GreaterThan(decimal.NewFromInt(1)) {
		return rate.Div(decimal.NewFromInt(100))
	}
	return rate
}

// PriceLine calcula impuesto y total de la línea: total = qty × precio + impuesto.
func PriceLine(line *entity.OrderLine) {
	line.TaxRate = normalizeRate(line.TaxRate)
	net := line.Quantity.Mul(line.UnitPrice)
	line.TaxAmount = net.Mul(line.TaxRate).Round(2)
	line.LineTotal = net.Add(line.TaxAmount)
}

// Recompute recalcula subtotal, impuestos y total desde todas las líneas actuales.
// Nunca se parchea incrementalmente para evitar deriva.
func Recompute(o *entity.Order, lines []*entity.OrderLine) {
	subtotal, tax := decimal.Zero, decimal.Zero
	for _, l := range lines {
		PriceLine(l)
		subtotal = subtotal.Add(l.Quantity.Mul(l.UnitPrice))
		tax = tax.Add(l.TaxAmount)
	}
	o.Subtotal = subtotal
	o.TaxTotal = tax
	o.Total = subtotal.Add(tax)
	o.Lines = lines
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento de inventario.
type MovementType string

const (
	MovementTypeIN         MovementType = "IN"         // entrada
	MovementTypeOUT        MovementType = "OUT"        // salida
	MovementTypeADJUSTMENT MovementType = "ADJUSTMENT" // ajuste absoluto: fija el saldo
)

// Valid indica si el tipo pertenece al conjunto cerrado {IN, OUT, ADJUSTMENT}.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeIN, MovementTypeOUT, MovementTypeADJUSTMENT:
		return true
	}
	return false
}

// Tipos de documento que originan movimientos.
const (
	ReferencePurchaseOrder = "PURCHASE_ORDER"
	ReferenceSalesOrder    = "SALES_ORDER"
	ReferenceTransfer      = "TRANSFER"
)

// MovementRecord evento inmutable del kardex. Nunca se actualiza ni se borra:
// las correcciones son nuevos registros compensatorios.
// Quantity siempre es >= 0; el efecto lo determina Type.
type MovementRecord struct {
	ID            string          `db:"id"`
	Seq           int64           `db:"seq"` // orden total de inserción, desempata OccurredAt
	TransactionID string          `db:"transaction_id"`
	ProductID     string          `db:"product_id"`
	WarehouseID   string          `db:"warehouse_id"`
	Type          MovementType    `db:"type"`
	Quantity      decimal.Decimal `db:"quantity"`
	ReasonCode    string          `db:"reason_code"`
	ReferenceKind string          `db:"reference_kind"`
	ReferenceID   string          `db:"reference_id"`
	Notes         string          `db:"notes"`
	OccurredAt    time.Time       `db:"occurred_at"`
	CreatedBy     string          `db:"created_by"`
}

package entity

// Reason motivo codificado que justifica un movimiento, restringido a los tipos para los que es válido.
type Reason struct {
	Code        string
	Description string
	Types       []MovementType
}

// AppliesTo indica si el motivo es válido para el tipo de movimiento.
func (r *Reason) AppliesTo(t MovementType) bool {
	for _, allowed := range r.Types {
		if allowed == t {
			return true
		}
	}
	return false
}

// Motivos sembrados por la migración inicial.
const (
	ReasonPurchaseReceipt = "PURCHASE_RECEIPT"
	ReasonSalesDelivery   = "SALES_DELIVERY"
	ReasonTransferIn      = "TRANSFER_IN"
	ReasonTransferOut     = "TRANSFER_OUT"
	ReasonCustomerReturn  = "CUSTOMER_RETURN"
	ReasonDamage          = "DAMAGE"
	ReasonInternalUse     = "INTERNAL_USE"
	ReasonPhysicalCount   = "PHYSICAL_COUNT"
	ReasonOpeningBalance  = "OPENING_BALANCE"
)

// DefaultReasons catálogo base de motivos (mismo contenido que la semilla SQL).
func DefaultReasons() []*Reason {
	return []*Reason{
		{Code: ReasonPurchaseReceipt, Description: "Recepción de orden de compra", Types: []MovementType{MovementTypeIN}},
		{Code: ReasonSalesDelivery, Description: "Entrega de orden de venta", Types: []MovementType{MovementTypeOUT}},
		{Code: ReasonTransferIn, Description: "Traslado entrante", Types: []MovementType{MovementTypeIN}},
		{Code: ReasonTransferOut, Description: "Traslado saliente", Types: []MovementType{MovementTypeOUT}},
		{Code: ReasonCustomerReturn, Description: "Devolución de cliente", Types: []MovementType{MovementTypeIN}},
		{Code: ReasonDamage, Description: "Avería o merma", Types: []MovementType{MovementTypeOUT}},
		{Code: ReasonInternalUse, Description: "Consumo interno", Types: []MovementType{MovementTypeOUT}},
		{Code: ReasonPhysicalCount, Description: "Conteo físico", Types: []MovementType{MovementTypeADJUSTMENT}},
		{Code: ReasonOpeningBalance, Description: "Saldo inicial", Types: []MovementType{MovementTypeIN, MovementTypeADJUSTMENT}},
	}
}

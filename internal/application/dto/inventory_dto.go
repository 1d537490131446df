package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
type RegisterMovementRequest struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Type        string          `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	ReasonCode  string          `json:"reason_code"`
	Notes       string          `json:"notes,omitempty"`
}

// BatchLineRequest línea de un envío múltiple.
type BatchLineRequest struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Notes       string          `json:"notes,omitempty"`
}

// RegisterBatchRequest body para POST /api/inventory/movements/batch.
// Todas las líneas comparten tipo y motivo; se aplican todas o ninguna.
type RegisterBatchRequest struct {
	Type       string             `json:"type"`
	ReasonCode string             `json:"reason_code"`
	Lines      []BatchLineRequest `json:"lines"`
}

// TransferRequest body para POST /api/inventory/transfers.
type TransferRequest struct {
	ProductID       string          `json:"product_id"`
	FromWarehouseID string          `json:"from_warehouse_id"`
	ToWarehouseID   string          `json:"to_warehouse_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	Notes           string          `json:"notes,omitempty"`
}

// MovementResponse salida de un movimiento del kardex.
type MovementResponse struct {
	ID            string          `json:"id"`
	Seq           int64           `json:"seq"`
	TransactionID string          `json:"transaction_id"`
	ProductID     string          `json:"product_id"`
	WarehouseID   string          `json:"warehouse_id"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	ReasonCode    string          `json:"reason_code"`
	ReferenceKind string          `json:"reference_kind,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CreatedBy     string          `json:"created_by,omitempty"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// StockLevelResponse saldo actual de un par producto+bodega.
type StockLevelResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AvailabilityResponse stock, reservado por ventas abiertas y disponible.
type AvailabilityResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	OnHand      decimal.Decimal `json:"on_hand"`
	Reserved    decimal.Decimal `json:"reserved"`
	Available   decimal.Decimal `json:"available"`
}

// LowStockResponse par en o por debajo del mínimo.
type LowStockResponse struct {
	ProductID   string          `json:"product_id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinStock    decimal.Decimal `json:"min_stock"`
}

// KardexEntryResponse movimiento con el saldo corrido tras aplicarlo.
type KardexEntryResponse struct {
	MovementResponse
	Balance        decimal.Decimal `json:"balance"`
	ProductBalance decimal.Decimal `json:"product_balance"`
}

// KardexResponse historial reconstruido de un producto (opcionalmente de una bodega).
type KardexResponse struct {
	ProductID   string                `json:"product_id"`
	WarehouseID string                `json:"warehouse_id,omitempty"`
	Entries     []KardexEntryResponse `json:"entries"`
}

// ReconciliationResponse resultado de comparar el agregado contra el kardex reproducido.
type ReconciliationResponse struct {
	Consistent bool                `json:"consistent"`
	Drift      []entity.StockDrift `json:"drift"`
}

// ToMovementResponse mapea la entidad al DTO.
func ToMovementResponse(m *entity.MovementRecord) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		Seq:           m.Seq,
		TransactionID: m.TransactionID,
		ProductID:     m.ProductID,
		WarehouseID:   m.WarehouseID,
		Type:          string(m.Type),
		Quantity:      m.Quantity,
		ReasonCode:    m.ReasonCode,
		ReferenceKind: m.ReferenceKind,
		ReferenceID:   m.ReferenceID,
		Notes:         m.Notes,
		OccurredAt:    m.OccurredAt,
		CreatedBy:     m.CreatedBy,
	}
}

// ToMovementResponses mapea una lista de movimientos.
func ToMovementResponses(movs []*entity.MovementRecord) []MovementResponse {
	out := make([]MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, ToMovementResponse(m))
	}
	return out
}

// ToStockLevelResponses mapea niveles de stock.
func ToStockLevelResponses(levels []*entity.StockLevel) []StockLevelResponse {
	out := make([]StockLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, StockLevelResponse{
			ProductID:   l.ProductID,
			WarehouseID: l.WarehouseID,
			Quantity:    l.Quantity,
			UpdatedAt:   l.UpdatedAt,
		})
	}
	return out
}

// ToLowStockResponses mapea el reporte de bajo stock.
func ToLowStockResponses(items []entity.LowStockItem) []LowStockResponse {
	out := make([]LowStockResponse, 0, len(items))
	for _, it := range items {
		out = append(out, LowStockResponse{
			ProductID:   it.ProductID,
			SKU:         it.SKU,
			ProductName: it.ProductName,
			WarehouseID: it.WarehouseID,
			Quantity:    it.Quantity,
			MinStock:    it.MinStock,
		})
	}
	return out
}

// ToAvailabilityResponse mapea la disponibilidad.
func ToAvailabilityResponse(a entity.Availability) AvailabilityResponse {
	return AvailabilityResponse{
		ProductID:   a.ProductID,
		WarehouseID: a.WarehouseID,
		OnHand:      a.OnHand,
		Reserved:    a.Reserved,
		Available:   a.Available,
	}
}

// ToKardexEntryResponse mapea una entrada del kardex reconstruido.
func ToKardexEntryResponse(e entity.KardexEntry) KardexEntryResponse {
	return KardexEntryResponse{
		MovementResponse: ToMovementResponse(&e.Movement),
		Balance:          e.Balance,
		ProductBalance:   e.ProductBalance,
	}
}

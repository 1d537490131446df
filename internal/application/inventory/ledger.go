package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/inventory"
)

// Ledger kardex de solo inserción: valida y persiste movimientos inmutables.
// No expone update ni delete; las correcciones son movimientos compensatorios.
type Ledger struct {
	now func() time.Time
}

// NewLedger construye el kardex con el reloj del sistema.
func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

// Validate comprueba tipo, cantidad, existencia de producto/bodega/motivo y que el motivo aplique al tipo.
func (l *Ledger) Validate(ctx context.Context, repos TxRepos, m *entity.MovementRecord) error {
	if !m.Type.Valid() {
		return domain.NewValidationError("type", "debe ser IN, OUT o ADJUSTMENT")
	}
	if err := checkQuantity(m.Type, m.Quantity); err != nil {
		return err
	}
	if m.ProductID == "" || m.WarehouseID == "" {
		return domain.NewValidationError("product_id", "product_id y warehouse_id son obligatorios")
	}
	product, err := repos.Products.GetByID(ctx, m.ProductID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return domain.NewValidationError("product_id", "producto desconocido")
	}
	wh, err := repos.Warehouses.GetByID(ctx, m.WarehouseID)
	if err != nil {
		return fmt.Errorf("get warehouse: %w", err)
	}
	if wh == nil {
		return domain.NewValidationError("warehouse_id", "bodega desconocida")
	}
	return l.validateReason(ctx, repos, m.ReasonCode, m.Type)
}

func (l *Ledger) validateReason(ctx context.Context, repos TxRepos, code string, t entity.MovementType) error {
	if code == "" {
		return domain.NewValidationError("reason_code", "motivo obligatorio")
	}
	reason, err := repos.Reasons.GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("get reason: %w", err)
	}
	if reason == nil {
		return domain.NewValidationError("reason_code", "motivo desconocido")
	}
	if !reason.AppliesTo(t) {
		return domain.NewValidationError("reason_code", fmt.Sprintf("el motivo %s no aplica a %s", code, t))
	}
	return nil
}

// Append persiste los movimientos en una sola inserción, asignando id y fecha.
// Producto, bodega y motivo ya fueron validados por el llamador dentro de la misma transacción;
// aquí solo se repiten los chequeos que no tocan la BD.
// Debe llamarse dentro de la transacción que luego actualiza el agregado.
func (l *Ledger) Append(ctx context.Context, repos TxRepos, movements ...*entity.MovementRecord) error {
	if len(movements) == 0 {
		return nil
	}
	now := l.now().UTC()
	for _, m := range movements {
		if !m.Type.Valid() {
			return domain.NewValidationError("type", "debe ser IN, OUT o ADJUSTMENT")
		}
		if err := checkQuantity(m.Type, m.Quantity); err != nil {
			return err
		}
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if m.OccurredAt.IsZero() {
			m.OccurredAt = now
		}
	}
	if len(movements) == 1 {
		return repos.Movements.Create(ctx, movements[0])
	}
	return repos.Movements.CreateMany(ctx, movements)
}

func checkQuantity(t entity.MovementType, qty decimal.Decimal) error {
	if !inventory.QuantityAllowed(t, qty) {
		return domain.NewValidationError("quantity", "la cantidad debe ser positiva")
	}
	if !inventory.WithinScale(qty) {
		return domain.NewValidationError("quantity", fmt.Sprintf("máximo %d decimales", inventory.QuantityScale))
	}
	return nil
}

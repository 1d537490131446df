package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/inventario-kardex/internal/domain/inventory"
	"github.com/jhoicas/inventario-kardex/pkg/logger"
)

// RegisterMovementUseCase registra movimientos de inventario de forma transaccional
// (individual, por lote y traslados) con bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback.
type RegisterMovementUseCase struct {
	txRunner     TxRunner
	ledger       *Ledger
	aggregator   StockAggregator
	availability AvailabilityChecker
	validator    BatchValidator
	publisher    EventPublisher
	metrics      Metrics
	log          *logger.Logger
}

// NewRegisterMovementUseCase construye el caso de uso. publisher y metrics pueden ser nil.
func NewRegisterMovementUseCase(txRunner TxRunner, publisher EventPublisher, metrics Metrics, log *logger.Logger) *RegisterMovementUseCase {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &RegisterMovementUseCase{
		txRunner:  txRunner,
		ledger:    NewLedger(),
		publisher: publisher,
		metrics:   metrics,
		log:       log.Component("inventory"),
	}
}

// MovementInputDTO entrada para registrar un movimiento individual.
type MovementInputDTO struct {
	UserID      string
	ProductID   string
	WarehouseID string
	Type        entity.MovementType
	Quantity    decimal.Decimal
	ReasonCode  string
	Notes       string
}

// BatchInputDTO envío múltiple de un mismo tipo y motivo.
type BatchInputDTO struct {
	UserID     string
	Type       entity.MovementType
	ReasonCode string
	Lines      []inventory.BatchLine
}

// TransferInputDTO traslado entre bodegas.
type TransferInputDTO struct {
	UserID          string
	ProductID       string
	FromWarehouseID string
	ToWarehouseID   string
	Quantity        decimal.Decimal
	Notes           string
}

// RegisterMovement inicia una transacción, valida, bloquea la fila de stock, chequea disponibilidad
// si es salida, inserta en el kardex y actualiza el agregado; Commit o Rollback.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, input MovementInputDTO) (mov *entity.MovementRecord, err error) {
	const op = "register_movement"
	start := time.Now()
	ctx, span := tracer.Start(ctx, "inventory.RegisterMovement", trace.WithAttributes(
		attribute.String("product.id", input.ProductID),
		attribute.String("warehouse.id", input.WarehouseID),
		attribute.String("movement.type", string(input.Type)),
	))
	defer func() { EndSpan(span, err) }()

	mov = &entity.MovementRecord{
		TransactionID: uuid.New().String(),
		ProductID:     input.ProductID,
		WarehouseID:   input.WarehouseID,
		Type:          input.Type,
		Quantity:      input.Quantity,
		ReasonCode:    input.ReasonCode,
		Notes:         input.Notes,
		CreatedBy:     input.UserID,
	}
	err = uc.txRunner.Run(ctx, func(repos TxRepos) error {
		if err := uc.ledger.Validate(ctx, repos, mov); err != nil {
			return err
		}
		// La fila de stock se bloquea antes de insertar: el seq del kardex debe seguir
		// el mismo orden en que se aplica el agregado, sea cual sea el tipo.
		if err := uc.aggregator.Lock(ctx, repos.Stock, []entity.StockKey{
			{ProductID: mov.ProductID, WarehouseID: mov.WarehouseID},
		}); err != nil {
			return err
		}
		if inventory.IsOutbound(mov.Type) {
			if err := uc.availability.Require(ctx, repos, mov.ProductID, mov.WarehouseID, mov.Quantity, ""); err != nil {
				return err
			}
		}
		if err := uc.ledger.Append(ctx, repos, mov); err != nil {
			return err
		}
		_, err := uc.aggregator.ApplyMovement(ctx, repos.Stock, mov)
		return err
	})
	if err != nil {
		uc.reject(op, err)
		return nil, err
	}
	uc.committed(ctx, op, start, []*entity.MovementRecord{mov})
	return mov, nil
}

// RegisterBatch valida el lote completo y, solo si todo pasa, persiste todas las líneas en una transacción.
func (uc *RegisterMovementUseCase) RegisterBatch(ctx context.Context, input BatchInputDTO) (movs []*entity.MovementRecord, err error) {
	const op = "register_batch"
	start := time.Now()
	ctx, span := tracer.Start(ctx, "inventory.RegisterBatch", trace.WithAttributes(
		attribute.String("movement.type", string(input.Type)),
		attribute.Int("batch.lines", len(input.Lines)),
	))
	defer func() { EndSpan(span, err) }()

	txID := uuid.New().String()
	err = uc.txRunner.Run(ctx, func(repos TxRepos) error {
		if err := uc.ledger.validateReason(ctx, repos, input.ReasonCode, input.Type); err != nil {
			return err
		}
		if err := uc.validator.Validate(ctx, repos, input.Type, input.Lines, ""); err != nil {
			return err
		}
		keys := make([]entity.StockKey, 0, len(input.Lines))
		batch := make([]*entity.MovementRecord, 0, len(input.Lines))
		for _, l := range input.Lines {
			keys = append(keys, entity.StockKey{ProductID: l.ProductID, WarehouseID: l.WarehouseID})
			batch = append(batch, &entity.MovementRecord{
				TransactionID: txID,
				ProductID:     l.ProductID,
				WarehouseID:   l.WarehouseID,
				Type:          input.Type,
				Quantity:      l.Quantity,
				ReasonCode:    input.ReasonCode,
				Notes:         l.Notes,
				CreatedBy:     input.UserID,
			})
		}
		if err := uc.aggregator.Lock(ctx, repos.Stock, keys); err != nil {
			return err
		}
		if err := uc.ledger.Append(ctx, repos, batch...); err != nil {
			return err
		}
		for _, m := range batch {
			if _, err := uc.aggregator.ApplyMovement(ctx, repos.Stock, m); err != nil {
				return err
			}
		}
		movs = batch
		return nil
	})
	if err != nil {
		uc.reject(op, err)
		return nil, err
	}
	uc.committed(ctx, op, start, movs)
	return movs, nil
}

// Transfer resta de la bodega origen y suma en la destino en la misma transacción:
// dos movimientos con igual cantidad (OUT en origen, IN en destino) o ninguno.
func (uc *RegisterMovementUseCase) Transfer(ctx context.Context, input TransferInputDTO) (movs []*entity.MovementRecord, err error) {
	const op = "transfer"
	start := time.Now()
	ctx, span := tracer.Start(ctx, "inventory.Transfer", trace.WithAttributes(
		attribute.String("product.id", input.ProductID),
		attribute.String("warehouse.from", input.FromWarehouseID),
		attribute.String("warehouse.to", input.ToWarehouseID),
	))
	defer func() { EndSpan(span, err) }()

	if input.FromWarehouseID == input.ToWarehouseID {
		err = domain.NewValidationError("to_warehouse_id", "origen y destino deben ser distintos")
		uc.reject(op, err)
		return nil, err
	}
	if !input.Quantity.IsPositive() {
		err = domain.NewValidationError("quantity", "la cantidad debe ser positiva")
		uc.reject(op, err)
		return nil, err
	}

	txID := uuid.New().String()
	outMov := &entity.MovementRecord{
		TransactionID: txID,
		ProductID:     input.ProductID,
		WarehouseID:   input.FromWarehouseID,
		Type:          entity.MovementTypeOUT,
		Quantity:      input.Quantity,
		ReasonCode:    entity.ReasonTransferOut,
		ReferenceKind: entity.ReferenceTransfer,
		ReferenceID:   txID,
		Notes:         input.Notes,
		CreatedBy:     input.UserID,
	}
	inMov := *outMov
	inMov.WarehouseID = input.ToWarehouseID
	inMov.Type = entity.MovementTypeIN
	inMov.ReasonCode = entity.ReasonTransferIn

	err = uc.txRunner.Run(ctx, func(repos TxRepos) error {
		if err := uc.ledger.Validate(ctx, repos, outMov); err != nil {
			return err
		}
		if err := uc.ledger.Validate(ctx, repos, &inMov); err != nil {
			return err
		}
		// Bloqueo de ambas filas en orden fijo antes de leer disponibilidad.
		if err := uc.aggregator.Lock(ctx, repos.Stock, []entity.StockKey{
			{ProductID: input.ProductID, WarehouseID: input.FromWarehouseID},
			{ProductID: input.ProductID, WarehouseID: input.ToWarehouseID},
		}); err != nil {
			return err
		}
		if err := uc.availability.Require(ctx, repos, input.ProductID, input.FromWarehouseID, input.Quantity, ""); err != nil {
			return err
		}
		if err := uc.ledger.Append(ctx, repos, outMov, &inMov); err != nil {
			return err
		}
		if _, err := uc.aggregator.ApplyMovement(ctx, repos.Stock, outMov); err != nil {
			return err
		}
		_, err := uc.aggregator.ApplyMovement(ctx, repos.Stock, &inMov)
		return err
	})
	if err != nil {
		uc.reject(op, err)
		return nil, err
	}
	movs = []*entity.MovementRecord{outMov, &inMov}
	uc.committed(ctx, op, start, movs)
	return movs, nil
}

func (uc *RegisterMovementUseCase) reject(op string, err error) {
	code := domain.Code(err)
	uc.metrics.OperationRejected(op, code)
	ev := uc.log.Warn()
	if code == "INTERNAL" {
		ev = uc.log.Error()
	}
	ev.Err(err).Str("operation", op).Str("code", code).Msg("operación de inventario rechazada")
}

func (uc *RegisterMovementUseCase) committed(ctx context.Context, op string, start time.Time, movs []*entity.MovementRecord) {
	uc.metrics.ObserveDuration(op, time.Since(start))
	uc.metrics.MovementsAppended(movs)
	uc.log.Info().
		Str("operation", op).
		Str("transaction_id", movs[0].TransactionID).
		Int("movements", len(movs)).
		Msg("movimientos registrados")
	if err := uc.publisher.PublishMovements(ctx, movs); err != nil {
		uc.log.Error().Err(err).Str("operation", op).Msg("publicar eventos de stock")
	}
}

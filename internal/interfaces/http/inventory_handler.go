package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-kardex/internal/application/dto"
	"github.com/jhoicas/inventario-kardex/internal/application/inventory"
	"github.com/jhoicas/inventario-kardex/internal/domain"
	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
	dominv "github.com/jhoicas/inventario-kardex/internal/domain/inventory"
	"github.com/jhoicas/inventario-kardex/internal/domain/repository"
)

// InventoryHandler maneja las peticiones HTTP de movimientos, stock y kardex (protegido).
type InventoryHandler struct {
	movements *inventory.RegisterMovementUseCase
	stock     *inventory.StockQueryUseCase
	kardex    *inventory.KardexUseCase
	reconcile *inventory.ReconcileUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	movements *inventory.RegisterMovementUseCase,
	stock *inventory.StockQueryUseCase,
	kardex *inventory.KardexUseCase,
	reconcile *inventory.ReconcileUseCase,
) *InventoryHandler {
	return &InventoryHandler{movements: movements, stock: stock, kardex: kardex, reconcile: reconcile}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, warehouse_id, type (IN|OUT|ADJUSTMENT), quantity, reason_code"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	mov, err := h.movements.RegisterMovement(c.Context(), inventory.MovementInputDTO{
		UserID:      userID,
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Type:        entity.MovementType(in.Type),
		Quantity:    in.Quantity,
		ReasonCode:  in.ReasonCode,
		Notes:       in.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementResponse(mov))
}

// RegisterBatch godoc
// @Summary      Registrar lote de movimientos (todo o nada)
// @Description  Si una línea falla no se registra ninguna; la respuesta 400 trae la falla de cada línea.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterBatchRequest  true  "type, reason_code, lines"
// @Success      201   {array}   dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/batch [post]
func (h *InventoryHandler) RegisterBatch(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.RegisterBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	lines := make([]dominv.BatchLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, dominv.BatchLine{
			ProductID:   l.ProductID,
			WarehouseID: l.WarehouseID,
			Quantity:    l.Quantity,
			Notes:       l.Notes,
		})
	}
	movs, err := h.movements.RegisterBatch(c.Context(), inventory.BatchInputDTO{
		UserID:     userID,
		Type:       entity.MovementType(in.Type),
		ReasonCode: in.ReasonCode,
		Lines:      lines,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementResponses(movs))
}

// Transfer godoc
// @Summary      Traslado entre bodegas
// @Description  Registra la salida y la entrada en una sola transacción.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "product_id, from_warehouse_id, to_warehouse_id, quantity"
// @Success      201   {array}   dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	movs, err := h.movements.Transfer(c.Context(), inventory.TransferInputDTO{
		UserID:          userID,
		ProductID:       in.ProductID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Quantity:        in.Quantity,
		Notes:           in.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementResponses(movs))
}

// GetStock godoc
// @Summary      Stock actual
// @Description  Con product_id y warehouse_id devuelve stock, reservado y disponible; si no, lista niveles.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "Producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Success      200  {object}  dto.AvailabilityResponse
// @Router       /api/inventory/stock [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	productID, warehouseID := c.Query("product_id"), c.Query("warehouse_id")
	if productID != "" && warehouseID != "" {
		a, err := h.stock.Availability(c.Context(), productID, warehouseID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(dto.ToAvailabilityResponse(a))
	}
	levels, err := h.stock.Levels(c.Context(), productID, warehouseID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": dto.ToStockLevelResponses(levels)})
}

// GetLowStock godoc
// @Summary      Productos en o por debajo del mínimo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega"
// @Success      200  {array}  dto.LowStockResponse
// @Router       /api/inventory/stock/low [get]
func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	items, err := h.stock.LowStock(c.Context(), c.Query("warehouse_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(items), "items": dto.ToLowStockResponses(items)})
}

// ListMovements godoc
// @Summary      Listado del kardex (más recientes primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "Producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        from          query  string  false  "RFC3339, inclusive"
// @Param        to            query  string  false  "RFC3339, exclusivo"
// @Param        limit         query  int     false  "Máximo 500"
// @Param        offset        query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	filter := repository.MovementFilter{
		ProductID:   c.Query("product_id"),
		WarehouseID: c.Query("warehouse_id"),
		Limit:       c.QueryInt("limit", 50),
		Offset:      c.QueryInt("offset", 0),
	}
	var err error
	if filter.From, err = parseTime(c.Query("from")); err != nil {
		return respondError(c, domain.NewValidationError("from", "fecha RFC3339 inválida"))
	}
	if filter.To, err = parseTime(c.Query("to")); err != nil {
		return respondError(c, domain.NewValidationError("to", "fecha RFC3339 inválida"))
	}
	movs, err := h.stock.Movements(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MovementListResponse{
		Items: dto.ToMovementResponses(movs),
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	})
}

// GetKardex godoc
// @Summary      Kardex reconstruido de un producto
// @Description  Reproduce los movimientos en orden y devuelve cada uno con el saldo resultante.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    path   string  true   "Producto"
// @Param        warehouse_id  query  string  false  "Bodega (vacío = todas)"
// @Param        limit         query  int     false  "Cortar tras N entradas"
// @Success      200  {object}  dto.KardexResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/kardex/{product_id} [get]
func (h *InventoryHandler) GetKardex(c *fiber.Ctx) error {
	productID, warehouseID := c.Params("product_id"), c.Query("warehouse_id")
	limit := c.QueryInt("limit", 0)
	seq, err := h.kardex.Reconstruct(c.Context(), productID, warehouseID)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.KardexResponse{ProductID: productID, WarehouseID: warehouseID, Entries: []dto.KardexEntryResponse{}}
	for entry, err := range seq {
		if err != nil {
			return respondError(c, err)
		}
		out.Entries = append(out.Entries, dto.ToKardexEntryResponse(entry))
		if limit > 0 && len(out.Entries) >= limit {
			break
		}
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Reconciliar agregado contra kardex
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ReconciliationResponse
// @Router       /api/inventory/reconciliation [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	drift, err := h.reconcile.Run(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	if drift == nil {
		drift = []entity.StockDrift{}
	}
	return c.JSON(dto.ReconciliationResponse{Consistent: len(drift) == 0, Drift: drift})
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	// fecha sola: 2026-03-01
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}


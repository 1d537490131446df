package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-kardex/internal/application/dto"
	"github.com/jhoicas/inventario-kardex/internal/application/reference"
)

// ReferenceHandler lectura de productos, bodegas y motivos.
type ReferenceHandler struct {
	uc *reference.UseCase
}

// NewReferenceHandler construye el handler.
func NewReferenceHandler(uc *reference.UseCase) *ReferenceHandler {
	return &ReferenceHandler{uc: uc}
}

// ListProducts godoc
// @Summary      Listar productos
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  dto.ProductListResponse
// @Router       /api/products [get]
func (h *ReferenceHandler) ListProducts(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	list, err := h.uc.ListProducts(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, dto.ToProductResponse(p))
	}
	return c.JSON(dto.ProductListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// GetProduct godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ReferenceHandler) GetProduct(c *fiber.Ctx) error {
	p, err := h.uc.GetProduct(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToProductResponse(p))
}

// ListWarehouses godoc
// @Summary      Listar bodegas
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.WarehouseListResponse
// @Router       /api/warehouses [get]
func (h *ReferenceHandler) ListWarehouses(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	list, err := h.uc.ListWarehouses(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, dto.ToWarehouseResponse(w))
	}
	return c.JSON(dto.WarehouseListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// ListReasons godoc
// @Summary      Listar motivos de movimiento
// @Tags         reasons
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ReasonResponse
// @Router       /api/reasons [get]
func (h *ReferenceHandler) ListReasons(c *fiber.Ctx) error {
	list, err := h.uc.ListReasons(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.ReasonResponse, 0, len(list))
	for _, r := range list {
		items = append(items, dto.ToReasonResponse(r))
	}
	return c.JSON(items)
}

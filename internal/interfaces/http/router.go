package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/inventario-kardex/internal/application/inventory"
	"github.com/jhoicas/inventario-kardex/internal/application/orders"
	"github.com/jhoicas/inventario-kardex/internal/application/reference"
	"github.com/jhoicas/inventario-kardex/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	RegisterMovement *inventory.RegisterMovementUseCase
	StockQuery       *inventory.StockQueryUseCase
	Kardex           *inventory.KardexUseCase
	Reconcile        *inventory.ReconcileUseCase
	Orders           *orders.OrderUseCase
	Reference        *reference.UseCase
	JWTSecret        string
	// Gatherer expone /metrics si no es nil.
	Gatherer prometheus.Gatherer
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero, jwt.RoleVendedor)
	stockWriters := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)

	// Datos de referencia
	refHandler := NewReferenceHandler(deps.Reference)
	protected.Get("/products", anyRole, refHandler.ListProducts)
	protected.Get("/products/:id", anyRole, refHandler.GetProduct)
	protected.Get("/warehouses", anyRole, refHandler.ListWarehouses)
	protected.Get("/reasons", anyRole, refHandler.ListReasons)

	// Inventario
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.RegisterMovement, deps.StockQuery, deps.Kardex, deps.Reconcile)
	invGroup.Post("/movements", stockWriters, inventoryHandler.RegisterMovement)
	invGroup.Post("/movements/batch", stockWriters, inventoryHandler.RegisterBatch)
	invGroup.Post("/transfers", stockWriters, inventoryHandler.Transfer)
	invGroup.Get("/movements", anyRole, inventoryHandler.ListMovements)
	invGroup.Get("/stock", anyRole, inventoryHandler.GetStock)
	invGroup.Get("/stock/low", anyRole, inventoryHandler.GetLowStock)
	invGroup.Get("/kardex/:product_id", anyRole, inventoryHandler.GetKardex)
	invGroup.Get("/reconciliation", RequireRole(jwt.RoleAdmin), inventoryHandler.Reconcile)

	// Órdenes de compra y venta
	ordersGroup := protected.Group("/orders", anyRole)
	orderHandler := NewOrderHandler(deps.Orders)
	ordersGroup.Post("/", orderHandler.Create)
	ordersGroup.Get("/", orderHandler.List)
	ordersGroup.Get("/:id", orderHandler.GetByID)
	ordersGroup.Post("/:id/lines", orderHandler.AddLine)
	ordersGroup.Delete("/:id/lines/:line_id", orderHandler.RemoveLine)
	ordersGroup.Post("/:id/fulfill", orderHandler.Fulfill)
	ordersGroup.Post("/:id/cancel", orderHandler.Cancel)
}

package memory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-kardex/internal/domain/entity"
)

// Catálogo de demostración para APP_STORAGE=memory. Ids fijos para poder probar con curl.
const (
	DemoWarehouseMain   = "7b7f2f1e-5a0c-4d7e-9f0a-1c2b3d4e5f60"
	DemoWarehouseSecond = "8c8a3a2f-6b1d-4e8f-8a1b-2d3c4e5f6a71"
	DemoProductA        = "1f0e2d3c-4b5a-4968-8776-a5b4c3d2e1f0"
	DemoProductB        = "2a1b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"
)

// SeedDemo carga dos bodegas y dos productos.
func SeedDemo(s *Store) {
	now := time.Now().UTC()
	s.AddWarehouse(entity.Warehouse{ID: DemoWarehouseMain, Code: "PRINCIPAL", Name: "Bodega principal", CreatedAt: now})
	s.AddWarehouse(entity.Warehouse{ID: DemoWarehouseSecond, Code: "SUCURSAL", Name: "Sucursal norte", CreatedAt: now})
	s.AddProduct(entity.Product{
		ID: DemoProductA, SKU: "SKU-001", Name: "Tornillo 1/4", UnitMeasure: "UND",
		MinStock: decimal.NewFromInt(10), CreatedAt: now, UpdatedAt: now,
	})
	s.AddProduct(entity.Product{
		ID: DemoProductB, SKU: "SKU-002", Name: "Tuerca 1/4", UnitMeasure: "UND",
		MinStock: decimal.NewFromInt(5), CreatedAt: now, UpdatedAt: now,
	})
}

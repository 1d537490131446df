package entity

import "time"

// Warehouse representa una bodega o sucursal donde se almacena inventario.
type Warehouse struct {
	ID        string
	Code      string
	Name      string
	CreatedAt time.Time
}

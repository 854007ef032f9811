package entity

import "time"

// Kind identifica una colección lógica del almacenamiento de registros.
type Kind string

const (
	KindCustomers  Kind = "customers"
	KindCategories Kind = "categories"
	KindProducts   Kind = "products"
	KindStock      Kind = "stock"
	KindSales      Kind = "sales"
	KindSaleItems  Kind = "sale_items"
)

// SyncedKinds colecciones que el sincronizador trae del almacenamiento remoto, en orden de dependencia.
var SyncedKinds = []Kind{KindCustomers, KindCategories, KindProducts, KindStock, KindSales}

// Meta campos comunes a todos los registros.
// Active=false marca un borrado lógico.
type Meta struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Active    bool
}

// Base devuelve los metadatos del registro (promovido a cada entidad que embebe Meta).
func (m *Meta) Base() *Meta { return m }

// Record es implementado por el puntero de cada entidad persistible.
type Record interface {
	Base() *Meta
}

// Ptr restringe un parámetro de tipo a *E cuando *E implementa Record (repositorios genéricos).
type Ptr[E any] interface {
	*E
	Record
}

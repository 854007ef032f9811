package repository

// Repositories agrupa los repositorios atados a una misma conexión o transacción.
type Repositories struct {
	Customers  CustomerRepository
	Categories CategoryRepository
	Products   ProductRepository
	Stock      StockRepository
	Sales      SaleRepository
	SaleItems  SaleItemRepository
}

package sales

import (
	"context"

	"github.com/jhoicas/ventas-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error no queda ninguna escritura.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repositories) error) error
}

// ReceiptPDFGenerator genera el comprobante imprimible (PDF) de una venta.
type ReceiptPDFGenerator interface {
	GenerateReceiptPDF(ctx context.Context, receipt *Receipt) ([]byte, error)
}

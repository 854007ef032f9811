package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ventas-api/internal/application/catalog"
	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/application/stock"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/stockstatus"
)

// StockHandler consulta y ajusta el stock por producto.
type StockHandler struct {
	ledger   *stock.Ledger
	products *catalog.ProductUseCase
}

func NewStockHandler(ledger *stock.Ledger, products *catalog.ProductUseCase) *StockHandler {
	return &StockHandler{ledger: ledger, products: products}
}

// List godoc
// @Summary      Stock de los productos activos, críticos primero
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "out | low | watch | ok"
// @Router       /api/stock [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	var filter stockstatus.Status
	if raw := c.Query("status"); raw != "" {
		st, ok := stockstatus.Parse(raw)
		if !ok {
			return respondError(c, fmt.Errorf("%w: status desconocido %q", domain.ErrInvalidInput, raw))
		}
		filter = st
	}
	items, err := h.ledger.Overview(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.StockResponse, 0, len(items))
	for _, it := range items {
		resp := toStockResponse(it.Product.Name, it.Product.ID, it.Entry)
		resp.UnitsSold = it.UnitsSold
		if it.Category != nil {
			resp.Category = &dto.StockCategoryDTO{
				ID:    it.Category.ID,
				Name:  it.Category.Name,
				Color: it.Category.Color,
				Icon:  it.Category.Icon,
			}
		}
		out = append(out, resp)
	}
	return c.JSON(dto.NewList(out))
}

// Get stock de un producto; sin registro responde cantidad 0 (out).
func (h *StockHandler) Get(c *fiber.Ctx) error {
	productID := c.Params("product_id")
	product, err := h.products.GetByID(c.Context(), productID)
	if err != nil {
		return respondError(c, err)
	}
	if product == nil {
		return notFound(c, "producto no encontrado")
	}
	entry, err := h.ledger.Get(c.Context(), productID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toStockResponse(product.Name, productID, entry))
}

// Set fija cantidad y mínimo absolutos.
func (h *StockHandler) Set(c *fiber.Ctx) error {
	var in dto.SetStockRequest
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	productID := c.Params("product_id")
	entry, err := h.ledger.SetAbsolute(c.Context(), productID, in.Quantity, in.MinimumQuantity, in.Location)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toStockResponse("", productID, entry))
}

// Adjust godoc
// @Summary      Ajustar stock (entrada o salida manual)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        product_id  path  string                  true  "ID del producto"
// @Param        body        body  dto.AdjustStockRequest  true  "Delta y opcionalmente mínimo / ubicación"
// @Success      200  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse  "el resultado sería negativo"
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{product_id}/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	productID := c.Params("product_id")
	entry, err := h.ledger.Adjust(c.Context(), productID, in.Delta, stock.AdjustOptions{
		Minimum:  in.MinimumQuantity,
		Location: in.Location,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toStockResponse("", productID, entry))
}

func toStockResponse(productName, productID string, e *entity.StockEntry) dto.StockResponse {
	st := stock.Classify(e)
	out := dto.StockResponse{
		ProductID:   productID,
		ProductName: productName,
		Status:      string(st),
		StatusLabel: st.Label(),
	}
	if e == nil {
		return out
	}
	out.Quantity = e.Quantity
	out.MinimumQuantity = e.MinimumQuantity
	out.Location = e.Location
	if !e.UpdatedAt.IsZero() {
		updated := e.UpdatedAt
		out.UpdatedAt = &updated
	}
	return out
}

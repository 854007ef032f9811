package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/application/sales"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// SaleHandler registra y consulta ventas.
type SaleHandler struct {
	processor *sales.Processor
	receipts  *sales.ReceiptUseCase
}

func NewSaleHandler(processor *sales.Processor, receipts *sales.ReceiptUseCase) *SaleHandler {
	return &SaleHandler{processor: processor, receipts: receipts}
}

// Create godoc
// @Summary      Registrar venta
// @Description  Todas las líneas se confirman juntas. Si falta stock en alguna no se escribe nada
// @Description  y la respuesta 409 lleva el detalle por producto en details.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "Cliente opcional y líneas"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	input := sales.SaleInput{CustomerID: in.CustomerID, Lines: make([]sales.LineInput, 0, len(in.Lines))}
	for _, l := range in.Lines {
		input.Lines = append(input.Lines, sales.LineInput{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	detail, err := h.processor.SubmitSale(c.Context(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSaleResponse(detail.Sale, detail.Items))
}

// Quick venta rápida: un producto, sin cliente, precio de lista.
func (h *SaleHandler) Quick(c *fiber.Ctx) error {
	var in dto.QuickSaleRequest
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	detail, err := h.processor.QuickSale(c.Context(), in.ProductID, in.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSaleResponse(detail.Sale, detail.Items))
}

func (h *SaleHandler) List(c *fiber.Ctx) error {
	list, err := h.processor.ListSales(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toSaleResponse(s, nil))
	}
	return c.JSON(dto.NewList(out))
}

func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	detail, err := h.processor.GetSale(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toSaleResponse(detail.Sale, detail.Items))
}

// Receipt godoc
// @Summary      Comprobante PDF de la venta
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/receipt [get]
func (h *SaleHandler) Receipt(c *fiber.Ctx) error {
	pdf, filename, err := h.receipts.Generate(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(pdf)
}

func toSaleResponse(s *entity.Sale, items []*entity.SaleItem) dto.SaleResponse {
	out := dto.SaleResponse{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		SoldAt:     s.SoldAt,
		Total:      s.Total,
		Status:     s.Status,
		Type:       s.Type,
	}
	for _, it := range items {
		out.Items = append(out.Items, dto.SaleItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
	return out
}

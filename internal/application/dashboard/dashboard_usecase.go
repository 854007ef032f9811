// Package dashboard arma los contadores de la pantalla principal.
package dashboard

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ventas-api/internal/application/dto"
	"github.com/jhoicas/ventas-api/internal/application/stock"
	"github.com/jhoicas/ventas-api/internal/domain/entity"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/internal/domain/stockstatus"
)

const topProducts = 5 // productos en el widget de más vendidos

// UseCase genera el resumen del dashboard. Solo lectura.
type UseCase struct {
	repos  repository.Repositories
	ledger *stock.Ledger
}

func NewUseCase(repos repository.Repositories, ledger *stock.Ledger) *UseCase {
	return &UseCase{repos: repos, ledger: ledger}
}

// Summary construye el DashboardSummaryDTO.
//
// Las lecturas corren en paralelo:
//  1. ventas + líneas    → TotalSales, CompletedRevenue, TopProducts
//  2. stock (Overview)   → StockUnits, StockByStatus, TotalProducts
//  3. clientes activos   → TotalCustomers
func (uc *UseCase) Summary(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	type salesResult struct {
		sales []*entity.Sale
		items []*entity.SaleItem
		err   error
	}
	type stockResult struct {
		items []stock.Item
		err   error
	}
	type countResult struct {
		n   int
		err error
	}

	salesCh := make(chan salesResult, 1)
	stockCh := make(chan stockResult, 1)
	customersCh := make(chan countResult, 1)

	go func() {
		sales, err := uc.repos.Sales.ListAll(ctx, true)
		if err != nil {
			salesCh <- salesResult{err: err}
			return
		}
		items, err := uc.repos.SaleItems.ListAll(ctx, true)
		salesCh <- salesResult{sales: sales, items: items, err: err}
	}()
	go func() {
		items, err := uc.ledger.Overview(ctx, "")
		stockCh <- stockResult{items, err}
	}()
	go func() {
		list, err := uc.repos.Customers.ListAll(ctx, true)
		customersCh <- countResult{len(list), err}
	}()

	sr := <-salesCh
	st := <-stockCh
	cr := <-customersCh

	if sr.err != nil {
		return nil, fmt.Errorf("dashboard ventas: %w", sr.err)
	}
	if st.err != nil {
		return nil, fmt.Errorf("dashboard stock: %w", st.err)
	}
	if cr.err != nil {
		return nil, fmt.Errorf("dashboard clientes: %w", cr.err)
	}

	out := &dto.DashboardSummaryDTO{
		TotalSales:       len(sr.sales),
		CompletedRevenue: decimal.Zero,
		TotalProducts:    len(st.items),
		TotalCustomers:   cr.n,
		StockByStatus: map[string]int{
			string(stockstatus.Out):   0,
			string(stockstatus.Low):   0,
			string(stockstatus.Watch): 0,
			string(stockstatus.OK):    0,
		},
	}

	names := make(map[string]string, len(st.items))
	for _, it := range st.items {
		out.StockUnits += it.Entry.Quantity
		out.StockByStatus[string(it.Status)]++
		names[it.Product.ID] = it.Product.Name
	}

	completed := make(map[string]bool, len(sr.sales))
	for _, s := range sr.sales {
		if s.Status == entity.SaleStatusCompleted {
			completed[s.ID] = true
			out.CompletedRevenue = out.CompletedRevenue.Add(s.Total)
		}
	}
	out.TopProducts = rankProducts(sr.items, completed, names)
	return out, nil
}

// rankProducts suma unidades e ingreso por producto de las ventas completadas y devuelve el top.
func rankProducts(items []*entity.SaleItem, completed map[string]bool, names map[string]string) []dto.TopProductDTO {
	agg := make(map[string]*dto.TopProductDTO)
	for _, it := range items {
		if !completed[it.SaleID] {
			continue
		}
		row, ok := agg[it.ProductID]
		if !ok {
			row = &dto.TopProductDTO{ProductID: it.ProductID, ProductName: names[it.ProductID], Revenue: decimal.Zero}
			agg[it.ProductID] = row
		}
		row.UnitsSold += it.Quantity
		row.Revenue = row.Revenue.Add(it.Subtotal)
	}

	ranked := make([]dto.TopProductDTO, 0, len(agg))
	for _, row := range agg {
		ranked = append(ranked, *row)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].UnitsSold != ranked[j].UnitsSold {
			return ranked[i].UnitsSold > ranked[j].UnitsSold
		}
		if !ranked[i].Revenue.Equal(ranked[j].Revenue) {
			return ranked[i].Revenue.GreaterThan(ranked[j].Revenue)
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})
	if len(ranked) > topProducts {
		ranked = ranked[:topProducts]
	}
	return ranked
}

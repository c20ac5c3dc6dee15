package kardex

import (
	"slices"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// Recompute ordena las entradas por fecha (desempate por id) y calcula el saldo acumulado
// de cada producto después de cada entrada. No modifica el slice recibido.
func Recompute(entries []entity.KardexEntry) []entity.KardexEntry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b entity.KardexEntry) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	running := make(map[int64]int64)
	for i := range out {
		running[out[i].ProductID] += out[i].Delta()
		out[i].Balance = running[out[i].ProductID]
	}
	return out
}

// StockByProduct suma neta de movimientos no anulados por producto.
func StockByProduct(entries []entity.KardexEntry) map[int64]int64 {
	stock := make(map[int64]int64)
	for _, e := range entries {
		stock[e.ProductID] += e.Delta()
	}
	return stock
}

// StockLine stock de un producto derivado del kardex.
type StockLine struct {
	Product      entity.Product
	Stock        int64
	BelowMinimum bool
}

// StockView combina el catálogo con el stock derivado del kardex. Los productos sin
// movimientos aparecen con stock 0.
func StockView(products []entity.Product, entries []entity.KardexEntry) []StockLine {
	stock := StockByProduct(entries)
	lines := make([]StockLine, 0, len(products))
	for _, p := range products {
		p.Stock = stock[p.ID]
		lines = append(lines, StockLine{Product: p, Stock: p.Stock, BelowMinimum: p.BelowMinimum()})
	}
	return lines
}

// Drifted devuelve los productos cuyo stock cacheado difiere del derivado del kardex.
func Drifted(products []entity.Product, entries []entity.KardexEntry) []int64 {
	stock := StockByProduct(entries)
	var ids []int64
	for _, p := range products {
		if p.Stock != stock[p.ID] {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

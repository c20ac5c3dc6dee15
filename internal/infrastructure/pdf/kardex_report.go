// Package pdf genera el reporte del kardex de una empresa con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Empresa               │  KARDEX + fecha de corte    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  MOVIMIENTOS: Fecha | Producto | Tipo | Cant. | Saldo | ... │
//	│  ─────────────────────────────────────────────────────────  │
//	│  STOCK: Producto | Stock | Mín. | Costo | Valorización      │
//	│  TOTAL valorizado                                           │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// KardexReport datos del reporte. Entries ya viene ordenado y con saldos; Products trae en
// Stock el valor derivado del kardex.
type KardexReport struct {
	Company     *entity.Company
	GeneratedAt time.Time
	Entries     []entity.KardexEntry
	Products    []entity.Product
}

// KardexReportGenerator genera el PDF del kardex.
type KardexReportGenerator struct{}

// NewKardexReportGenerator construye el generador.
func NewKardexReportGenerator() *KardexReportGenerator { return &KardexReportGenerator{} }

// Generate genera el PDF y devuelve sus bytes.
func (g *KardexReportGenerator) Generate(_ context.Context, rep KardexReport) ([]byte, error) {
	if rep.Company == nil {
		return nil, fmt.Errorf("pdf: reporte sin empresa")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Kardex "+rep.Company.Name, true).
		WithAuthor(rep.Company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(rep))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(sectionRow("MOVIMIENTOS"))
	m.AddRows(movementHeaderRow())
	if len(rep.Entries) == 0 {
		m.AddRows(row.New(6).Add(col.New(12).Add(
			text.New("Sin movimientos registrados", props.Text{Size: 8, Top: 1, Color: colorGray}),
		)))
	}
	m.AddRows(movementRows(rep.Entries)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(sectionRow("STOCK Y VALORIZACIÓN"))
	m.AddRows(stockHeaderRow())
	m.AddRows(stockRows(rep.Products, rep.Company.CurrencySymbol)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow(rep.Products, rep.Company.CurrencySymbol))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(rep KardexReport) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New(rep.Company.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
		),
		col.New(5).Add(
			text.New("KARDEX DE INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Corte: "+rep.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func sectionRow(title string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))
}

func headerCol(label string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(label, props.Text{
		Style: fontstyle.Bold, Size: 7, Align: a, Top: 1, Left: 1, Right: 1,
	}))
}

func movementHeaderRow() core.Row {
	return row.New(6).Add(
		headerCol("Fecha", 2, align.Left),
		headerCol("Producto", 3, align.Left),
		headerCol("Tipo", 1, align.Center),
		headerCol("Cant.", 1, align.Right),
		headerCol("Saldo", 1, align.Right),
		headerCol("Usuario", 2, align.Left),
		headerCol("Detalle", 2, align.Left),
	)
}

func movementRows(entries []entity.KardexEntry) []core.Row {
	rows := make([]core.Row, 0, len(entries))
	for _, e := range entries {
		cell := props.Text{Size: 7, Top: 1, Left: 1, Right: 1}
		qty := fmt.Sprintf("%d", e.Quantity)
		if e.Kind == entity.MovementKindOut {
			qty = "-" + qty
		}
		if e.Voided() {
			cell.Color = colorGray
			qty += " (anulado)"
		}
		right := cell
		right.Align = align.Right
		center := cell
		center.Align = align.Center
		rows = append(rows, row.New(5).Add(
			col.New(2).Add(text.New(e.Date.Format("02/01/2006 15:04"), cell)),
			col.New(3).Add(text.New(e.ProductDescription, cell)),
			col.New(1).Add(text.New(string(e.Kind), center)),
			col.New(1).Add(text.New(qty, right)),
			col.New(1).Add(text.New(fmt.Sprintf("%d", e.Balance), right)),
			col.New(2).Add(text.New(e.UserName, cell)),
			col.New(2).Add(text.New(e.Detail, cell)),
		))
	}
	return rows
}

func stockHeaderRow() core.Row {
	return row.New(6).Add(
		headerCol("Producto", 5, align.Left),
		headerCol("Stock", 1, align.Right),
		headerCol("Mín.", 1, align.Right),
		headerCol("Costo unit.", 2, align.Right),
		headerCol("Valorización", 3, align.Right),
	)
}

func stockRows(products []entity.Product, symbol string) []core.Row {
	rows := make([]core.Row, 0, len(products))
	for _, p := range products {
		cell := props.Text{Size: 7, Top: 1, Left: 1, Right: 1}
		if p.BelowMinimum() {
			cell.Color = colorAlert
		}
		right := cell
		right.Align = align.Right
		rows = append(rows, row.New(5).Add(
			col.New(5).Add(text.New(p.Description, cell)),
			col.New(1).Add(text.New(fmt.Sprintf("%d", p.Stock), right)),
			col.New(1).Add(text.New(fmt.Sprintf("%d", p.MinStock), right)),
			col.New(2).Add(text.New(money(symbol, p.PurchasePrice), right)),
			col.New(3).Add(text.New(money(symbol, Valuation(p)), right)),
		))
	}
	return rows
}

func totalRow(products []entity.Product, symbol string) core.Row {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(Valuation(p))
	}
	return row.New(8).Add(
		col.New(6),
		col.New(3).Add(text.New("TOTAL VALORIZADO:", props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 2, Right: 2,
		})),
		col.New(3).Add(text.New(money(symbol, total), props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 2, Right: 1,
		})),
	)
}

// Valuation stock del producto valorizado a precio de compra.
func Valuation(p entity.Product) decimal.Decimal {
	return p.PurchasePrice.Mul(decimal.NewFromInt(p.Stock))
}

// money formatea con símbolo, puntos de miles y dos decimales con coma. Ej: "$1.234,50".
func money(symbol string, d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	return sign + symbol + formatThousands(intPart) + "," + frac
}

// formatThousands inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}

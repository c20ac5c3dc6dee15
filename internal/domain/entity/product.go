package entity

import "github.com/shopspring/decimal"

// Product representa un producto del catálogo de una empresa.
// Stock es una columna cacheada: el valor autoritativo es la suma neta de los
// movimientos no anulados del kardex para el producto.
type Product struct {
	ID            int64
	Description   string
	BrandID       int64
	CategoryID    int64
	CompanyID     int64
	Stock         int64
	MinStock      int64
	SalePrice     decimal.Decimal
	PurchasePrice decimal.Decimal
	Barcode       string // opcional
	InternalCode  string // opcional
}

// BelowMinimum indica si el stock está en o por debajo del mínimo configurado.
func (p Product) BelowMinimum() bool {
	return p.MinStock > 0 && p.Stock <= p.MinStock
}

// ProductDetail combina un producto con su marca y categoría para mostrar en pantalla.
type ProductDetail struct {
	Product  Product
	Brand    *Brand
	Category *Category
}

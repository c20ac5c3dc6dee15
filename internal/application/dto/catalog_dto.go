package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// BrandResponse marca.
type BrandResponse struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}

// CategoryResponse categoría.
type CategoryResponse struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// ProductResponse producto con su marca y categoría.
type ProductResponse struct {
	ID            int64             `json:"id"`
	Description   string            `json:"description"`
	Stock         int64             `json:"stock"`
	MinStock      int64             `json:"min_stock"`
	SalePrice     decimal.Decimal   `json:"sale_price"`
	PurchasePrice decimal.Decimal   `json:"purchase_price"`
	Barcode       string            `json:"barcode,omitempty"`
	InternalCode  string            `json:"internal_code,omitempty"`
	Brand         *BrandResponse    `json:"brand,omitempty"`
	Category      *CategoryResponse `json:"category,omitempty"`
}

// CatalogResponse catálogo de la empresa.
type CatalogResponse struct {
	Products   []ProductResponse  `json:"products"`
	Brands     []BrandResponse    `json:"brands"`
	Categories []CategoryResponse `json:"categories"`
	LoadedAt   time.Time          `json:"loaded_at"`
}

// NewProductResponses mapea productos con detalle.
func NewProductResponses(details []entity.ProductDetail) []ProductResponse {
	out := make([]ProductResponse, 0, len(details))
	for _, d := range details {
		p := d.Product
		r := ProductResponse{
			ID:            p.ID,
			Description:   p.Description,
			Stock:         p.Stock,
			MinStock:      p.MinStock,
			SalePrice:     p.SalePrice,
			PurchasePrice: p.PurchasePrice,
			Barcode:       p.Barcode,
			InternalCode:  p.InternalCode,
		}
		if d.Brand != nil {
			r.Brand = &BrandResponse{ID: d.Brand.ID, Description: d.Brand.Description}
		}
		if d.Category != nil {
			r.Category = &CategoryResponse{ID: d.Category.ID, Description: d.Category.Description, Color: d.Category.Color}
		}
		out = append(out, r)
	}
	return out
}

// NewBrandResponses mapea marcas.
func NewBrandResponses(brands []entity.Brand) []BrandResponse {
	out := make([]BrandResponse, 0, len(brands))
	for _, b := range brands {
		out = append(out, BrandResponse{ID: b.ID, Description: b.Description})
	}
	return out
}

// NewCategoryResponses mapea categorías.
func NewCategoryResponses(categories []entity.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryResponse{ID: c.ID, Description: c.Description, Color: c.Color})
	}
	return out
}

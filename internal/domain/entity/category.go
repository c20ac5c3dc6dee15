package entity

// Category representa una categoría de productos de una empresa.
type Category struct {
	ID          int64
	Description string
	CompanyID   int64
	Color       string
}

// Brand representa una marca de productos de una empresa.
type Brand struct {
	ID          int64
	Description string
	CompanyID   int64
}

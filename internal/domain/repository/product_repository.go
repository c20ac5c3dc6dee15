package repository

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	ListByCompany(ctx context.Context, companyID int64) ([]entity.Product, error)
	// GetForUpdate obtiene el producto de la empresa bloqueando la fila (SELECT FOR UPDATE).
	// Devuelve (nil, nil) si no existe o pertenece a otra empresa.
	GetForUpdate(ctx context.Context, companyID, productID int64) (*entity.Product, error)
	UpdateStock(ctx context.Context, productID, stock int64) error
}

// BrandRepository define el puerto de persistencia para Brand (DIP).
type BrandRepository interface {
	ListByCompany(ctx context.Context, companyID int64) ([]entity.Brand, error)
}

// CategoryRepository define el puerto de persistencia para Category (DIP).
type CategoryRepository interface {
	ListByCompany(ctx context.Context, companyID int64) ([]entity.Category, error)
}

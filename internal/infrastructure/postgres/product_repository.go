package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `
	id, descripcion, COALESCE(id_marca, 0), COALESCE(id_categoria, 0), id_empresa,
	stock, COALESCE(stock_minimo, 0), precioventa, preciocompra,
	COALESCE(codigobarras, ''), COALESCE(codigointerno, '')`

func scanProduct(row pgx.Row) (entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.Description, &p.BrandID, &p.CategoryID, &p.CompanyID,
		&p.Stock, &p.MinStock, &p.SalePrice, &p.PurchasePrice,
		&p.Barcode, &p.InternalCode,
	)
	return p, err
}

// ListByCompany lista el catálogo de la empresa en orden estable (por id).
func (r *ProductRepo) ListByCompany(ctx context.Context, companyID int64) ([]entity.Product, error) {
	rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM productos WHERE id_empresa = $1 ORDER BY id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	return products, nil
}

// GetForUpdate obtiene el producto de la empresa con bloqueo de fila (SELECT FOR UPDATE).
// Debe usarse dentro de una transacción.
func (r *ProductRepo) GetForUpdate(ctx context.Context, companyID, productID int64) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM productos WHERE id = $1 AND id_empresa = $2 FOR UPDATE`
	p, err := scanProduct(r.q.QueryRow(ctx, query, productID, companyID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product for update: %w", err)
	}
	return &p, nil
}

// UpdateStock actualiza la columna de stock cacheada.
func (r *ProductRepo) UpdateStock(ctx context.Context, productID, stock int64) error {
	_, err := r.q.Exec(ctx, `UPDATE productos SET stock = $1 WHERE id = $2`, stock, productID)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	return nil
}

var _ repository.BrandRepository = (*BrandRepo)(nil)

// BrandRepo implementación de BrandRepository (tabla marca).
type BrandRepo struct {
	q Querier
}

// NewBrandRepository construye el adaptador de marcas.
func NewBrandRepository(q Querier) *BrandRepo {
	return &BrandRepo{q: q}
}

// ListByCompany lista las marcas de la empresa.
func (r *BrandRepo) ListByCompany(ctx context.Context, companyID int64) ([]entity.Brand, error) {
	rows, err := r.q.Query(ctx, `SELECT id, descripcion, id_empresa FROM marca WHERE id_empresa = $1 ORDER BY id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	brands, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Brand, error) {
		var b entity.Brand
		err := row.Scan(&b.ID, &b.Description, &b.CompanyID)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan brands: %w", err)
	}
	return brands, nil
}

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

// CategoryRepo implementación de CategoryRepository (tabla categorias).
type CategoryRepo struct {
	q Querier
}

// NewCategoryRepository construye el adaptador de categorías.
func NewCategoryRepository(q Querier) *CategoryRepo {
	return &CategoryRepo{q: q}
}

// ListByCompany lista las categorías de la empresa.
func (r *CategoryRepo) ListByCompany(ctx context.Context, companyID int64) ([]entity.Category, error) {
	query := `SELECT id, descripcion, id_empresa, COALESCE(color, '') FROM categorias WHERE id_empresa = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Category, error) {
		var c entity.Category
		err := row.Scan(&c.ID, &c.Description, &c.CompanyID, &c.Color)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	return categories, nil
}

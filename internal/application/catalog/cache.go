// Package catalog carga y filtra la foto del catálogo (productos, marcas y categorías)
// de una empresa. La foto es de solo lectura y se vuelve a pedir completa en cada recarga.
package catalog

import (
	"context"
	"iter"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// Snapshot es el catálogo de una empresa en un instante.
type Snapshot struct {
	CompanyID  int64
	Products   []entity.Product
	Brands     []entity.Brand
	Categories []entity.Category
	LoadedAt   time.Time

	byID map[int64]int
}

// Cache carga snapshots desde los repositorios.
type Cache struct {
	products   repository.ProductRepository
	brands     repository.BrandRepository
	categories repository.CategoryRepository
	now        func() time.Time
}

// NewCache construye la caché de catálogo.
func NewCache(products repository.ProductRepository, brands repository.BrandRepository, categories repository.CategoryRepository) *Cache {
	return &Cache{products: products, brands: brands, categories: categories, now: time.Now}
}

// Load pide productos, marcas y categorías en paralelo. Si alguna lectura falla no hay
// snapshot parcial: se devuelve el error.
func (c *Cache) Load(ctx context.Context, companyID int64) (*Snapshot, error) {
	const op = "catalog.Load"
	if companyID == 0 {
		return nil, domain.NewValidationError(op, "no hay empresa activa", nil)
	}
	snap := &Snapshot{CompanyID: companyID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Products, err = c.products.ListByCompany(gctx, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Brands, err = c.brands.ListByCompany(gctx, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Categories, err = c.categories.ListByCompany(gctx, companyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domain.NewPersistenceError(op, err)
	}
	snap.LoadedAt = c.now()
	snap.index()
	return snap, nil
}

// NewSnapshot arma un snapshot a partir de datos ya cargados.
func NewSnapshot(companyID int64, products []entity.Product, brands []entity.Brand, categories []entity.Category) *Snapshot {
	s := &Snapshot{CompanyID: companyID, Products: products, Brands: brands, Categories: categories, LoadedAt: time.Now()}
	s.index()
	return s
}

func (s *Snapshot) index() {
	s.byID = make(map[int64]int, len(s.Products))
	for i, p := range s.Products {
		s.byID[p.ID] = i
	}
}

// Product busca un producto por id. nil si no está en el catálogo de la empresa.
func (s *Snapshot) Product(id int64) *entity.Product {
	if s == nil {
		return nil
	}
	i, ok := s.byID[id]
	if !ok {
		return nil
	}
	p := s.Products[i]
	return &p
}

// Details une cada producto con su marca y categoría, en el orden del catálogo.
func (s *Snapshot) Details() []entity.ProductDetail {
	return s.DetailsOf(s.All())
}

// DetailsOf une los productos de seq con su marca y categoría.
func (s *Snapshot) DetailsOf(seq iter.Seq[entity.Product]) []entity.ProductDetail {
	if s == nil {
		return nil
	}
	brands := make(map[int64]*entity.Brand, len(s.Brands))
	for i := range s.Brands {
		brands[s.Brands[i].ID] = &s.Brands[i]
	}
	cats := make(map[int64]*entity.Category, len(s.Categories))
	for i := range s.Categories {
		cats[s.Categories[i].ID] = &s.Categories[i]
	}
	var out []entity.ProductDetail
	for p := range seq {
		out = append(out, entity.ProductDetail{Product: p, Brand: brands[p.BrandID], Category: cats[p.CategoryID]})
	}
	return out
}

// All recorre todos los productos en el orden del catálogo.
func (s *Snapshot) All() iter.Seq[entity.Product] {
	return s.Filter("")
}

// Filter devuelve los productos cuya descripción contiene query sin distinguir mayúsculas
// (con plegado Unicode). La secuencia es perezosa, se puede recorrer varias veces y no
// modifica el snapshot; query vacío devuelve todo el catálogo.
func (s *Snapshot) Filter(query string) iter.Seq[entity.Product] {
	return func(yield func(entity.Product) bool) {
		if s == nil {
			return
		}
		q := strings.TrimSpace(query)
		if q == "" {
			for _, p := range s.Products {
				if !yield(p) {
					return
				}
			}
			return
		}
		fold := cases.Fold()
		needle := fold.String(q)
		for _, p := range s.Products {
			if strings.Contains(fold.String(p.Description), needle) {
				if !yield(p) {
					return
				}
			}
		}
	}
}

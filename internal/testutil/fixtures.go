package testutil

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// Identificadores de la empresa de prueba.
const (
	AcmeID        int64 = 1
	AcmeUserID    int64 = 10
	AcmeAuthID          = "auth-acme-admin"
	WidgetID      int64 = 100
	GadgetID      int64 = 101
	OtherID       int64 = 2
	OtherUserID   int64 = 20
	OtherAuthID         = "auth-other-admin"
	OtherWidgetID int64 = 200
	OrphanAuthID        = "auth-sin-empresa"
)

// SeedAcme carga dos empresas con sus usuarios, una marca, una categoría y productos en stock 0.
// El usuario OrphanAuthID existe pero no tiene empresa asignada.
func SeedAcme(s *Store) {
	s.AddCompany(entity.Company{ID: AcmeID, Name: "Acme", CurrencySymbol: "$", AdminUserID: AcmeUserID})
	s.AddCompany(entity.Company{ID: OtherID, Name: "Globex", CurrencySymbol: "S/", AdminUserID: OtherUserID})

	s.AddUser(entity.User{ID: AcmeUserID, AuthID: AcmeAuthID, Name: "Ana Acme", Email: "ana@acme.co", Role: entity.RoleAdmin}, AcmeID, entity.ModuleKardex)
	s.AddUser(entity.User{ID: OtherUserID, AuthID: OtherAuthID, Name: "Gus Globex", Email: "gus@globex.co", Role: entity.RoleAdmin}, OtherID, entity.ModuleKardex)
	s.AddUser(entity.User{ID: 30, AuthID: OrphanAuthID, Name: "Sin Empresa", Role: entity.RoleEmployee}, 0)

	s.AddBrand(entity.Brand{ID: 1, Description: "Marca Acme", CompanyID: AcmeID})
	s.AddCategory(entity.Category{ID: 1, Description: "Herramientas", CompanyID: AcmeID, Color: "#ff0000"})

	s.AddProduct(entity.Product{
		ID: WidgetID, Description: "Widget", BrandID: 1, CategoryID: 1, CompanyID: AcmeID,
		MinStock: 2, SalePrice: decimal.NewFromInt(15), PurchasePrice: decimal.NewFromInt(10),
	})
	s.AddProduct(entity.Product{
		ID: GadgetID, Description: "Gádget Eléctrico", BrandID: 1, CategoryID: 1, CompanyID: AcmeID,
		SalePrice: decimal.NewFromInt(40), PurchasePrice: decimal.RequireFromString("25.50"),
	})
	s.AddProduct(entity.Product{ID: OtherWidgetID, Description: "Widget Globex", CompanyID: OtherID})
}

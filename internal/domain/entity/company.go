package entity

// Company representa una empresa (tenant). Es la raíz de todo el aislamiento de datos:
// productos, marcas, categorías, movimientos y personal pertenecen a exactamente una.
type Company struct {
	ID             int64
	Name           string
	CurrencySymbol string // símbolo de moneda para reportes (ej. "$", "S/")
	AdminUserID    int64
}

// Módulos de la aplicación (deben coincidir con la tabla modulos).
const (
	ModuleKardex     = "kardex"
	ModuleProducts   = "productos"
	ModuleCategories = "categorias"
	ModuleBrands     = "marcas"
	ModuleStaff      = "personal"
)

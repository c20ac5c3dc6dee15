package entity

// Roles válidos para User (columna tipouser).
const (
	RoleAdmin    = "admin"
	RoleEmployee = "empleado"
)

// User representa un usuario interno. AuthID es la identidad opaca del proveedor de
// autenticación; ID es el identificador interno que usan todas las tablas de dominio.
type User struct {
	ID     int64
	AuthID string
	Name   string
	Email  string
	Role   string
}

// CompanyAssignment vincula un usuario con la empresa a la que pertenece (asignar_empresa).
type CompanyAssignment struct {
	ID        int64
	CompanyID int64
	UserID    int64
}

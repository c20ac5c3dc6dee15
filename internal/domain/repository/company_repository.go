package repository

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (DIP).
// La implementación vive en infrastructure.
type CompanyRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Company, error)
	// GetByUserID resuelve la empresa asignada al usuario interno (asignar_empresa).
	// Devuelve (nil, nil) si el usuario no tiene asignación.
	GetByUserID(ctx context.Context, userID int64) (*entity.Company, error)
	ListIDs(ctx context.Context) ([]int64, error)
}

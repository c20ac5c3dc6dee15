package repository

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	// GetByAuthID busca el usuario interno a partir del id del proveedor de auth.
	// Devuelve (nil, nil) si no existe.
	GetByAuthID(ctx context.Context, authID string) (*entity.User, error)
	// HasModule informa si el usuario tiene permiso sobre el módulo indicado.
	HasModule(ctx context.Context, userID int64, moduleName string) (bool, error)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL (tabla usuarios).
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

const userColumns = `id, COALESCE(idauth, ''), COALESCE(nombres, ''), COALESCE(correo, ''), COALESCE(tipouser, '')`

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(&u.ID, &u.AuthID, &u.Name, &u.Email, &u.Role); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID obtiene un usuario por id interno.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByAuthID obtiene el usuario interno a partir del id del proveedor de auth.
func (r *UserRepo) GetByAuthID(ctx context.Context, authID string) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM usuarios WHERE idauth = $1`, authID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by auth id: %w", err)
	}
	return u, nil
}

// HasModule informa si el usuario tiene asignado el módulo (permisos -> modulos).
func (r *UserRepo) HasModule(ctx context.Context, userID int64, moduleName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM permisos p
			JOIN modulos m ON m.id = p.id_modulo
			WHERE p.id_usuario = $1 AND m.nombre = $2
		)`
	var ok bool
	if err := r.q.QueryRow(ctx, query, userID, moduleName).Scan(&ok); err != nil {
		return false, fmt.Errorf("check module: %w", err)
	}
	return ok, nil
}

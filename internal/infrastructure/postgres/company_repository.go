package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

const companyColumns = `e.id, e.nombre, COALESCE(e.simbolomoneda, ''), COALESCE(e.iduseradmin, 0)`

func scanCompany(row pgx.Row) (*entity.Company, error) {
	var c entity.Company
	if err := row.Scan(&c.ID, &c.Name, &c.CurrencySymbol, &c.AdminUserID); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByID obtiene una empresa por ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id int64) (*entity.Company, error) {
	c, err := scanCompany(r.q.QueryRow(ctx, `SELECT `+companyColumns+` FROM empresa e WHERE e.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// GetByUserID resuelve la empresa asignada al usuario (asignar_empresa). Si hubiera más de una
// asignación se toma la más antigua.
func (r *CompanyRepo) GetByUserID(ctx context.Context, userID int64) (*entity.Company, error) {
	query := `
		SELECT ` + companyColumns + `
		FROM asignar_empresa a
		JOIN empresa e ON e.id = a.id_empresa
		WHERE a.id_usuario = $1
		ORDER BY a.id
		LIMIT 1`
	c, err := scanCompany(r.q.QueryRow(ctx, query, userID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company by user: %w", err)
	}
	return c, nil
}

// ListIDs ids de todas las empresas (conciliación de stock).
func (r *CompanyRepo) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM empresa ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan companies: %w", err)
	}
	return ids, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación del kardex sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create inserta el movimiento y completa su ID.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO kardex (fecha, tipo, cantidad, id_producto, id_empresa, id_usuario, detalle, estado)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		m.Date, string(m.Kind), m.Quantity, m.ProductID, m.CompanyID, m.UserID, m.Detail, m.Status,
	).Scan(&m.ID)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return fmt.Errorf("create movement: %w", domain.ErrNotFound)
		case isCheckViolation(err):
			return fmt.Errorf("create movement: %w", domain.ErrInvalidInput)
		}
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// ListKardexByCompany llama a la función mostrar_kardex_por_empresa, que une el kardex con
// productos y usuarios. El orden y los saldos los recalcula la aplicación.
func (r *MovementRepo) ListKardexByCompany(ctx context.Context, companyID int64) ([]entity.KardexEntry, error) {
	query := `
		SELECT id, fecha, tipo, cantidad, id_producto, id_empresa, COALESCE(id_usuario, 0),
		       COALESCE(detalle, ''), estado, COALESCE(descripcion, ''), COALESCE(nombres, '')
		FROM mostrar_kardex_por_empresa($1)`
	rows, err := r.q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list kardex: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.KardexEntry, error) {
		var e entity.KardexEntry
		var kind string
		err := row.Scan(
			&e.ID, &e.Date, &kind, &e.Quantity, &e.ProductID, &e.CompanyID, &e.UserID,
			&e.Detail, &e.Status, &e.ProductDescription, &e.UserName,
		)
		e.Kind = entity.MovementKind(kind)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan kardex: %w", err)
	}
	return entries, nil
}

// StockTotals suma neta de movimientos no anulados por producto de la empresa.
func (r *MovementRepo) StockTotals(ctx context.Context, companyID int64) (map[int64]int64, error) {
	query := `
		SELECT id_producto,
		       SUM(CASE WHEN tipo = 'salida' THEN -cantidad ELSE cantidad END)::bigint
		FROM kardex
		WHERE id_empresa = $1 AND estado = 1
		GROUP BY id_producto`
	rows, err := r.q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("stock totals: %w", err)
	}
	defer rows.Close()
	totals := make(map[int64]int64)
	for rows.Next() {
		var productID, total int64
		if err := rows.Scan(&productID, &total); err != nil {
			return nil, fmt.Errorf("scan stock totals: %w", err)
		}
		totals[productID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stock totals: %w", err)
	}
	return totals, nil
}

var _ repository.MessageRepository = (*MessageRepo)(nil)

// MessageRepo implementación del panel de mensajes (tabla messages).
type MessageRepo struct {
	q Querier
}

// NewMessageRepository construye el adaptador de mensajes.
func NewMessageRepository(q Querier) *MessageRepo {
	return &MessageRepo{q: q}
}

// Create inserta el mensaje y completa ID y fecha.
func (r *MessageRepo) Create(ctx context.Context, m *entity.Message) error {
	query := `
		INSERT INTO messages (id_empresa, autor, contenido)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	if err := r.q.QueryRow(ctx, query, m.CompanyID, m.Author, m.Content).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// ListByCompany devuelve los últimos limit mensajes de la empresa en orden cronológico.
func (r *MessageRepo) ListByCompany(ctx context.Context, companyID int64, limit int) ([]entity.Message, error) {
	query := `
		SELECT id, id_empresa, autor, contenido, created_at FROM (
			SELECT id, id_empresa, autor, contenido, created_at
			FROM messages WHERE id_empresa = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) m ORDER BY created_at, id`
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.q.Query(ctx, query, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Message, error) {
		var m entity.Message
		err := row.Scan(&m.ID, &m.CompanyID, &m.Author, &m.Content, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan messages: %w", err)
	}
	return messages, nil
}

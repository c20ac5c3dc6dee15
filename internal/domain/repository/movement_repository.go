package repository

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia del kardex. No expone update ni delete:
// los movimientos son inmutables.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	// ListKardexByCompany devuelve el kardex completo de la empresa (función del servidor
	// mostrar_kardex_por_empresa), con descripción de producto y nombre de usuario.
	ListKardexByCompany(ctx context.Context, companyID int64) ([]entity.KardexEntry, error)
	// StockTotals devuelve la suma neta de movimientos no anulados por producto de la empresa.
	StockTotals(ctx context.Context, companyID int64) (map[int64]int64, error)
}

// MessageRepository define el puerto de persistencia del panel de mensajes.
type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	ListByCompany(ctx context.Context, companyID int64, limit int) ([]entity.Message, error)
}

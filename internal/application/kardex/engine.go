// Package kardex registra movimientos de inventario y mantiene la vista del kardex
// (saldos por producto) de la empresa activa.
package kardex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Kardex-api/internal/application/tenant"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// UserIDResolver mapea el id externo de auth al id interno de usuarios.
type UserIDResolver interface {
	ResolveInternalUserID(ctx context.Context, externalID string) (int64, error)
}

// MovementInput datos de un movimiento a registrar.
type MovementInput struct {
	Product              *entity.Product
	Kind                 entity.MovementKind
	Quantity             int64
	ActingUserExternalID string
	Detail               string // vacío usa entity.DefaultDetail
}

// Engine registra movimientos y relee el kardex. No guarda estado de sesión: se comparte
// entre todas las sesiones y solicitudes.
type Engine struct {
	txRunner  TxRunner
	movements repository.MovementRepository
	users     UserIDResolver
	log       zerolog.Logger
	now       func() time.Time
}

// NewEngine construye el motor del kardex.
func NewEngine(txRunner TxRunner, movements repository.MovementRepository, users UserIDResolver, log zerolog.Logger) *Engine {
	return &Engine{
		txRunner:  txRunner,
		movements: movements,
		users:     users,
		log:       log,
		now:       time.Now,
	}
}

// SaveMovement valida la entrada, resuelve el id interno del usuario y escribe exactamente
// un movimiento. Cualquier falla en validación o resolución ocurre antes de tocar el almacén.
func (e *Engine) SaveMovement(ctx context.Context, sc tenant.SessionContext, in MovementInput) (*entity.Movement, error) {
	return e.saveMovement(ctx, sc, in, nil)
}

// saveMovement informa a onPhase cada etapa alcanzada (Validating, Resolving, Writing).
func (e *Engine) saveMovement(ctx context.Context, sc tenant.SessionContext, in MovementInput, onPhase func(Phase)) (*entity.Movement, error) {
	const op = "kardex.SaveMovement"
	enter := func(p Phase) {
		if onPhase != nil {
			onPhase(p)
		}
	}

	enter(PhaseValidating)
	if err := validate(sc, in); err != nil {
		return nil, err
	}

	enter(PhaseResolving)

	actor := in.ActingUserExternalID
	if actor == "" {
		actor = sc.ExternalUserID
	}
	userID, err := e.users.ResolveInternalUserID(ctx, actor)
	if err != nil {
		return nil, err
	}

	detail := strings.TrimSpace(in.Detail)
	if detail == "" {
		detail = entity.DefaultDetail(in.Kind)
	}
	mov := &entity.Movement{
		Date:      e.now(),
		Kind:      in.Kind,
		Quantity:  in.Quantity,
		ProductID: in.Product.ID,
		CompanyID: sc.Company.ID,
		UserID:    userID,
		Detail:    detail,
		Status:    entity.MovementStatusActive,
	}

	enter(PhaseWriting)
	// Una vez iniciada, la escritura no se cancela con el contexto del llamador.
	wctx := context.WithoutCancel(ctx)
	err = e.txRunner.Run(wctx, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository) error {
		product, err := productRepo.GetForUpdate(wctx, mov.CompanyID, mov.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.NewValidationError(op, "el producto no existe en la empresa", domain.ErrNotFound)
		}
		newStock := product.Stock + mov.Delta()
		if newStock < 0 {
			return domain.NewValidationError(op,
				fmt.Sprintf("stock insuficiente: disponible %d, solicitado %d", product.Stock, mov.Quantity),
				domain.ErrInsufficientStock)
		}
		if err := movRepo.Create(wctx, mov); err != nil {
			return err
		}
		return productRepo.UpdateStock(wctx, mov.ProductID, newStock)
	})
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, domain.NewPersistenceError(op, err)
	}

	e.log.Info().
		Int64("company_id", mov.CompanyID).
		Int64("product_id", mov.ProductID).
		Int64("movement_id", mov.ID).
		Str("tipo", string(mov.Kind)).
		Int64("cantidad", mov.Quantity).
		Msg("movimiento registrado")
	return mov, nil
}

func validate(sc tenant.SessionContext, in MovementInput) error {
	const op = "kardex.SaveMovement"
	switch {
	case in.Product == nil:
		return domain.NewValidationError(op, "seleccione un producto", nil)
	case in.Quantity <= 0:
		return domain.NewValidationError(op, "la cantidad debe ser un entero mayor que cero", nil)
	case sc.Company == nil || sc.Company.ID == 0:
		return domain.NewValidationError(op, "no hay empresa activa", nil)
	case !in.Kind.Valid():
		return domain.NewValidationError(op, fmt.Sprintf("tipo de movimiento inválido: %q", in.Kind), nil)
	case in.Product.CompanyID != sc.Company.ID:
		return domain.NewValidationError(op, "el producto no pertenece a la empresa", domain.ErrForbidden)
	}
	return nil
}

// Ledger relee el kardex completo de la empresa y recalcula los saldos.
func (e *Engine) Ledger(ctx context.Context, companyID int64) ([]entity.KardexEntry, error) {
	entries, err := e.movements.ListKardexByCompany(ctx, companyID)
	if err != nil {
		return nil, domain.NewRefreshError("kardex.Ledger", err)
	}
	return Recompute(entries), nil
}

// QuantityFromFloat convierte una cantidad capturada como número a entero positivo.
// Rechaza NaN, infinitos, fracciones y valores fuera de rango.
func QuantityFromFloat(v float64) (int64, error) {
	const op = "kardex.QuantityFromFloat"
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, domain.NewValidationError(op, "la cantidad debe ser un número finito", nil)
	}
	if v != math.Trunc(v) {
		return 0, domain.NewValidationError(op, "la cantidad debe ser un número entero", nil)
	}
	if v <= 0 || v > math.MaxInt32 {
		return 0, domain.NewValidationError(op, "la cantidad debe ser un entero mayor que cero", nil)
	}
	return int64(v), nil
}

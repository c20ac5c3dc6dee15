package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Kardex-api/internal/application/kardex"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// ReconcileStockJob alinea la columna cacheada productos.stock con la suma neta del kardex.
// Es idempotente: una segunda ejecución sin movimientos nuevos no escribe nada.
type ReconcileStockJob struct {
	companies repository.CompanyRepository
	txRunner  kardex.TxRunner
	log       zerolog.Logger
	clock     func() time.Time
}

// NewReconcileStockJob construye el job.
func NewReconcileStockJob(companies repository.CompanyRepository, txRunner kardex.TxRunner, log zerolog.Logger) *ReconcileStockJob {
	return &ReconcileStockJob{
		companies: companies,
		txRunner:  txRunner,
		log:       log.With().Str("job", TaskReconcileStock).Logger(),
		clock:     time.Now,
	}
}

// Handle procesa TaskReconcileStock.
func (j *ReconcileStockJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ReconcileStockPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("reconcile stock: payload inválido: %v: %w", err, asynq.SkipRetry)
	}
	if payload.CompanyID < 0 {
		return fmt.Errorf("reconcile stock: empresa %d inválida: %w", payload.CompanyID, asynq.SkipRetry)
	}

	start := j.clock()
	ids := []int64{payload.CompanyID}
	if payload.CompanyID == 0 {
		var err error
		ids, err = j.companies.ListIDs(ctx)
		if err != nil {
			return fmt.Errorf("reconcile stock: listar empresas: %w", err)
		}
	}

	var errs []error
	fixed := 0
	for _, id := range ids {
		n, err := j.Reconcile(ctx, id)
		if err != nil {
			j.log.Error().Err(err).Int64("company_id", id).Msg("reconciliación fallida")
			errs = append(errs, err)
			continue
		}
		fixed += n
	}
	j.log.Info().
		Int("companies", len(ids)).
		Int("products_fixed", fixed).
		Dur("duration", j.clock().Sub(start)).
		Msg("reconciliación de stock completada")
	return errors.Join(errs...)
}

// Reconcile corrige el stock de los productos de la empresa y devuelve cuántos cambiaron.
// Las filas de producto se bloquean antes de sumar el kardex, igual que al guardar un movimiento.
func (j *ReconcileStockJob) Reconcile(ctx context.Context, companyID int64) (int, error) {
	if companyID <= 0 {
		return 0, domain.NewValidationError("reconcile_stock", "empresa inválida", nil)
	}
	fixed := 0
	err := j.txRunner.Run(ctx, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository) error {
		fixed = 0
		products, err := productRepo.ListByCompany(ctx, companyID)
		if err != nil {
			return err
		}
		cached := make(map[int64]int64, len(products))
		for _, p := range products {
			locked, err := productRepo.GetForUpdate(ctx, companyID, p.ID)
			if err != nil {
				return err
			}
			if locked != nil {
				cached[p.ID] = locked.Stock
			}
		}
		totals, err := movRepo.StockTotals(ctx, companyID)
		if err != nil {
			return err
		}
		for id, stock := range cached {
			if totals[id] == stock {
				continue
			}
			// La columna no admite negativos; un saldo negativo en el kardex se deja para revisión manual.
			if totals[id] < 0 {
				j.log.Error().
					Int64("company_id", companyID).
					Int64("product_id", id).
					Int64("cached", stock).
					Int64("ledger", totals[id]).
					Msg("kardex inconsistente: saldo negativo, stock sin corregir")
				continue
			}
			if err := productRepo.UpdateStock(ctx, id, totals[id]); err != nil {
				return err
			}
			j.log.Warn().
				Int64("company_id", companyID).
				Int64("product_id", id).
				Int64("cached", stock).
				Int64("ledger", totals[id]).
				Msg("stock desalineado corregido")
			fixed++
		}
		return nil
	})
	if err != nil {
		return 0, domain.NewPersistenceError("reconcile_stock", err)
	}
	return fixed, nil
}

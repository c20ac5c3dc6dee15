package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/application/kardex"
	"github.com/jhoicas/Kardex-api/internal/application/realtime"
	"github.com/jhoicas/Kardex-api/internal/application/tenant"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/infrastructure/pdf"
)

// ledgerService es lo que el handler usa del motor del kardex.
type ledgerService interface {
	Ledger(ctx context.Context, companyID int64) ([]entity.KardexEntry, error)
	SaveMovement(ctx context.Context, sc tenant.SessionContext, in kardex.MovementInput) (*entity.Movement, error)
}

// reportGenerator genera el PDF del kardex.
type reportGenerator interface {
	Generate(ctx context.Context, rep pdf.KardexReport) ([]byte, error)
}

// stockReconciler encola la reconciliación del stock cacheado de una empresa.
type stockReconciler interface {
	RequestReconcile(ctx context.Context, companyID int64) error
}

// KardexHandler maneja las peticiones HTTP del kardex (protegido).
type KardexHandler struct {
	resolver   kardex.SessionResolver
	engine     ledgerService
	catalog    kardex.CatalogLoader
	reports    reportGenerator
	feed       realtime.Feed
	reconciler stockReconciler
	log        zerolog.Logger
	now        func() time.Time
	keepAlive  time.Duration
}

// NewKardexHandler construye el handler. feed nil deshabilita /stream y reconciler nil
// deshabilita /reconcile y la corrección automática del stock cacheado.
func NewKardexHandler(resolver kardex.SessionResolver, engine ledgerService, catalog kardex.CatalogLoader, reports reportGenerator, feed realtime.Feed, reconciler stockReconciler, log zerolog.Logger) *KardexHandler {
	return &KardexHandler{
		resolver:   resolver,
		engine:     engine,
		catalog:    catalog,
		reports:    reports,
		feed:       feed,
		reconciler: reconciler,
		log:        log,
		now:        time.Now,
		keepAlive:  25 * time.Second,
	}
}

// load resuelve la empresa y trae kardex y stock derivado.
func (h *KardexHandler) load(ctx context.Context) (tenant.SessionContext, []entity.KardexEntry, []kardex.StockLine, error) {
	sc, err := h.resolver.Resolve(ctx)
	if err != nil {
		return sc, nil, nil, err
	}
	entries, stock, err := h.refresh(ctx, sc.CompanyID())
	return sc, entries, stock, err
}

// refresh relee el kardex y el catálogo completos de la empresa. Si el stock cacheado de
// algún producto no coincide con el kardex, pide la reconciliación.
func (h *KardexHandler) refresh(ctx context.Context, companyID int64) ([]entity.KardexEntry, []kardex.StockLine, error) {
	entries, err := h.engine.Ledger(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	snap, err := h.catalog.Load(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	if drifted := kardex.Drifted(snap.Products, entries); len(drifted) > 0 && h.reconciler != nil {
		if err := h.reconciler.RequestReconcile(ctx, companyID); err != nil {
			h.log.Warn().Err(err).Int64("company_id", companyID).Msg("no se pudo encolar la reconciliación")
		} else {
			h.log.Info().Int64("company_id", companyID).Ints64("product_ids", drifted).Msg("stock desalineado, reconciliación encolada")
		}
	}
	return entries, kardex.StockView(snap.Products, entries), nil
}

// Ledger godoc
// @Summary      Kardex de la empresa
// @Description  Movimientos ordenados por fecha con el saldo por producto y el stock derivado.
// @Tags         kardex
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.LedgerResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/kardex [get]
func (h *KardexHandler) Ledger(c *fiber.Ctx) error {
	sc, entries, stock, err := h.load(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.LedgerResponse{
		Company: dto.NewCompanyResponse(sc.Company),
		Entries: dto.NewKardexEntries(entries),
		Stock:   stockLines(stock),
	})
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de kardex
// @Description  Valida, resuelve el usuario, escribe el movimiento y relee kardex y stock.
// @Description  Un 502 REFRESH_FAILED indica que el movimiento sí quedó registrado.
// @Tags         kardex
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateMovementRequest  true  "product_id, kind (entrada|salida), quantity, detail"
// @Success      201   {object}  dto.MovementResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/kardex/movements [post]
func (h *KardexHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.CreateMovementRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	qty, err := kardex.QuantityFromFloat(in.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	sc, err := h.resolver.Resolve(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	// El producto se vuelve a leer con bloqueo y filtrado por empresa dentro de la transacción.
	mov, err := h.engine.SaveMovement(c.UserContext(), sc, kardex.MovementInput{
		Product:              &entity.Product{ID: in.ProductID, CompanyID: sc.CompanyID()},
		Kind:                 entity.MovementKind(in.Kind),
		Quantity:             qty,
		ActingUserExternalID: sc.ExternalUserID,
		Detail:               in.Detail,
	})
	if err != nil {
		return respondError(c, err)
	}

	entries, stock, err := h.refresh(c.UserContext(), sc.CompanyID())
	if err != nil {
		h.log.Warn().Err(err).Int64("company_id", sc.CompanyID()).Int64("movement_id", mov.ID).Msg("relectura posterior al movimiento fallida")
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Code:    "REFRESH_FAILED",
			Message: fmt.Sprintf("movimiento registrado (id %d); no se pudo actualizar la vista del kardex", mov.ID),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementResultResponse{
		Movement: dto.NewMovementResponse(*mov),
		Entries:  dto.NewKardexEntries(entries),
		Stock:    stockLines(stock),
	})
}

// Reconcile godoc
// @Summary      Reconciliar stock cacheado
// @Description  Encola el recálculo de productos.stock a partir del kardex de la empresa.
// @Tags         kardex
// @Security     Bearer
// @Success      202
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/kardex/reconcile [post]
func (h *KardexHandler) Reconcile(c *fiber.Ctx) error {
	if h.reconciler == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "JOBS_DISABLED", Message: "la cola de tareas no está configurada"})
	}
	sc, err := h.resolver.Resolve(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	if err := h.reconciler.RequestReconcile(c.UserContext(), sc.CompanyID()); err != nil {
		return respondError(c, domain.NewPersistenceError("kardex.Reconcile", err))
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// Report godoc
// @Summary      Reporte PDF del kardex
// @Tags         kardex
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}    binary
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/kardex/report.pdf [get]
func (h *KardexHandler) Report(c *fiber.Ctx) error {
	sc, entries, stock, err := h.load(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	products := make([]entity.Product, 0, len(stock))
	for _, l := range stock {
		p := l.Product
		p.Stock = l.Stock
		products = append(products, p)
	}
	out, err := h.reports.Generate(c.UserContext(), pdf.KardexReport{
		Company:     sc.Company,
		GeneratedAt: h.now(),
		Entries:     entries,
		Products:    products,
	})
	if err != nil {
		h.log.Error().Err(err).Int64("company_id", sc.CompanyID()).Msg("generación de reporte fallida")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "REPORT_FAILED", Message: "no se pudo generar el reporte"})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="kardex-%d.pdf"`, sc.CompanyID()))
	return c.Send(out)
}

// Stream godoc
// @Summary      Cambios del kardex en vivo (Server-Sent Events)
// @Description  Emite un evento por cada INSERT, UPDATE, DELETE o TRUNCATE de kardex y messages de la empresa.
// @Tags         kardex
// @Security     Bearer
// @Produce      text/event-stream
// @Success      200  {object}  realtime.ChangeEvent
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/kardex/stream [get]
func (h *KardexHandler) Stream(c *fiber.Ctx) error {
	if h.feed == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "REALTIME_DISABLED", Message: "el feed de cambios no está configurado"})
	}
	sc, err := h.resolver.Resolve(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	companyID := sc.CompanyID()

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan realtime.ChangeEvent, 64)
	onEvent := func(evt realtime.ChangeEvent) {
		if !evt.Concerns(companyID) {
			return
		}
		select {
		case events <- evt:
		default:
			h.log.Warn().Int64("company_id", companyID).Str("table", evt.Table).Msg("cliente SSE lento, evento descartado")
		}
	}
	var subs []realtime.Subscription
	release := func() {
		cancel()
		for _, s := range subs {
			_ = s.Close()
		}
	}
	for _, table := range []string{realtime.TableKardex, realtime.TableMessages} {
		sub, err := h.feed.Subscribe(ctx, table, onEvent)
		if err != nil {
			release()
			return respondError(c, domain.NewPersistenceError("kardex.Stream", err))
		}
		subs = append(subs, sub)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer release()
		ticker := time.NewTicker(h.keepAlive)
		defer ticker.Stop()
		for {
			select {
			case evt := <-events:
				if err := writeEvent(w, evt); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}

// writeEvent escribe un evento SSE con el nombre de la tabla como tipo.
func writeEvent(w *bufio.Writer, evt realtime.ChangeEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Table, body); err != nil {
		return err
	}
	return w.Flush()
}

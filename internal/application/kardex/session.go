package kardex

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Kardex-api/internal/application/catalog"
	"github.com/jhoicas/Kardex-api/internal/application/notify"
	"github.com/jhoicas/Kardex-api/internal/application/realtime"
	"github.com/jhoicas/Kardex-api/internal/application/tenant"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// MessageHistory cantidad de mensajes que se cargan al abrir una sesión.
const MessageHistory = 50

// SessionResolver construye el contexto de sesión del usuario autenticado.
type SessionResolver interface {
	Resolve(ctx context.Context) (tenant.SessionContext, error)
}

// CatalogLoader carga el catálogo de una empresa.
type CatalogLoader interface {
	Load(ctx context.Context, companyID int64) (*catalog.Snapshot, error)
}

// SessionDeps colaboradores compartidos por todas las sesiones.
type SessionDeps struct {
	Engine         *Engine
	Resolver       SessionResolver
	Catalog        CatalogLoader
	Messages       repository.MessageRepository
	Feed           realtime.Feed // nil deshabilita la propagación en vivo
	NotifyDuration time.Duration
	Log            zerolog.Logger
}

// Session es un contexto de visualización del kardex: empresa resuelta, kardex, catálogo,
// diálogo de captura y notificación. El mutex protege solo transiciones en memoria;
// nunca se mantiene tomado durante E/S, por lo que dos registros concurrentes pueden intercalarse.
type Session struct {
	id   string
	deps SessionDeps
	log  zerolog.Logger

	ctx    context.Context // vida de las suscripciones
	cancel context.CancelFunc

	notice   *notify.Surface
	ledger   *realtime.List[entity.KardexEntry]
	messages *realtime.List[entity.Message]

	mu         sync.Mutex
	sc         tenant.SessionContext
	snapshot   *catalog.Snapshot
	phase      Phase
	outcome    Outcome
	loading    bool
	errText    string
	dialog     Dialog
	dialogGen  uint64 // cambia en cada apertura o cierre del diálogo
	closers    []func() error
	closed     bool
	lastActive time.Time
}

// NewSession crea una sesión sin iniciar.
func NewSession(id string, deps SessionDeps) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:         id,
		deps:       deps,
		log:        deps.Log.With().Str("session_id", id).Logger(),
		ctx:        ctx,
		cancel:     cancel,
		notice:     notify.NewSurface(deps.NotifyDuration),
		ledger:     realtime.NewList[entity.KardexEntry](nil),
		messages:   realtime.NewList[entity.Message](nil),
		phase:      PhaseIdle,
		lastActive: time.Now(),
	}
}

// ID identificador de la sesión.
func (s *Session) ID() string { return s.id }

// Owner id externo del usuario dueño de la sesión (vacío antes de Start).
func (s *Session) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sc.ExternalUserID
}

// Context contexto de sesión resuelto en Start.
func (s *Session) Context() tenant.SessionContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sc
}

// LastActive momento de la última operación sobre la sesión.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Start resuelve la empresa del usuario, carga kardex, catálogo y mensajes, y se suscribe
// a los cambios. Solo la falta de sesión o de empresa aborta; el resto queda en el texto de error.
func (s *Session) Start(ctx context.Context) error {
	sc, err := s.deps.Resolver.Resolve(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	s.sc = sc
	s.loading = true
	s.lastActive = time.Now()
	s.mu.Unlock()

	companyID := sc.CompanyID()
	var errs []string

	if entries, err := s.deps.Engine.Ledger(ctx, companyID); err != nil {
		s.log.Error().Err(err).Msg("no se pudo cargar el kardex")
		errs = append(errs, domain.MessageOf(err))
	} else {
		s.ledger.Reset(entries)
	}

	snap, err := s.deps.Catalog.Load(ctx, companyID)
	if err != nil {
		s.log.Error().Err(err).Msg("no se pudo cargar el catálogo")
		errs = append(errs, "no se pudo cargar el catálogo de productos")
	}

	if s.deps.Messages != nil {
		if msgs, err := s.deps.Messages.ListByCompany(ctx, companyID, MessageHistory); err != nil {
			s.log.Warn().Err(err).Msg("no se pudieron cargar los mensajes")
		} else {
			s.messages.Reset(msgs)
		}
	}

	closers := s.subscribe(companyID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		for _, c := range closers {
			_ = c()
		}
		return domain.ErrSessionClosed
	}
	s.closers = closers
	if snap != nil {
		s.snapshot = snap
	}
	s.loading = false
	if len(errs) > 0 {
		s.errText = errs[0]
	}
	return nil
}

func (s *Session) subscribe(companyID int64) []func() error {
	if s.deps.Feed == nil {
		return nil
	}
	var closers []func() error

	ledger := realtime.NewPropagator(realtime.TableKardex, companyID, s.ledger, realtime.DecodeMovement, s.log)
	ledger.OnApplied = s.onRemoteChange
	if err := ledger.Start(s.ctx, s.deps.Feed); err != nil {
		s.log.Warn().Err(err).Msg("sin actualizaciones en vivo del kardex")
	} else {
		closers = append(closers, ledger.Close)
	}

	msgs := realtime.NewPropagator(realtime.TableMessages, companyID, s.messages, realtime.DecodeMessage, s.log)
	if err := msgs.Start(s.ctx, s.deps.Feed); err != nil {
		s.log.Warn().Err(err).Msg("sin actualizaciones en vivo de mensajes")
	} else {
		closers = append(closers, msgs.Close)
	}
	return closers
}

func (s *Session) onRemoteChange(evt realtime.ChangeEvent) {
	s.log.Debug().Str("table", evt.Table).Str("type", string(evt.Type)).Msg("cambio remoto aplicado")
}

// OpenMovementDialog abre el diálogo para un tipo de movimiento con todos los campos
// en blanco. Sin catálogo cargado no abre y devuelve ErrCatalogNotLoaded.
func (s *Session) OpenMovementDialog(kind entity.MovementKind) error {
	const op = "kardex.OpenMovementDialog"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	if !kind.Valid() {
		return domain.NewValidationError(op, "tipo de movimiento inválido", nil)
	}
	if s.snapshot == nil {
		return domain.NewValidationError(op, "el catálogo de productos no está disponible", domain.ErrCatalogNotLoaded)
	}
	s.dialog = Dialog{Open: true, Kind: kind}
	s.dialogGen++
	s.phase = PhaseCollectingInput
	s.outcome = OutcomeNone
	return nil
}

// SelectProduct elige el producto del diálogo; debe existir en el catálogo de la empresa.
func (s *Session) SelectProduct(productID int64) error {
	const op = "kardex.SelectProduct"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(op); err != nil {
		return err
	}
	if s.snapshot.Product(productID) == nil {
		return domain.NewValidationError(op, "el producto no existe en el catálogo", domain.ErrNotFound)
	}
	s.dialog.ProductID = productID
	s.dialog.Error = ""
	s.phase = PhaseCollectingInput
	return nil
}

// SetQuantity guarda la cantidad capturada; se valida al registrar.
func (s *Session) SetQuantity(q int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable("kardex.SetQuantity"); err != nil {
		return err
	}
	s.dialog.Quantity = q
	s.dialog.Error = ""
	s.phase = PhaseCollectingInput
	return nil
}

// SetQuery guarda el texto de búsqueda de productos del diálogo.
func (s *Session) SetQuery(q string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable("kardex.SetQuery"); err != nil {
		return err
	}
	s.dialog.Query = q
	s.phase = PhaseCollectingInput
	return nil
}

// FilteredProducts productos del catálogo cuya descripción contiene query.
// No modifica el catálogo: llamarlo repetidamente con "" devuelve siempre lo mismo.
func (s *Session) FilteredProducts(query string) []entity.Product {
	s.mu.Lock()
	snap := s.snapshot
	s.lastActive = time.Now()
	s.mu.Unlock()
	return slices.Collect(snap.Filter(query))
}

// FilteredDetails como FilteredProducts, con la marca y la categoría de cada producto.
func (s *Session) FilteredDetails(query string) []entity.ProductDetail {
	s.mu.Lock()
	snap := s.snapshot
	s.lastActive = time.Now()
	s.mu.Unlock()
	return snap.DetailsOf(snap.Filter(query))
}

// DismissDialog cierra el diálogo sin registrar nada.
func (s *Session) DismissDialog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialog = Dialog{}
	s.dialogGen++
	s.phase = PhaseIdle
	s.lastActive = time.Now()
}

// SaveMovement registra el movimiento capturado en el diálogo. En éxito cierra el diálogo,
// recarga kardex y catálogo y notifica; en falla deja el diálogo abierto con el error.
// Si mientras tanto el diálogo se cerró o se reabrió, el resultado no toca el diálogo nuevo.
func (s *Session) SaveMovement(ctx context.Context) (*entity.Movement, error) {
	const op = "kardex.SaveMovement"
	s.mu.Lock()
	if err := s.editable(op); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	sc := s.sc
	in := MovementInput{
		Product:              s.snapshot.Product(s.dialog.ProductID),
		Kind:                 s.dialog.Kind,
		Quantity:             s.dialog.Quantity,
		ActingUserExternalID: sc.ExternalUserID,
	}
	gen := s.dialogGen
	s.outcome = OutcomeNone
	s.mu.Unlock()

	setPhase := func(p Phase) { s.setPhaseFor(gen, p) }
	mov, err := s.deps.Engine.saveMovement(ctx, sc, in, setPhase)
	if err != nil {
		s.fail(gen, err)
		return nil, err
	}

	setPhase(PhaseRefreshing)
	refreshErr := s.refresh(ctx, sc.CompanyID())

	s.mu.Lock()
	if s.dialogGen == gen {
		s.outcome = OutcomeSuccess
		s.dialog = Dialog{}
		s.dialogGen++
		s.phase = PhaseIdle
	}
	s.mu.Unlock()

	if refreshErr != nil {
		s.notice.Show("Movimiento registrado. "+domain.MessageOf(refreshErr), notify.SeverityInfo)
	} else {
		s.notice.Show("Movimiento registrado correctamente", notify.SeveritySuccess)
	}
	return mov, nil
}

// refresh vuelve a pedir kardex y catálogo. Devuelve la primera falla sin deshacer nada.
func (s *Session) refresh(ctx context.Context, companyID int64) error {
	entries, ledgerErr := s.deps.Engine.Ledger(ctx, companyID)
	if ledgerErr == nil {
		s.ledger.Reset(entries)
	} else {
		s.log.Warn().Err(ledgerErr).Msg("recarga del kardex fallida tras registrar")
	}

	snap, catErr := s.deps.Catalog.Load(ctx, companyID)
	if catErr == nil {
		s.mu.Lock()
		s.snapshot = snap
		s.mu.Unlock()
	} else {
		s.log.Warn().Err(catErr).Msg("recarga del catálogo fallida tras registrar")
		catErr = domain.NewRefreshError("kardex.refresh", catErr)
	}

	s.mu.Lock()
	if ledgerErr == nil && catErr == nil {
		s.errText = ""
	}
	s.mu.Unlock()
	return errors.Join(ledgerErr, catErr)
}

func (s *Session) fail(gen uint64, err error) {
	msg := domain.MessageOf(err)
	s.mu.Lock()
	if s.dialogGen == gen {
		s.phase = PhaseSettled
		s.outcome = OutcomeFailed
		s.dialog.Error = msg
	}
	s.mu.Unlock()
	s.notice.Show(msg, notify.SeverityError)
	s.log.Warn().Err(err).Str("kind", string(domain.KindOf(err))).Msg("no se registró el movimiento")
}

// setPhaseFor cambia la fase solo si el diálogo sigue siendo el de la generación gen.
func (s *Session) setPhaseFor(gen uint64, p Phase) {
	s.mu.Lock()
	if s.dialogGen == gen {
		s.phase = p
	}
	s.mu.Unlock()
}

// RefreshCatalog vuelve a pedir el catálogo completo. En falla conserva el anterior.
func (s *Session) RefreshCatalog(ctx context.Context) error {
	s.mu.Lock()
	if err := s.usable(); err != nil {
		s.mu.Unlock()
		return err
	}
	companyID := s.sc.CompanyID()
	s.mu.Unlock()

	snap, err := s.deps.Catalog.Load(ctx, companyID)
	if err != nil {
		s.notice.Show("no se pudo actualizar el catálogo de productos", notify.SeverityError)
		return err
	}
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
	return nil
}

// State devuelve la foto actual de la sesión. El saldo del kardex se recalcula desde
// las entradas vigentes; nunca se ajusta de forma optimista.
func (s *Session) State() View {
	s.mu.Lock()
	v := View{
		Phase:   s.phase,
		Outcome: s.outcome,
		Company: s.sc.Company,
		Loading: s.loading,
		Error:   s.errText,
		Dialog:  s.dialog,
	}
	snap := s.snapshot
	s.mu.Unlock()

	entries := s.ledger.Items()
	if snap != nil {
		v.CatalogLoadedAt = snap.LoadedAt
		names := make(map[int64]string)
		for _, e := range entries {
			if e.UserName != "" {
				names[e.UserID] = e.UserName
			}
		}
		for i := range entries {
			if entries[i].ProductDescription == "" {
				if p := snap.Product(entries[i].ProductID); p != nil {
					entries[i].ProductDescription = p.Description
				}
			}
			if entries[i].UserName == "" {
				entries[i].UserName = names[entries[i].UserID]
			}
		}
		v.Stock = StockView(snap.Products, entries)
	}
	v.Ledger = Recompute(entries)
	v.Messages = s.messages.Items()
	v.Notification = s.notice.State()
	return v
}

// Close libera suscripciones y temporizadores. Es idempotente.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var errs []error
	for _, c := range closers {
		errs = append(errs, c())
	}
	s.cancel()
	s.notice.Close()
	return errors.Join(errs...)
}

// usable requiere s.mu tomado.
func (s *Session) usable() error {
	if s.closed {
		return domain.ErrSessionClosed
	}
	s.lastActive = time.Now()
	return nil
}

// editable requiere s.mu tomado.
func (s *Session) editable(op string) error {
	if err := s.usable(); err != nil {
		return err
	}
	if !s.dialog.Open {
		return domain.NewValidationError(op, "no hay un movimiento en captura", nil)
	}
	return nil
}

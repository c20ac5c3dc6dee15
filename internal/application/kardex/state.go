package kardex

import (
	"time"

	"github.com/jhoicas/Kardex-api/internal/application/notify"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// Phase etapa de la sesión respecto del registro de un movimiento.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseCollectingInput Phase = "collecting_input"
	PhaseValidating      Phase = "validating"
	PhaseResolving       Phase = "resolving"
	PhaseWriting         Phase = "writing"
	PhaseRefreshing      Phase = "refreshing"
	PhaseSettled         Phase = "settled"
)

// Outcome resultado del último intento de registro.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// Dialog estado del diálogo de captura de un movimiento.
type Dialog struct {
	Open      bool
	Kind      entity.MovementKind
	ProductID int64
	Quantity  int64
	Query     string
	Error     string
}

// View es la foto del estado de una sesión que consume la interfaz.
type View struct {
	Phase           Phase
	Outcome         Outcome
	Company         *entity.Company
	Ledger          []entity.KardexEntry
	Stock           []StockLine
	Messages        []entity.Message
	Loading         bool
	Error           string
	Dialog          Dialog
	Notification    notify.State
	CatalogLoadedAt time.Time
}

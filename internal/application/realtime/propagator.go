package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrPropagatorClosed se devuelve al iniciar un propagador ya cerrado.
var ErrPropagatorClosed = errors.New("propagador cerrado")

// Propagator aplica los eventos de una tabla a una List, filtrando por empresa.
// Es dueño de la suscripción: Close la libera en cualquier camino de salida.
type Propagator[T Record] struct {
	table     string
	companyID int64
	list      *List[T]
	decode    Decoder[T]
	log       zerolog.Logger

	// OnApplied se invoca después de aplicar un evento a la lista.
	OnApplied func(ChangeEvent)

	mu     sync.Mutex
	sub    Subscription
	closed bool
}

// NewPropagator crea el propagador de table para la empresa companyID.
func NewPropagator[T Record](table string, companyID int64, list *List[T], decode Decoder[T], log zerolog.Logger) *Propagator[T] {
	return &Propagator[T]{
		table:     table,
		companyID: companyID,
		list:      list,
		decode:    decode,
		log:       log.With().Str("table", table).Int64("company_id", companyID).Logger(),
	}
}

// Start se suscribe al feed. Llamarlo dos veces no duplica la suscripción.
func (p *Propagator[T]) Start(ctx context.Context, feed Feed) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPropagatorClosed
	}
	if p.sub != nil {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	sub, err := feed.Subscribe(ctx, p.table, p.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", p.table, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.sub != nil {
		// Close o un Start concurrente ganó la carrera.
		_ = sub.Close()
		if p.closed {
			return ErrPropagatorClosed
		}
		return nil
	}
	p.sub = sub
	return nil
}

func (p *Propagator[T]) handle(evt ChangeEvent) {
	applied, err := p.Apply(evt)
	if err != nil {
		p.log.Warn().Err(err).Str("type", string(evt.Type)).Msg("evento de cambio descartado")
		return
	}
	if applied && p.OnApplied != nil {
		p.OnApplied(evt)
	}
}

// Apply aplica un evento a la lista. Devuelve false cuando el evento se ignora
// (otra tabla, otra empresa, propagador cerrado o actualización sin fila previa).
func (p *Propagator[T]) Apply(evt ChangeEvent) (bool, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed || evt.Table != p.table {
		return false, nil
	}
	if !evt.Concerns(p.companyID) {
		return false, nil
	}

	switch evt.Type {
	case EventInsert:
		rec, err := p.decode(evt.New)
		if err != nil {
			return false, err
		}
		p.list.Insert(rec)
		return true, nil
	case EventUpdate:
		oldID, err := rowID(evt.Old)
		if err != nil {
			return false, err
		}
		rec, err := p.decode(evt.New)
		if err != nil {
			return false, err
		}
		return p.list.Replace(oldID, rec), nil
	case EventDelete:
		oldID, err := rowID(evt.Old)
		if err != nil {
			return false, err
		}
		return p.list.Remove(oldID), nil
	case EventTruncate:
		p.list.Clear()
		return true, nil
	default:
		return false, fmt.Errorf("tipo de evento desconocido %q", evt.Type)
	}
}

// Close libera la suscripción. Es idempotente.
func (p *Propagator[T]) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	sub := p.sub
	p.sub = nil
	p.mu.Unlock()

	if sub == nil {
		return nil
	}
	if err := sub.Close(); err != nil {
		return fmt.Errorf("close subscription %s: %w", p.table, err)
	}
	p.log.Debug().Msg("suscripción liberada")
	return nil
}

package testutil

import (
	"context"
	"sync"

	"github.com/jhoicas/Kardex-api/internal/application/realtime"
)

// Feed es un feed de cambios en memoria que entrega los eventos de forma síncrona.
type Feed struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func(realtime.ChangeEvent)
	err    error
}

// NewFeed crea un feed vacío.
func NewFeed() *Feed {
	return &Feed{subs: make(map[string]map[int]func(realtime.ChangeEvent))}
}

// FailSubscribe hace que Subscribe devuelva err.
func (f *Feed) FailSubscribe(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// Subscribe registra onEvent para la tabla.
func (f *Feed) Subscribe(_ context.Context, table string, onEvent func(realtime.ChangeEvent)) (realtime.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	if f.subs[table] == nil {
		f.subs[table] = make(map[int]func(realtime.ChangeEvent))
	}
	f.subs[table][f.nextID] = onEvent
	return &feedSub{feed: f, table: table, id: f.nextID}, nil
}

// Publish entrega el evento a los suscriptores.
func (f *Feed) Publish(_ context.Context, evt realtime.ChangeEvent) error {
	f.Emit(evt)
	return nil
}

// Emit entrega el evento a todos los suscriptores de su tabla.
func (f *Feed) Emit(evt realtime.ChangeEvent) {
	f.mu.Lock()
	handlers := make([]func(realtime.ChangeEvent), 0, len(f.subs[evt.Table]))
	for _, h := range f.subs[evt.Table] {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()
	for _, h := range handlers {
		h(evt)
	}
}

// Subscribers cantidad de suscripciones activas a la tabla.
func (f *Feed) Subscribers(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[table])
}

type feedSub struct {
	feed  *Feed
	table string
	id    int
}

func (s *feedSub) Close() error {
	s.feed.mu.Lock()
	delete(s.feed.subs[s.table], s.id)
	s.feed.mu.Unlock()
	return nil
}

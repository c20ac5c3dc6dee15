// Package pubsub implementa el feed de cambios sobre Redis pub/sub: un canal por tabla
// (realtime:<tabla>) con el ChangeEvent serializado en JSON.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Kardex-api/internal/application/realtime"
	"github.com/jhoicas/Kardex-api/pkg/config"
)

var (
	_ realtime.Feed      = (*Feed)(nil)
	_ realtime.Publisher = (*Feed)(nil)
)

// NewClient crea el cliente Redis y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pubsub: ping: %w", err)
	}
	return client, nil
}

// Channel nombre del canal Redis de una tabla.
func Channel(table string) string {
	return "realtime:" + table
}

// Feed publica y entrega cambios de fila a través de Redis.
type Feed struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewFeed construye el feed sobre un cliente existente.
func NewFeed(client *redis.Client, log zerolog.Logger) *Feed {
	return &Feed{client: client, log: log}
}

// Publish serializa el evento y lo publica en el canal de su tabla.
func (f *Feed) Publish(ctx context.Context, evt realtime.ChangeEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("pubsub: encode: %w", err)
	}
	if err := f.client.Publish(ctx, Channel(evt.Table), payload).Err(); err != nil {
		return fmt.Errorf("pubsub: publish %s: %w", evt.Table, err)
	}
	return nil
}

// Subscribe se suscribe al canal de la tabla y entrega cada evento a onEvent desde una
// goroutine propia. La suscripción termina con Close o cuando ctx se cancela.
func (f *Feed) Subscribe(ctx context.Context, table string, onEvent func(realtime.ChangeEvent)) (realtime.Subscription, error) {
	ps := f.client.Subscribe(ctx, Channel(table))
	// Receive confirma la suscripción antes de devolver: nada publicado después se pierde.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("pubsub: subscribe %s: %w", table, err)
	}

	sub := &subscription{ps: ps, done: make(chan struct{})}
	log := f.log.With().Str("table", table).Logger()
	go func() {
		defer close(sub.done)
		for msg := range ps.Channel() {
			if sub.closing.Load() {
				continue
			}
			var evt realtime.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				log.Warn().Err(err).Msg("evento de cambio ilegible")
				continue
			}
			onEvent(evt)
		}
	}()
	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

type subscription struct {
	ps      *redis.PubSub
	once    sync.Once
	err     error
	closing atomic.Bool
	done    chan struct{}
}

// Close corta la entrega y espera a que termine el onEvent en curso: al volver, onEvent
// ya no se ejecuta más. No debe llamarse desde dentro de onEvent.
func (s *subscription) Close() error {
	s.once.Do(func() {
		s.closing.Store(true)
		s.err = s.ps.Close()
	})
	<-s.done
	return s.err
}

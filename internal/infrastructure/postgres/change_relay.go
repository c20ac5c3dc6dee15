package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Kardex-api/internal/application/realtime"
)

// ChangeRelay escucha el canal de pg_notify que alimentan los triggers de kardex y messages
// y republica cada cambio en el feed.
type ChangeRelay struct {
	pool      *pgxpool.Pool
	channel   string
	publisher realtime.Publisher
	log       zerolog.Logger
	backoff   time.Duration
}

// NewChangeRelay construye el relay para el canal indicado.
func NewChangeRelay(pool *pgxpool.Pool, channel string, publisher realtime.Publisher, log zerolog.Logger) *ChangeRelay {
	return &ChangeRelay{
		pool:      pool,
		channel:   channel,
		publisher: publisher,
		log:       log.With().Str("channel", channel).Logger(),
		backoff:   2 * time.Second,
	}
}

// Run escucha hasta que ctx termine. Si la conexión se pierde, vuelve a escuchar tras una pausa;
// los cambios ocurridos mientras tanto los recupera cada sesión con su recarga completa.
func (r *ChangeRelay) Run(ctx context.Context) error {
	for {
		err := r.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		r.log.Warn().Err(err).Dur("retry_in", r.backoff).Msg("relay de cambios desconectado")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.backoff):
		}
	}
}

func (r *ChangeRelay) listen(ctx context.Context) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{r.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	r.log.Info().Msg("escuchando cambios")

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait notification: %w", err)
		}
		evt, err := decodeNotification(n.Payload)
		if err != nil {
			r.log.Warn().Err(err).Msg("notificación descartada")
			continue
		}
		if err := r.publisher.Publish(ctx, evt); err != nil {
			r.log.Error().Err(err).Str("table", evt.Table).Msg("no se pudo publicar el cambio")
		}
	}
}

// decodeNotification convierte el payload que arma notify_change() en un ChangeEvent.
func decodeNotification(payload string) (realtime.ChangeEvent, error) {
	var evt realtime.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		return evt, fmt.Errorf("decode notification: %w", err)
	}
	if evt.Table == "" || evt.Type == "" {
		return evt, errors.New("decode notification: falta tabla o tipo")
	}
	if string(evt.Old) == "null" {
		evt.Old = nil
	}
	if string(evt.New) == "null" {
		evt.New = nil
	}
	return evt, nil
}

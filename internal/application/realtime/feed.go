// Package realtime aplica al estado en memoria los cambios de fila que empuja el
// almacén (inserciones, actualizaciones y borrados de otras sesiones).
package realtime

import (
	"context"
	"encoding/json"
	"time"
)

// Tablas con feed de cambios.
const (
	TableKardex   = "kardex"
	TableMessages = "messages"
)

// EventType tipo de cambio de fila.
type EventType string

const (
	EventInsert   EventType = "INSERT"
	EventUpdate   EventType = "UPDATE"
	EventDelete   EventType = "DELETE"
	EventTruncate EventType = "TRUNCATE"
)

// ChangeEvent es un cambio de fila tal como lo publica el almacén.
// Old y New son las filas crudas; se decodifican en el límite con un Decoder.
type ChangeEvent struct {
	Table           string          `json:"table"`
	Type            EventType       `json:"type"`
	CompanyID       int64           `json:"company_id"`
	Old             json.RawMessage `json:"old,omitempty"`
	New             json.RawMessage `json:"new,omitempty"`
	CommitTimestamp time.Time       `json:"commit_timestamp"`
}

// Concerns indica si el cambio afecta a la empresa. TRUNCATE es de sentencia: llega sin
// empresa y afecta a todas.
func (e ChangeEvent) Concerns(companyID int64) bool {
	return e.CompanyID == companyID || (e.Type == EventTruncate && e.CompanyID == 0)
}

// Subscription es el recurso que mantiene viva una suscripción al feed.
// Close debe llamarse en todo camino de salida del contexto que la creó.
type Subscription interface {
	Close() error
}

// Feed es el contrato del canal de notificaciones push por tabla.
type Feed interface {
	Subscribe(ctx context.Context, table string, onEvent func(ChangeEvent)) (Subscription, error)
}

// Publisher publica cambios de fila en el feed.
type Publisher interface {
	Publish(ctx context.Context, evt ChangeEvent) error
}

// Package notify implementa la superficie de notificaciones transitorias (toasts)
// que consumen el motor del kardex y el shell de UI.
package notify

import (
	"sync"
	"time"
)

// Severity nivel de una notificación.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// DefaultDuration tiempo de vida de una notificación antes de ocultarse sola.
const DefaultDuration = 5 * time.Second

// State es la notificación observable en un instante dado.
type State struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Visible  bool     `json:"visible"`
}

// Surface mantiene como máximo una notificación visible. Show reemplaza la anterior
// y reinicia el temporizador; las notificaciones nunca se apilan.
type Surface struct {
	mu       sync.Mutex
	duration time.Duration
	state    State
	timer    *time.Timer
	gen      uint64
	closed   bool
}

// NewSurface construye la superficie. duration <= 0 usa DefaultDuration.
func NewSurface(duration time.Duration) *Surface {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Surface{duration: duration, state: State{Severity: SeverityInfo}}
}

// Show muestra el mensaje, cancelando el temporizador pendiente antes de iniciar uno nuevo.
func (s *Surface) Show(message string, severity Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.state = State{Message: message, Severity: severity, Visible: true}
	s.timer = time.AfterFunc(s.duration, func() { s.dismiss(gen) })
}

// dismiss oculta la notificación solo si no fue reemplazada desde que se programó.
func (s *Surface) dismiss(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.state.Visible = false
	s.state.Message = ""
	s.timer = nil
}

// State devuelve una copia del estado actual.
func (s *Surface) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close detiene el temporizador pendiente. Show posterior no tiene efecto.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.closed = true
	s.gen++
}

package kardex

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Kardex-api/internal/domain"
)

// Registry es dueño de las sesiones abiertas. Cada sesión queda ligada al id externo
// del usuario que la creó y solo ese usuario puede usarla.
type Registry struct {
	deps SessionDeps
	log  zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry construye el registro de sesiones.
func NewRegistry(deps SessionDeps) *Registry {
	return &Registry{deps: deps, log: deps.Log, sessions: make(map[string]*Session)}
}

// Create abre e inicia una sesión para el usuario autenticado en ctx.
func (r *Registry) Create(ctx context.Context) (*Session, error) {
	s := NewSession(uuid.NewString(), r.deps)
	if err := s.Start(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
	r.log.Info().Str("session_id", s.ID()).Int64("company_id", s.Context().CompanyID()).Msg("sesión de kardex abierta")
	return s, nil
}

// Get devuelve la sesión si existe y pertenece a owner.
func (r *Registry) Get(id, owner string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok || s.Owner() != owner {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// Close cierra y quita la sesión.
func (r *Registry) Close(id, owner string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok || s.Owner() != owner {
		r.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(r.sessions, id)
	r.mu.Unlock()
	return s.Close()
}

// CloseAll cierra todas las sesiones (apagado del servidor).
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for id, s := range sessions {
		if err := s.Close(); err != nil {
			r.log.Warn().Err(err).Str("session_id", id).Msg("error al cerrar sesión")
		}
	}
}

// Sweep cierra las sesiones sin actividad desde hace más de idle. Devuelve cuántas cerró.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	var stale []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()
	for _, s := range stale {
		_ = s.Close()
	}
	if len(stale) > 0 {
		r.log.Info().Int("count", len(stale)).Msg("sesiones inactivas cerradas")
	}
	return len(stale)
}

// RunSweeper ejecuta Sweep cada interval hasta que ctx termine.
func (r *Registry) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(idle)
		}
	}
}

// Len cantidad de sesiones abiertas.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

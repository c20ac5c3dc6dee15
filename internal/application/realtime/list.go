package realtime

import (
	"slices"
	"sync"
	"time"
)

// Record es una fila identificable y ordenable por tiempo.
type Record interface {
	RecordID() int64
	OccurredAt() time.Time
}

// List mantiene registros ordenados por tiempo ascendente (desempate por id).
// Toda mutación agrega, reemplaza o elimina registros completos por identificador.
type List[T Record] struct {
	mu    sync.RWMutex
	items []T
}

// NewList construye la lista ordenando los registros iniciales.
func NewList[T Record](items []T) *List[T] {
	l := &List[T]{}
	l.Reset(items)
	return l
}

// Reset reemplaza todo el contenido (recarga completa desde el almacén).
func (l *List[T]) Reset(items []T) {
	cp := slices.Clone(items)
	sortRecords(cp)
	l.mu.Lock()
	l.items = cp
	l.mu.Unlock()
}

// Items devuelve una copia del contenido actual.
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.items)
}

// Len cantidad de registros.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Insert agrega el registro y reordena: el feed no garantiza orden de llegada.
// Si ya existe un registro con el mismo id (p. ej. tras una recarga completa) se reemplaza.
func (l *List[T]) Insert(rec T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.index(rec.RecordID()); i >= 0 {
		l.items[i] = rec
	} else {
		l.items = append(l.items, rec)
	}
	sortRecords(l.items)
}

// Replace sustituye el registro con id oldID. Devuelve false si no existe (caché
// desactualizada); en ese caso no se agrega para evitar duplicados.
func (l *List[T]) Replace(oldID int64, rec T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.index(oldID)
	if i < 0 {
		return false
	}
	l.items[i] = rec
	sortRecords(l.items)
	return true
}

// Remove elimina el registro con el id dado. Un id inexistente no hace nada.
func (l *List[T]) Remove(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.items = slices.Delete(l.items, i, i+1)
	return true
}

// Clear vacía la lista.
func (l *List[T]) Clear() {
	l.mu.Lock()
	l.items = nil
	l.mu.Unlock()
}

func (l *List[T]) index(id int64) int {
	return slices.IndexFunc(l.items, func(r T) bool { return r.RecordID() == id })
}

func sortRecords[T Record](items []T) {
	slices.SortStableFunc(items, func(a, b T) int {
		if c := a.OccurredAt().Compare(b.OccurredAt()); c != 0 {
			return c
		}
		switch {
		case a.RecordID() < b.RecordID():
			return -1
		case a.RecordID() > b.RecordID():
			return 1
		}
		return 0
	})
}

package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrUserNotFound      = errors.New("usuario no encontrado")
	ErrCompanyNotFound   = errors.New("empresa no encontrada para el usuario")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrCatalogNotLoaded  = errors.New("catálogo no disponible")
	ErrSessionClosed     = errors.New("sesión cerrada")
)

// ErrorKind clasifica las fallas según la acción que debe tomar quien las recibe.
type ErrorKind string

const (
	KindAuth             ErrorKind = "auth"              // sin sesión: redirigir a login
	KindTenantResolution ErrorKind = "tenant_resolution" // usuario sin empresa o sin id interno
	KindValidation       ErrorKind = "validation"        // entrada inválida, el diálogo sigue abierto
	KindPersistence      ErrorKind = "persistence"       // el movimiento NO quedó registrado
	KindRefresh          ErrorKind = "refresh"           // el movimiento sí quedó registrado; vista desactualizada
	KindUnknown          ErrorKind = "unknown"
)

// Error es la falla tipada que cruza los límites de cada componente.
// Message es apto para mostrar al usuario; Err conserva la causa para errors.Is/As.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewAuthError no hay sesión autenticada.
func NewAuthError(op string, cause error) *Error {
	return &Error{Kind: KindAuth, Op: op, Message: "usuario no autenticado", Err: cause}
}

// NewTenantResolutionError el usuario no tiene empresa asignada o no se pudo mapear su id.
func NewTenantResolutionError(op, message string, cause error) *Error {
	return &Error{Kind: KindTenantResolution, Op: op, Message: message, Err: cause}
}

// NewValidationError entrada inválida; no se realizó ninguna escritura.
func NewValidationError(op, message string, cause error) *Error {
	if cause == nil {
		cause = ErrInvalidInput
	}
	return &Error{Kind: KindValidation, Op: op, Message: message, Err: cause}
}

// NewPersistenceError el almacén reportó un error de lectura o escritura.
func NewPersistenceError(op string, cause error) *Error {
	return &Error{Kind: KindPersistence, Op: op, Message: "no se pudo completar la operación en el almacén", Err: cause}
}

// NewRefreshError la recarga posterior a una escritura falló.
func NewRefreshError(op string, cause error) *Error {
	return &Error{Kind: KindRefresh, Op: op, Message: "no se pudo actualizar la vista del kardex", Err: cause}
}

// KindOf devuelve la clase de la falla, KindUnknown si no es un *Error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// MessageOf devuelve el mensaje para el usuario asociado al error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

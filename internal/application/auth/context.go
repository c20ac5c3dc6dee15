// Package auth expone la identidad autenticada del proveedor externo dentro del contexto
// de la solicitud. La validación del token la hace el middleware HTTP con pkg/jwt.
package auth

import (
	"context"
	"strings"
)

type ctxKey struct{}

// Identity es el sujeto autenticado: el id opaco del proveedor de auth y su email si vino en el token.
type Identity struct {
	ExternalID string
	Email      string
}

// WithIdentity devuelve un contexto que transporta la identidad autenticada.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext devuelve la identidad del contexto. ok es false si no hay sesión
// o el id externo está vacío.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || strings.TrimSpace(id.ExternalID) == "" {
		return Identity{}, false
	}
	return id, true
}

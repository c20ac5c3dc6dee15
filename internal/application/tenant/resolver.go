// Package tenant resuelve, a partir de la identidad autenticada, la empresa activa y el
// id interno del usuario. Es la única fuente del contexto de sesión que consumen los demás componentes.
package tenant

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Kardex-api/internal/application/auth"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// DefaultUserCacheTTL vigencia por defecto del mapeo id externo -> id interno.
const DefaultUserCacheTTL = 5 * time.Minute

// SessionContext es el contexto resuelto una sola vez por sesión e inyectado en los
// componentes que lo necesitan.
type SessionContext struct {
	ExternalUserID string
	Company        *entity.Company
}

// CompanyID devuelve el id de la empresa activa o 0 si no hay.
func (sc SessionContext) CompanyID() int64 {
	if sc.Company == nil {
		return 0
	}
	return sc.Company.ID
}

type cachedUser struct {
	userID  int64
	expires time.Time
}

// Resolver resuelve identidades y empresa. Sin efectos sobre el almacén; seguro para uso concurrente.
type Resolver struct {
	users     repository.UserRepository
	companies repository.CompanyRepository
	ttl       time.Duration
	now       func() time.Time
	log       zerolog.Logger

	mu    sync.RWMutex
	cache map[string]cachedUser
}

// NewResolver construye el resolver. ttl <= 0 usa DefaultUserCacheTTL.
func NewResolver(users repository.UserRepository, companies repository.CompanyRepository, ttl time.Duration, log zerolog.Logger) *Resolver {
	if ttl <= 0 {
		ttl = DefaultUserCacheTTL
	}
	return &Resolver{
		users:     users,
		companies: companies,
		ttl:       ttl,
		now:       time.Now,
		log:       log,
		cache:     make(map[string]cachedUser),
	}
}

// ResolveCurrentUserID devuelve el id externo del usuario autenticado.
func (r *Resolver) ResolveCurrentUserID(ctx context.Context) (string, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return "", domain.NewAuthError("tenant.ResolveCurrentUserID", domain.ErrUnauthorized)
	}
	return id.ExternalID, nil
}

// ResolveInternalUserID mapea el id externo al id interno de usuarios. Falla cerrado:
// sin mapeo no hay id, nunca se usa el id externo como sustituto.
func (r *Resolver) ResolveInternalUserID(ctx context.Context, externalID string) (int64, error) {
	const op = "tenant.ResolveInternalUserID"
	if externalID == "" {
		return 0, domain.NewAuthError(op, domain.ErrUnauthorized)
	}
	now := r.now()
	r.mu.RLock()
	entry, ok := r.cache[externalID]
	r.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.userID, nil
	}

	user, err := r.users.GetByAuthID(ctx, externalID)
	if err != nil {
		return 0, domain.NewPersistenceError(op, err)
	}
	if user == nil {
		return 0, domain.NewTenantResolutionError(op, "el usuario no está registrado en la aplicación", domain.ErrUserNotFound)
	}

	r.mu.Lock()
	r.cache[externalID] = cachedUser{userID: user.ID, expires: now.Add(r.ttl)}
	r.mu.Unlock()
	return user.ID, nil
}

// ResolveTenantForUser devuelve la empresa asignada al usuario identificado por su id externo.
func (r *Resolver) ResolveTenantForUser(ctx context.Context, externalID string) (*entity.Company, error) {
	const op = "tenant.ResolveTenantForUser"
	userID, err := r.ResolveInternalUserID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	company, err := r.companies.GetByUserID(ctx, userID)
	if err != nil {
		return nil, domain.NewPersistenceError(op, err)
	}
	if company == nil {
		return nil, domain.NewTenantResolutionError(op, "el usuario no tiene una empresa asignada", domain.ErrCompanyNotFound)
	}
	return company, nil
}

// Resolve construye el SessionContext del usuario autenticado en ctx.
func (r *Resolver) Resolve(ctx context.Context) (SessionContext, error) {
	externalID, err := r.ResolveCurrentUserID(ctx)
	if err != nil {
		return SessionContext{}, err
	}
	company, err := r.ResolveTenantForUser(ctx, externalID)
	if err != nil {
		r.log.Debug().Err(err).Str("auth_id", externalID).Msg("no se pudo resolver la empresa")
		return SessionContext{}, err
	}
	return SessionContext{ExternalUserID: externalID, Company: company}, nil
}

// HasModule informa si el usuario identificado por su id externo tiene permiso sobre el módulo.
func (r *Resolver) HasModule(ctx context.Context, externalID, module string) (bool, error) {
	userID, err := r.ResolveInternalUserID(ctx, externalID)
	if err != nil {
		return false, err
	}
	ok, err := r.users.HasModule(ctx, userID, module)
	if err != nil {
		return false, domain.NewPersistenceError("tenant.HasModule", err)
	}
	return ok, nil
}

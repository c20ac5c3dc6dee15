package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/domain"
)

// moduleChecker es el contrato mínimo que necesita el middleware para verificar permisos.
// Lo implementa *tenant.Resolver.
type moduleChecker interface {
	HasModule(ctx context.Context, externalID, module string) (bool, error)
}

// RequireModule devuelve un middleware Fiber que verifica que el usuario del token tenga
// permiso sobre el módulo (permisos → modulos). Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - 401 si no hay usuario en el contexto.
//   - 403 si el usuario no tiene el módulo o no está registrado.
//   - 503 si falla la consulta.
func RequireModule(moduleName string, checker moduleChecker, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "usuario no encontrado en el token",
			})
		}

		allowed, err := checker.HasModule(c.UserContext(), userID, moduleName)
		if err != nil {
			if domain.KindOf(err) == domain.KindTenantResolution {
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
					Code:    "USER_NOT_REGISTERED",
					Message: domain.MessageOf(err),
				})
			}
			log.Error().Err(err).Str("module", moduleName).Msg("verificación de módulo fallida")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "MODULE_CHECK_FAILED",
				Message: "no se pudo verificar el módulo, intente más tarde",
			})
		}

		if !allowed {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "MODULE_DISABLED",
				Message: "el usuario no tiene acceso al módulo '" + moduleName + "'",
			})
		}

		return c.Next()
	}
}

package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/domain"
)

// respondError traduce una falla de la capa de aplicación a status y código HTTP.
func respondError(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: domain.MessageOf(err)})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSessionClosed):
		return fiber.StatusGone, "SESSION_CLOSED"
	}
	switch domain.KindOf(err) {
	case domain.KindAuth:
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case domain.KindTenantResolution:
		return fiber.StatusForbidden, "TENANT_NOT_RESOLVED"
	case domain.KindValidation:
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return fiber.StatusForbidden, "FORBIDDEN"
		case errors.Is(err, domain.ErrInsufficientStock):
			return fiber.StatusConflict, "INSUFFICIENT_STOCK"
		case errors.Is(err, domain.ErrCatalogNotLoaded):
			return fiber.StatusConflict, "CATALOG_NOT_LOADED"
		case errors.Is(err, domain.ErrNotFound):
			return fiber.StatusNotFound, "NOT_FOUND"
		}
		return fiber.StatusUnprocessableEntity, "VALIDATION"
	case domain.KindPersistence:
		return fiber.StatusServiceUnavailable, "PERSISTENCE"
	case domain.KindRefresh:
		return fiber.StatusBadGateway, "REFRESH_FAILED"
	}
	if errors.Is(err, domain.ErrNotFound) {
		return fiber.StatusNotFound, "NOT_FOUND"
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

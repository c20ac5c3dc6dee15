package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/application/kardex"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// sessionRegistry lo que el handler usa del registro de sesiones.
type sessionRegistry interface {
	Create(ctx context.Context) (*kardex.Session, error)
	Get(id, owner string) (*kardex.Session, error)
	Close(id, owner string) error
	Len() int
}

// SessionHandler expone las sesiones de captura del kardex (protegido). Cada sesión
// mantiene su kardex al día con el feed de cambios mientras esté abierta.
type SessionHandler struct {
	registry sessionRegistry
}

// NewSessionHandler construye el handler.
func NewSessionHandler(registry sessionRegistry) *SessionHandler {
	return &SessionHandler{registry: registry}
}

func (h *SessionHandler) session(c *fiber.Ctx) (*kardex.Session, error) {
	return h.registry.Get(c.Params("id"), GetUserID(c))
}

func (h *SessionHandler) state(c *fiber.Ctx, s *kardex.Session, status int) error {
	return c.Status(status).JSON(sessionResponse(s.ID(), s.State()))
}

// Create godoc
// @Summary      Abrir sesión de kardex
// @Description  Resuelve la empresa del usuario, carga kardex, catálogo y mensajes y se suscribe a los cambios.
// @Tags         sessions
// @Security     Bearer
// @Produce      json
// @Success      201  {object}  dto.SessionResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/sessions [post]
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	s, err := h.registry.Create(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return h.state(c, s, fiber.StatusCreated)
}

// Get godoc
// @Summary      Estado de la sesión
// @Tags         sessions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.SessionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sessions/{id} [get]
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	return h.state(c, s, fiber.StatusOK)
}

// Close godoc
// @Summary      Cerrar sesión de kardex
// @Tags         sessions
// @Security     Bearer
// @Param        id   path  string  true  "ID de la sesión"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sessions/{id} [delete]
func (h *SessionHandler) Close(c *fiber.Ctx) error {
	if err := h.registry.Close(c.Params("id"), GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// OpenDialog godoc
// @Summary      Abrir diálogo de movimiento
// @Description  Abre el diálogo con todos los campos en blanco para el tipo indicado.
// @Tags         sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la sesión"
// @Param        body  body  dto.OpenDialogRequest  true  "kind: entrada|salida"
// @Success      200   {object}  dto.SessionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sessions/{id}/dialog [post]
func (h *SessionHandler) OpenDialog(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	var in dto.OpenDialogRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	if err := s.OpenMovementDialog(entity.MovementKind(in.Kind)); err != nil {
		return respondError(c, err)
	}
	return h.state(c, s, fiber.StatusOK)
}

// UpdateDialog godoc
// @Summary      Editar diálogo de movimiento
// @Tags         sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID de la sesión"
// @Param        body  body  dto.UpdateDialogRequest  true  "product_id, quantity, query"
// @Success      200   {object}  dto.SessionResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/sessions/{id}/dialog [patch]
func (h *SessionHandler) UpdateDialog(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateDialogRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	if in.Query != nil {
		if err := s.SetQuery(*in.Query); err != nil {
			return respondError(c, err)
		}
	}
	if in.ProductID != nil {
		if err := s.SelectProduct(*in.ProductID); err != nil {
			return respondError(c, err)
		}
	}
	if in.Quantity != nil {
		qty, err := kardex.QuantityFromFloat(*in.Quantity)
		if err != nil {
			return respondError(c, err)
		}
		if err := s.SetQuantity(qty); err != nil {
			return respondError(c, err)
		}
	}
	return h.state(c, s, fiber.StatusOK)
}

// DismissDialog godoc
// @Summary      Cerrar diálogo sin registrar
// @Tags         sessions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.SessionResponse
// @Router       /api/sessions/{id}/dialog [delete]
func (h *SessionHandler) DismissDialog(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	s.DismissDialog()
	return h.state(c, s, fiber.StatusOK)
}

// SaveMovement godoc
// @Summary      Registrar el movimiento del diálogo
// @Description  En éxito cierra el diálogo y recarga kardex y catálogo; en falla el diálogo queda abierto con el error.
// @Tags         sessions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      201  {object}  dto.SessionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/sessions/{id}/movements [post]
func (h *SessionHandler) SaveMovement(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	if _, err := s.SaveMovement(c.UserContext()); err != nil {
		return respondError(c, err)
	}
	return h.state(c, s, fiber.StatusCreated)
}

// Products godoc
// @Summary      Productos del catálogo de la sesión
// @Tags         sessions
// @Security     Bearer
// @Produce      json
// @Param        id   path   string  true   "ID de la sesión"
// @Param        q    query  string  false  "Filtro por descripción"
// @Success      200  {array}   dto.ProductResponse
// @Router       /api/sessions/{id}/products [get]
func (h *SessionHandler) Products(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewProductResponses(s.FilteredDetails(c.Query("q"))))
}

// RefreshCatalog godoc
// @Summary      Recargar el catálogo de la sesión
// @Tags         sessions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.SessionResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/sessions/{id}/catalog/refresh [post]
func (h *SessionHandler) RefreshCatalog(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.RefreshCatalog(c.UserContext()); err != nil {
		return respondError(c, err)
	}
	return h.state(c, s, fiber.StatusOK)
}

package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/application/kardex"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// MessageHandler maneja el panel de mensajes de la empresa (protegido).
type MessageHandler struct {
	resolver kardex.SessionResolver
	messages repository.MessageRepository
}

// NewMessageHandler construye el handler.
func NewMessageHandler(resolver kardex.SessionResolver, messages repository.MessageRepository) *MessageHandler {
	return &MessageHandler{resolver: resolver, messages: messages}
}

// List godoc
// @Summary      Últimos mensajes del panel
// @Tags         messages
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Cantidad máxima"  default(50)
// @Success      200    {array}   dto.MessageResponse
// @Failure      403    {object}  dto.ErrorResponse
// @Router       /api/messages [get]
func (h *MessageHandler) List(c *fiber.Ctx) error {
	sc, err := h.resolver.Resolve(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	limit := c.QueryInt("limit", kardex.MessageHistory)
	if limit <= 0 {
		limit = kardex.MessageHistory
	}
	if limit > 200 {
		limit = 200
	}
	msgs, err := h.messages.ListByCompany(c.UserContext(), sc.CompanyID(), limit)
	if err != nil {
		return respondError(c, domain.NewPersistenceError("messages.List", err))
	}
	return c.JSON(dto.NewMessageResponses(msgs))
}

// Create godoc
// @Summary      Publicar mensaje en el panel
// @Tags         messages
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateMessageRequest  true  "Contenido"
// @Success      201   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/messages [post]
func (h *MessageHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateMessageRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "el mensaje está vacío"})
	}
	sc, err := h.resolver.Resolve(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	author := GetEmail(c)
	if author == "" {
		author = sc.ExternalUserID
	}
	msg := &entity.Message{CompanyID: sc.CompanyID(), Author: author, Content: content}
	if err := h.messages.Create(c.UserContext(), msg); err != nil {
		return respondError(c, domain.NewPersistenceError("messages.Create", err))
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewMessageResponses([]entity.Message{*msg})[0])
}

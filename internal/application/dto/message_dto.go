package dto

import (
	"time"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// CreateMessageRequest entrada para publicar un mensaje en el panel.
type CreateMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

// MessageResponse mensaje del panel.
type MessageResponse struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessageResponses mapea mensajes.
func NewMessageResponses(msgs []entity.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessageResponse{ID: m.ID, Author: m.Author, Content: m.Content, CreatedAt: m.CreatedAt})
	}
	return out
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Kardex-api/internal/application/dto"
)

// sessionCounter cantidad de sesiones abiertas.
type sessionCounter interface {
	Len() int
}

// Health godoc
// @Summary      Estado del servicio
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.HealthResponse
// @Router       /health [get]
func Health(sessions sessionCounter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n := 0
		if sessions != nil {
			n = sessions.Len()
		}
		return c.JSON(dto.HealthResponse{Status: "ok", Sessions: n})
	}
}

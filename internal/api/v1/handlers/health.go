package handlers

import (
	"community-service/internal/api/response"
	"community-service/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) Health(c *fiber.Ctx) error {
	if err := h.deps.DB.PingContext(c.UserContext()); err != nil {
		return apperr.Wrap(apperr.Internal, err, "Database unreachable")
	}
	return response.OK(c, "OK", fiber.Map{"database": "up"})
}

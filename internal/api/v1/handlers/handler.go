package handlers

import (
	"community-service/internal/apperr"
	"community-service/internal/authz"
	"community-service/internal/config"
	"community-service/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Handler holds the services every endpoint calls into.
type Handler struct {
	deps *config.Dependencies
}

func New(deps *config.Dependencies) *Handler {
	return &Handler{deps: deps}
}

// bind parses the body into req and runs its validate tags.
func (h *Handler) bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperr.Wrap(apperr.InvalidInput, err, "Invalid request body: %v", err)
	}
	return h.deps.Validate.Struct(req)
}

func paramID(c *fiber.Ctx, name string) (int, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, apperr.Invalidf("Invalid %s", name)
	}
	return id, nil
}

// caller returns the principal set by middleware.UseToken.
func caller(c *fiber.Ctx) (authz.Principal, error) {
	p, ok := middleware.Principal(c)
	if !ok {
		return authz.Principal{}, apperr.Unauthenticatedf("No token provided")
	}
	return p, nil
}

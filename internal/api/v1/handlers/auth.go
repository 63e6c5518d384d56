package handlers

import (
	"strings"

	"community-service/internal/api/response"
	"community-service/internal/authz"
	"community-service/internal/middleware"
	"community-service/internal/models"
	"community-service/internal/services"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Username string      `json:"username" validate:"required,min=3,max=64,excludesall=@? "`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role" validate:"required,oneof=admin staff client"`
}

// Register membuat akun baru. Akun admin hanya bisa dibuat oleh admin yang
// sudah login.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	var creator *authz.Principal
	if p, ok := middleware.Principal(c); ok {
		creator = &p
	}
	acc, err := h.deps.Accounts.Register(c.UserContext(), creator, services.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return response.Created(c, "User registered successfully", acc)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	res, err := h.deps.Accounts.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return response.OK(c, "Login successful", res)
}

// VerifyToken runs behind UseToken, so reaching it means the token is good.
func (h *Handler) VerifyToken(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	return response.OK(c, "Token is valid", fiber.Map{
		"user_id":  p.AccountID,
		"username": p.Username,
		"role":     p.Role,
	})
}

func (h *Handler) CheckUsername(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.Params("username"))
	taken, err := h.deps.Accounts.UsernameTaken(c.UserContext(), username)
	if err != nil {
		return err
	}
	return response.OK(c, "Username checked", fiber.Map{"username": username, "available": !taken})
}

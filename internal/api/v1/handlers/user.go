package handlers

import (
	"community-service/internal/api/response"
	"community-service/internal/models"
	"community-service/internal/services"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) Me(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	acc, err := h.deps.Accounts.Me(c.UserContext(), p)
	if err != nil {
		return err
	}
	return response.OK(c, "User found", acc)
}

func (h *Handler) GetAllUsers(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	users, err := h.deps.Accounts.List(c.UserContext(), p)
	if err != nil {
		return err
	}
	return response.OK(c, "Users fetched successfully", users)
}

func (h *Handler) GetUser(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	acc, err := h.deps.Accounts.Get(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return response.OK(c, "User found", acc)
}

// pointer menandakan field boleh tidak dikirim
type updateUserRequest struct {
	Username *string      `json:"username" validate:"omitempty,min=3,max=64,excludesall=@? "`
	Role     *models.Role `json:"role" validate:"omitempty,oneof=admin staff client"`
}

func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	acc, err := h.deps.Accounts.Update(c.UserContext(), p, id, services.UpdateAccountInput{
		Username: req.Username,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return response.OK(c, "User updated successfully", acc)
}

func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.deps.Accounts.Delete(c.UserContext(), p, id); err != nil {
		return err
	}
	return response.OK(c, "User deleted successfully", nil)
}

package handlers

import (
	"community-service/internal/api/response"
	"community-service/internal/models"
	"community-service/internal/services"

	"github.com/gofiber/fiber/v2"
)

type staffRequest struct {
	CompanyID     *int                 `json:"company_id" validate:"omitempty,gt=0"`
	Title         *string              `json:"title"`
	GivenName     *string              `json:"given_name"`
	Surname       *string              `json:"surname"`
	PreferredName *string              `json:"preferred_name"`
	DateOfBirth   *models.Date         `json:"dob"`
	DateOfReg     *models.Date         `json:"date_of_reg"`
	HomeEmail     *string              `json:"home_email" validate:"omitempty,email"`
	HomePhone     *string              `json:"home_phone"`
	HomeMobile    *string              `json:"home_mobile"`
	Details       *models.StaffDetails `json:"details"`
	Image         *string              `json:"image"`
}

func (r staffRequest) input() services.StaffInput {
	return services.StaffInput{
		CompanyID:     r.CompanyID,
		Title:         r.Title,
		GivenName:     r.GivenName,
		Surname:       r.Surname,
		PreferredName: r.PreferredName,
		DateOfBirth:   r.DateOfBirth,
		DateOfReg:     r.DateOfReg,
		HomeEmail:     r.HomeEmail,
		HomePhone:     r.HomePhone,
		HomeMobile:    r.HomeMobile,
		Details:       r.Details,
		Image:         r.Image,
	}
}

func (h *Handler) RegisterStaff(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	var req staffRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	st, err := h.deps.Staff.Register(c.UserContext(), p, userID, req.input())
	if err != nil {
		return err
	}
	return response.Created(c, "Staff registered successfully", st)
}

func (h *Handler) GetAllStaff(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	staff, err := h.deps.Staff.List(c.UserContext(), p)
	if err != nil {
		return err
	}
	return response.OK(c, "Staff fetched successfully", staff)
}

func (h *Handler) GetStaffByUser(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	st, err := h.deps.Staff.GetByUser(c.UserContext(), p, userID)
	if err != nil {
		return err
	}
	return response.OK(c, "Staff found", st)
}

func (h *Handler) GetStaff(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	st, err := h.deps.Staff.Get(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return response.OK(c, "Staff found", st)
}

func (h *Handler) UpdateStaff(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req staffRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	st, err := h.deps.Staff.Update(c.UserContext(), p, id, req.input())
	if err != nil {
		return err
	}
	return response.OK(c, "Staff updated successfully", st)
}

func (h *Handler) DeleteStaff(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.deps.Staff.Delete(c.UserContext(), p, id); err != nil {
		return err
	}
	return response.OK(c, "Staff deleted successfully", nil)
}

package handlers

import (
	"community-service/internal/api/response"
	"community-service/internal/models"
	"community-service/internal/services"

	"github.com/gofiber/fiber/v2"
)

type clientRequest struct {
	CompanyID          *int                  `json:"company_id" validate:"omitempty,gt=0"`
	NDIS               *string               `json:"ndis" validate:"omitempty,max=64"`
	Reference          *string               `json:"reference"`
	GivenName          *string               `json:"given_name"`
	Surname            *string               `json:"surname"`
	PreferredName      *string               `json:"preferred_name"`
	Sex                *string               `json:"sex"`
	DateOfBirth        *models.Date          `json:"date_of_birth"`
	DateOfReg          *models.Date          `json:"date_of_reg"`
	PlanStartDate      *models.Date          `json:"plan_start_date"`
	PlanEndDate        *models.Date          `json:"plan_end_date"`
	NDISStartDate      *models.Date          `json:"ndis_start_date"`
	NDISEndDate        *models.Date          `json:"ndis_end_date"`
	NDISPlanReviewDate *models.Date          `json:"ndis_plan_review_date"`
	FundingType        *string               `json:"funding_type"`
	Disability         *string               `json:"disability"`
	HomeEmail          *string               `json:"home_email" validate:"omitempty,email"`
	HomePhone          *string               `json:"home_phone"`
	HomeMobile         *string               `json:"home_mobile"`
	Details            *models.ClientDetails `json:"details"`
	Image              *string               `json:"image"`
}

func (r clientRequest) input() services.ClientInput {
	return services.ClientInput{
		CompanyID:          r.CompanyID,
		NDIS:               r.NDIS,
		Reference:          r.Reference,
		GivenName:          r.GivenName,
		Surname:            r.Surname,
		PreferredName:      r.PreferredName,
		Sex:                r.Sex,
		DateOfBirth:        r.DateOfBirth,
		DateOfReg:          r.DateOfReg,
		PlanStartDate:      r.PlanStartDate,
		PlanEndDate:        r.PlanEndDate,
		NDISStartDate:      r.NDISStartDate,
		NDISEndDate:        r.NDISEndDate,
		NDISPlanReviewDate: r.NDISPlanReviewDate,
		FundingType:        r.FundingType,
		Disability:         r.Disability,
		HomeEmail:          r.HomeEmail,
		HomePhone:          r.HomePhone,
		HomeMobile:         r.HomeMobile,
		Details:            r.Details,
		Image:              r.Image,
	}
}

func (h *Handler) RegisterClient(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	var req clientRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	cl, err := h.deps.Clients.Register(c.UserContext(), p, userID, req.input())
	if err != nil {
		return err
	}
	return response.Created(c, "Client registered successfully", cl)
}

// GetClients: admin melihat semua, staff hanya klien di company-nya.
func (h *Handler) GetClients(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	clients, err := h.deps.Clients.Browse(c.UserContext(), p)
	if err != nil {
		return err
	}
	return response.OK(c, "Clients fetched successfully", clients)
}

func (h *Handler) GetClientByUser(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	cl, err := h.deps.Clients.GetByUser(c.UserContext(), p, userID)
	if err != nil {
		return err
	}
	return response.OK(c, "Client found", cl)
}

func (h *Handler) GetClient(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	cl, err := h.deps.Clients.Get(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return response.OK(c, "Client found", cl)
}

func (h *Handler) UpdateClient(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req clientRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	cl, err := h.deps.Clients.Update(c.UserContext(), p, id, req.input())
	if err != nil {
		return err
	}
	return response.OK(c, "Client updated successfully", cl)
}

func (h *Handler) DeleteClient(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.deps.Clients.Delete(c.UserContext(), p, id); err != nil {
		return err
	}
	return response.OK(c, "Client deleted successfully", nil)
}

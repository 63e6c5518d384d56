package handlers

import (
	"io"
	"mime/multipart"
	"strings"

	"community-service/internal/api/response"
	"community-service/internal/apperr"
	"community-service/internal/services"

	"github.com/gofiber/fiber/v2"
)

// companyRequest diterima sebagai JSON atau multipart form (kalau ada logo).
type companyRequest struct {
	Name    *string `json:"name" form:"name" validate:"omitempty,max=255"`
	ABN     *string `json:"abn" form:"abn" validate:"omitempty,max=32"`
	Web     *string `json:"web" form:"web"`
	Phone   *string `json:"phone" form:"phone"`
	Email   *string `json:"email" form:"email" validate:"omitempty,email"`
	Address *string `json:"address" form:"address"`
}

func (r companyRequest) input() services.CompanyInput {
	return services.CompanyInput{
		Name: r.Name, ABN: r.ABN, Web: r.Web,
		Phone: r.Phone, Email: r.Email, Address: r.Address,
	}
}

// formFile opens an optional upload. The returned closer is never nil.
func formFile(c *fiber.Ctx, field string) (*services.Upload, io.Closer, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, io.NopCloser(nil), nil
	}
	fh, err := c.FormFile(field)
	if err != nil {
		// field tidak dikirim
		return nil, io.NopCloser(nil), nil
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*services.Upload, io.Closer, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.InvalidInput, err, "Cannot read uploaded file")
	}
	return &services.Upload{Name: fh.Filename, Reader: f}, f, nil
}

func (h *Handler) CreateCompany(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	var req companyRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	logo, closer, err := formFile(c, "logo")
	if err != nil {
		return err
	}
	defer closer.Close()

	company, err := h.deps.Companies.Create(c.UserContext(), p, req.input(), logo)
	if err != nil {
		return err
	}
	return response.Created(c, "Company created successfully", company)
}

func (h *Handler) GetCompanies(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	companies, err := h.deps.Companies.List(c.UserContext(), p)
	if err != nil {
		return err
	}
	return response.OK(c, "Companies fetched successfully", companies)
}

func (h *Handler) GetCompanyNames(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	names, err := h.deps.Companies.ListNames(c.UserContext(), p)
	if err != nil {
		return err
	}
	return response.OK(c, "Company names fetched successfully", names)
}

func (h *Handler) GetCompany(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	company, err := h.deps.Companies.Get(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return response.OK(c, "Company found", company)
}

func (h *Handler) UpdateCompany(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req companyRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	logo, closer, err := formFile(c, "logo")
	if err != nil {
		return err
	}
	defer closer.Close()

	company, err := h.deps.Companies.Update(c.UserContext(), p, id, req.input(), logo)
	if err != nil {
		return err
	}
	return response.OK(c, "Company updated successfully", company)
}

func (h *Handler) DeleteCompany(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.deps.Companies.Delete(c.UserContext(), p, id); err != nil {
		return err
	}
	return response.OK(c, "Company deleted successfully", nil)
}

func (h *Handler) GetCompanyLogo(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	rel, err := h.deps.Companies.Logo(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	path, err := h.deps.Files.Path(rel)
	if err != nil {
		return err
	}
	return c.SendFile(path)
}

func (h *Handler) GetCompanyStaff(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	staff, err := h.deps.Staff.ListByCompany(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return response.OK(c, "Staff fetched successfully", staff)
}

func (h *Handler) GetCompanyClients(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	clients, err := h.deps.Clients.ListByCompany(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return response.OK(c, "Clients fetched successfully", clients)
}

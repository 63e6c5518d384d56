package services

import (
	"context"
	"strings"

	"community-service/internal/apperr"
	"community-service/internal/authz"
	"community-service/internal/cache"
	"community-service/internal/models"
	"community-service/internal/storage"
	"community-service/pkg/logger"

	"go.uber.org/zap"
)

type CompanyInput struct {
	Name    *string
	ABN     *string
	Web     *string
	Phone   *string
	Email   *string
	Address *string
}

func (in CompanyInput) apply(c *models.Company) {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.ABN != nil {
		c.ABN = strings.TrimSpace(*in.ABN)
	}
	if in.Web != nil {
		c.Web = in.Web
	}
	if in.Phone != nil {
		c.Phone = in.Phone
	}
	if in.Email != nil {
		c.Email = in.Email
	}
	if in.Address != nil {
		c.Address = in.Address
	}
}

type CompanyService struct {
	companies CompanyStore
	staff     StaffStore
	clients   ClientStore
	files     FileStore
	sweeper   *taskSweeper
}

func NewCompanyService(companies CompanyStore, staff StaffStore, clients ClientStore, files FileStore, c cache.TaskCache) *CompanyService {
	return &CompanyService{
		companies: companies,
		staff:     staff,
		clients:   clients,
		files:     files,
		sweeper:   &taskSweeper{files: files, cache: c},
	}
}

// Create inserts the company and, when given, stores its logo in the same
// transaction. A logo written for a failed insert is removed.
func (s *CompanyService) Create(ctx context.Context, p authz.Principal, in CompanyInput, logo *Upload) (models.Company, error) {
	if err := authz.Require(p, authz.ManageCompany); err != nil {
		return models.Company{}, err
	}
	var c models.Company
	in.apply(&c)
	if c.Name == "" || c.ABN == "" {
		return models.Company{}, apperr.Invalidf("Company name and ABN are required")
	}

	var saved string
	err := s.companies.Atomic(ctx, func(ctx context.Context) error {
		if err := s.companies.Create(ctx, &c); err != nil {
			return err
		}
		if logo == nil {
			return nil
		}
		rel, err := s.files.Save(storage.LogoDir(c.ID), storage.SanitizeName(logo.Name), logo.Reader)
		if err != nil {
			return apperr.Wrap(apperr.Internal, err, "save company logo")
		}
		saved = rel
		c.Logo = &rel
		return s.companies.Update(ctx, &c)
	})
	if err != nil {
		if saved != "" {
			s.removeFile(saved)
		}
		return models.Company{}, err
	}

	logger.AuditLogger.Info("Company created", zap.Int("company_id", c.ID), zap.Int("by", p.AccountID))
	return c, nil
}

func (s *CompanyService) List(ctx context.Context, p authz.Principal) ([]models.Company, error) {
	if err := authz.Require(p, authz.ManageCompany); err != nil {
		return nil, err
	}
	return s.companies.List(ctx)
}

func (s *CompanyService) ListNames(ctx context.Context, p authz.Principal) ([]models.CompanyName, error) {
	if err := authz.Require(p, authz.ManageCompany); err != nil {
		return nil, err
	}
	return s.companies.ListNames(ctx)
}

func (s *CompanyService) Get(ctx context.Context, p authz.Principal, id int) (models.Company, error) {
	if err := authz.Require(p, authz.ReadCompany); err != nil {
		return models.Company{}, err
	}
	return s.companies.GetByID(ctx, id)
}

// Logo returns the stored path of the company's logo, relative to the
// upload root.
func (s *CompanyService) Logo(ctx context.Context, p authz.Principal, id int) (string, error) {
	c, err := s.Get(ctx, p, id)
	if err != nil {
		return "", err
	}
	if c.Logo == nil || *c.Logo == "" {
		return "", apperr.NotFoundf("Logo not found")
	}
	return *c.Logo, nil
}

// Update patches the company. A new logo replaces the previous file once
// the row is committed.
func (s *CompanyService) Update(ctx context.Context, p authz.Principal, id int, in CompanyInput, logo *Upload) (models.Company, error) {
	if err := authz.Require(p, authz.ManageCompany); err != nil {
		return models.Company{}, err
	}
	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return models.Company{}, err
	}
	in.apply(&c)
	if c.Name == "" || c.ABN == "" {
		return models.Company{}, apperr.Invalidf("Company name and ABN cannot be empty")
	}

	var previous string
	if c.Logo != nil {
		previous = *c.Logo
	}
	var saved string
	if logo != nil {
		rel, err := s.files.Save(storage.LogoDir(c.ID), storage.SanitizeName(logo.Name), logo.Reader)
		if err != nil {
			return models.Company{}, apperr.Wrap(apperr.Internal, err, "save company logo")
		}
		saved = rel
		c.Logo = &rel
	}

	if err := s.companies.Update(ctx, &c); err != nil {
		if saved != "" && saved != previous {
			s.removeFile(saved)
		}
		return models.Company{}, err
	}
	if saved != "" && previous != "" && previous != saved {
		s.removeFile(previous)
	}

	logger.AuditLogger.Info("Company updated", zap.Int("company_id", c.ID), zap.Int("by", p.AccountID))
	return c, nil
}

// Delete removes the company together with every account owning one of its
// profiles. Files are cleaned up after commit.
func (s *CompanyService) Delete(ctx context.Context, p authz.Principal, id int) error {
	if err := authz.Require(p, authz.ManageCompany); err != nil {
		return err
	}
	if _, err := s.companies.GetByID(ctx, id); err != nil {
		return err
	}

	taskIDs, err := s.companies.TaskIDs(ctx, id)
	if err != nil {
		return err
	}
	owners, err := s.profileOwners(ctx, id)
	if err != nil {
		return err
	}
	if err := s.companies.Delete(ctx, id); err != nil {
		return err
	}

	s.sweeper.sweep(ctx, taskIDs...)
	if err := s.files.RemoveAll(storage.LogoDir(id)); err != nil {
		logger.ErrorLogger.Error("Failed to remove logo directory", zap.Int("company_id", id), zap.Error(err))
	}
	for _, userID := range owners {
		if err := s.files.RemoveAll(storage.ProfileDir(userID)); err != nil {
			logger.ErrorLogger.Error("Failed to remove profile directory", zap.Int("user_id", userID), zap.Error(err))
		}
	}

	logger.AuditLogger.Info("Company deleted", zap.Int("company_id", id),
		zap.Int("accounts", len(owners)), zap.Int("tasks", len(taskIDs)), zap.Int("by", p.AccountID))
	return nil
}

func (s *CompanyService) profileOwners(ctx context.Context, companyID int) ([]int, error) {
	staff, err := s.staff.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	clients, err := s.clients.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	owners := make([]int, 0, len(staff)+len(clients))
	for _, st := range staff {
		owners = append(owners, st.UserID)
	}
	for _, cl := range clients {
		owners = append(owners, cl.UserID)
	}
	return owners, nil
}

func (s *CompanyService) removeFile(rel string) {
	if err := s.files.Remove(rel); err != nil {
		logger.ErrorLogger.Error("Failed to remove file", zap.String("path", rel), zap.Error(err))
	}
}

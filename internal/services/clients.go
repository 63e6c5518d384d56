package services

import (
	"context"
	"strings"

	"community-service/internal/apperr"
	"community-service/internal/authz"
	"community-service/internal/cache"
	"community-service/internal/models"
	"community-service/internal/repository"
	"community-service/pkg/logger"

	"go.uber.org/zap"
)

// ClientInput holds the participant fields a request sets. Nil fields are
// left alone on update.
type ClientInput struct {
	CompanyID          *int
	NDIS               *string
	Reference          *string
	GivenName          *string
	Surname            *string
	PreferredName      *string
	Sex                *string
	DateOfBirth        *models.Date
	DateOfReg          *models.Date
	PlanStartDate      *models.Date
	PlanEndDate        *models.Date
	NDISStartDate      *models.Date
	NDISEndDate        *models.Date
	NDISPlanReviewDate *models.Date
	FundingType        *string
	Disability         *string
	HomeEmail          *string
	HomePhone          *string
	HomeMobile         *string
	Details            *models.ClientDetails
	Image              *string // base64 data URL
}

func (in ClientInput) apply(c *models.Client) {
	if in.CompanyID != nil {
		c.CompanyID = *in.CompanyID
	}
	if in.NDIS != nil {
		c.NDIS = strings.TrimSpace(*in.NDIS)
	}
	setIf(&c.Reference, in.Reference)
	setIf(&c.GivenName, in.GivenName)
	setIf(&c.Surname, in.Surname)
	setIf(&c.PreferredName, in.PreferredName)
	setIf(&c.Sex, in.Sex)
	setIf(&c.DateOfBirth, in.DateOfBirth)
	setIf(&c.DateOfReg, in.DateOfReg)
	setIf(&c.PlanStartDate, in.PlanStartDate)
	setIf(&c.PlanEndDate, in.PlanEndDate)
	setIf(&c.NDISStartDate, in.NDISStartDate)
	setIf(&c.NDISEndDate, in.NDISEndDate)
	setIf(&c.NDISPlanReviewDate, in.NDISPlanReviewDate)
	setIf(&c.FundingType, in.FundingType)
	setIf(&c.Disability, in.Disability)
	setIf(&c.HomeEmail, in.HomeEmail)
	setIf(&c.HomePhone, in.HomePhone)
	setIf(&c.HomeMobile, in.HomeMobile)
	if in.Details != nil {
		c.Details = *in.Details
	}
}

func setIf[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}

type ClientService struct {
	clients   ClientStore
	staff     StaffStore
	accounts  AccountStore
	companies CompanyStore
	tasks     TaskIDLister
	files     FileStore
	sweeper   *taskSweeper
}

func NewClientService(clients ClientStore, staff StaffStore, accounts AccountStore, companies CompanyStore,
	tasks TaskIDLister, files FileStore, c cache.TaskCache) *ClientService {
	return &ClientService{
		clients:   clients,
		staff:     staff,
		accounts:  accounts,
		companies: companies,
		tasks:     tasks,
		files:     files,
		sweeper:   &taskSweeper{files: files, cache: c},
	}
}

// Register creates the participant profile of an existing client account.
func (s *ClientService) Register(ctx context.Context, p authz.Principal, userID int, in ClientInput) (models.Client, error) {
	if err := authz.Require(p, authz.RegisterClient, userID); err != nil {
		return models.Client{}, err
	}
	if in.CompanyID == nil {
		return models.Client{}, apperr.Invalidf("company_id is required")
	}
	if in.NDIS == nil || strings.TrimSpace(*in.NDIS) == "" {
		return models.Client{}, apperr.Invalidf("ndis is required")
	}
	if err := checkProfileOwner(ctx, s.accounts, userID, models.RoleClient,
		"User is not a client! This is only for client registration."); err != nil {
		return models.Client{}, err
	}
	if _, err := s.clients.GetByUser(ctx, userID); err == nil {
		return models.Client{}, apperr.Duplicatef("User is already registered as a Participant!")
	} else if !apperr.Is(err, apperr.NotFound) {
		return models.Client{}, err
	}
	if err := checkCompany(ctx, s.companies, *in.CompanyID); err != nil {
		return models.Client{}, err
	}

	c := models.Client{UserID: userID}
	in.apply(&c)
	if in.Image != nil && *in.Image != "" {
		rel, err := saveProfileImage(s.files, userID, *in.Image)
		if err != nil {
			return models.Client{}, err
		}
		c.ImagePath = &rel
	}

	if err := s.clients.Create(ctx, &c); err != nil {
		if c.ImagePath != nil {
			removeProfileDir(s.files, userID)
		}
		return models.Client{}, err
	}

	logger.AuditLogger.Info("Participant registered", zap.Int("client_id", c.ID), zap.Int("user_id", userID), zap.Int("by", p.AccountID))
	return c, nil
}

func (s *ClientService) Get(ctx context.Context, p authz.Principal, id int) (models.Client, error) {
	c, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return models.Client{}, err
	}
	if err := authz.Require(p, authz.ReadClient, c.UserID); err != nil {
		return models.Client{}, err
	}
	return c, nil
}

func (s *ClientService) GetByUser(ctx context.Context, p authz.Principal, userID int) (models.Client, error) {
	if err := authz.Require(p, authz.ReadClient, userID); err != nil {
		return models.Client{}, err
	}
	return s.clients.GetByUser(ctx, userID)
}

// Browse lists every participant for admins and the participants of the
// caller's own company for staff.
func (s *ClientService) Browse(ctx context.Context, p authz.Principal) ([]models.Client, error) {
	if authz.Allow(p, authz.ListClients) {
		return s.clients.List(ctx)
	}
	return s.ListForStaff(ctx, p)
}

func (s *ClientService) ListForStaff(ctx context.Context, p authz.Principal) ([]models.Client, error) {
	if err := authz.Require(p, authz.ListOwnCompany); err != nil {
		return nil, err
	}
	st, err := s.staff.GetByUser(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	return s.clients.ListByCompany(ctx, st.CompanyID)
}

func (s *ClientService) ListByCompany(ctx context.Context, p authz.Principal, companyID int) ([]models.Client, error) {
	if err := authz.Require(p, authz.ListClients); err != nil {
		return nil, err
	}
	if err := checkCompany(ctx, s.companies, companyID); err != nil {
		return nil, err
	}
	return s.clients.ListByCompany(ctx, companyID)
}

func (s *ClientService) Update(ctx context.Context, p authz.Principal, id int, in ClientInput) (models.Client, error) {
	c, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return models.Client{}, err
	}
	if err := authz.Require(p, authz.UpdateClient, c.UserID); err != nil {
		return models.Client{}, err
	}
	if in.CompanyID != nil && *in.CompanyID != c.CompanyID {
		if err := checkCompany(ctx, s.companies, *in.CompanyID); err != nil {
			return models.Client{}, err
		}
	}
	if in.NDIS != nil && strings.TrimSpace(*in.NDIS) == "" {
		return models.Client{}, apperr.Invalidf("ndis cannot be empty")
	}

	in.apply(&c)
	if in.Image != nil && *in.Image != "" {
		rel, err := saveProfileImage(s.files, c.UserID, *in.Image)
		if err != nil {
			return models.Client{}, err
		}
		c.ImagePath = &rel
	}

	if err := s.clients.Update(ctx, &c); err != nil {
		return models.Client{}, err
	}
	if in.GivenName != nil || in.Surname != nil {
		if err := s.sweeper.forget(ctx, repository.TaskFilter{ClientID: &c.ID}, s.tasks); err != nil {
			logger.ErrorLogger.Error("Failed to invalidate cached tasks", zap.Int("client_id", c.ID), zap.Error(err))
		}
	}
	logger.AuditLogger.Info("Participant updated", zap.Int("client_id", c.ID), zap.Int("by", p.AccountID))
	return c, nil
}

// Delete removes the profile; its tasks and their media go with it.
func (s *ClientService) Delete(ctx context.Context, p authz.Principal, id int) error {
	if err := authz.Require(p, authz.DeleteClient); err != nil {
		return err
	}
	c, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return err
	}
	taskIDs, err := s.tasks.IDs(ctx, repository.TaskFilter{ClientID: &c.ID})
	if err != nil {
		return err
	}
	if err := s.clients.Delete(ctx, id); err != nil {
		return err
	}
	s.sweeper.sweep(ctx, taskIDs...)
	removeProfileDir(s.files, c.UserID)

	logger.AuditLogger.Info("Participant deleted", zap.Int("client_id", id), zap.Int("tasks", len(taskIDs)), zap.Int("by", p.AccountID))
	return nil
}

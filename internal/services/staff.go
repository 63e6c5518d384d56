package services

import (
	"context"

	"community-service/internal/apperr"
	"community-service/internal/authz"
	"community-service/internal/cache"
	"community-service/internal/models"
	"community-service/internal/repository"
	"community-service/pkg/logger"

	"go.uber.org/zap"
)

// StaffInput holds the profile fields a request sets. Nil fields are left
// alone on update.
type StaffInput struct {
	CompanyID     *int
	Title         *string
	GivenName     *string
	Surname       *string
	PreferredName *string
	DateOfBirth   *models.Date
	DateOfReg     *models.Date
	HomeEmail     *string
	HomePhone     *string
	HomeMobile    *string
	Details       *models.StaffDetails
	Image         *string // base64 data URL
}

func (in StaffInput) apply(s *models.Staff) {
	if in.CompanyID != nil {
		s.CompanyID = *in.CompanyID
	}
	if in.Title != nil {
		s.Title = in.Title
	}
	if in.GivenName != nil {
		s.GivenName = in.GivenName
	}
	if in.Surname != nil {
		s.Surname = in.Surname
	}
	if in.PreferredName != nil {
		s.PreferredName = in.PreferredName
	}
	if in.DateOfBirth != nil {
		s.DateOfBirth = in.DateOfBirth
	}
	if in.DateOfReg != nil {
		s.DateOfReg = in.DateOfReg
	}
	if in.HomeEmail != nil {
		s.HomeEmail = in.HomeEmail
	}
	if in.HomePhone != nil {
		s.HomePhone = in.HomePhone
	}
	if in.HomeMobile != nil {
		s.HomeMobile = in.HomeMobile
	}
	if in.Details != nil {
		s.Details = *in.Details
	}
}

type StaffService struct {
	staff     StaffStore
	accounts  AccountStore
	companies CompanyStore
	tasks     TaskIDLister
	files     FileStore
	cipher    FieldCipher
	sweeper   *taskSweeper
}

func NewStaffService(staff StaffStore, accounts AccountStore, companies CompanyStore, tasks TaskIDLister,
	files FileStore, cipher FieldCipher, c cache.TaskCache) *StaffService {
	return &StaffService{
		staff:     staff,
		accounts:  accounts,
		companies: companies,
		tasks:     tasks,
		files:     files,
		cipher:    cipher,
		sweeper:   &taskSweeper{files: files, cache: c},
	}
}

// Register creates the staff profile of an existing staff account.
func (s *StaffService) Register(ctx context.Context, p authz.Principal, userID int, in StaffInput) (models.Staff, error) {
	if err := authz.Require(p, authz.RegisterStaff, userID); err != nil {
		return models.Staff{}, err
	}
	if in.CompanyID == nil {
		return models.Staff{}, apperr.Invalidf("company_id is required")
	}
	if err := checkProfileOwner(ctx, s.accounts, userID, models.RoleStaff,
		"User is not a staff! This is only for staff registration."); err != nil {
		return models.Staff{}, err
	}
	if _, err := s.staff.GetByUser(ctx, userID); err == nil {
		return models.Staff{}, apperr.Duplicatef("Staff already registered!")
	} else if !apperr.Is(err, apperr.NotFound) {
		return models.Staff{}, err
	}
	if err := checkCompany(ctx, s.companies, *in.CompanyID); err != nil {
		return models.Staff{}, err
	}

	st := models.Staff{UserID: userID}
	in.apply(&st)
	if err := s.sealBanks(&st.Details); err != nil {
		return models.Staff{}, err
	}
	if in.Image != nil && *in.Image != "" {
		rel, err := saveProfileImage(s.files, userID, *in.Image)
		if err != nil {
			return models.Staff{}, err
		}
		st.ImagePath = &rel
	}

	if err := s.staff.Create(ctx, &st); err != nil {
		if st.ImagePath != nil {
			removeProfileDir(s.files, userID)
		}
		return models.Staff{}, err
	}

	logger.AuditLogger.Info("Staff registered", zap.Int("staff_id", st.ID), zap.Int("user_id", userID), zap.Int("by", p.AccountID))
	if err := s.openBanks(&st.Details); err != nil {
		return models.Staff{}, err
	}
	return st, nil
}

func (s *StaffService) Get(ctx context.Context, p authz.Principal, id int) (models.Staff, error) {
	st, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return models.Staff{}, err
	}
	return s.readable(p, st)
}

func (s *StaffService) GetByUser(ctx context.Context, p authz.Principal, userID int) (models.Staff, error) {
	if err := authz.Require(p, authz.ReadStaff, userID); err != nil {
		return models.Staff{}, err
	}
	st, err := s.staff.GetByUser(ctx, userID)
	if err != nil {
		return models.Staff{}, err
	}
	return s.readable(p, st)
}

func (s *StaffService) readable(p authz.Principal, st models.Staff) (models.Staff, error) {
	if err := authz.Require(p, authz.ReadStaff, st.UserID); err != nil {
		return models.Staff{}, err
	}
	if err := s.openBanks(&st.Details); err != nil {
		return models.Staff{}, err
	}
	return st, nil
}

func (s *StaffService) List(ctx context.Context, p authz.Principal) ([]models.Staff, error) {
	if err := authz.Require(p, authz.ListStaff); err != nil {
		return nil, err
	}
	staff, err := s.staff.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.openAll(staff); err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *StaffService) ListByCompany(ctx context.Context, p authz.Principal, companyID int) ([]models.Staff, error) {
	if err := authz.Require(p, authz.ListStaff); err != nil {
		return nil, err
	}
	if err := checkCompany(ctx, s.companies, companyID); err != nil {
		return nil, err
	}
	staff, err := s.staff.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := s.openAll(staff); err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *StaffService) Update(ctx context.Context, p authz.Principal, id int, in StaffInput) (models.Staff, error) {
	st, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return models.Staff{}, err
	}
	if err := authz.Require(p, authz.UpdateStaff, st.UserID); err != nil {
		return models.Staff{}, err
	}
	if in.CompanyID != nil && *in.CompanyID != st.CompanyID {
		if err := checkCompany(ctx, s.companies, *in.CompanyID); err != nil {
			return models.Staff{}, err
		}
	}

	// Stored bank fields are already sealed; only a new details document
	// needs sealing.
	in.apply(&st)
	if in.Details != nil {
		if err := s.sealBanks(&st.Details); err != nil {
			return models.Staff{}, err
		}
	}
	if in.Image != nil && *in.Image != "" {
		rel, err := saveProfileImage(s.files, st.UserID, *in.Image)
		if err != nil {
			return models.Staff{}, err
		}
		st.ImagePath = &rel
	}

	if err := s.staff.Update(ctx, &st); err != nil {
		return models.Staff{}, err
	}
	if in.GivenName != nil || in.Surname != nil {
		if err := s.sweeper.forget(ctx, repository.TaskFilter{StaffID: &st.ID}, s.tasks); err != nil {
			logger.ErrorLogger.Error("Failed to invalidate cached tasks", zap.Int("staff_id", st.ID), zap.Error(err))
		}
	}
	logger.AuditLogger.Info("Staff updated", zap.Int("staff_id", st.ID), zap.Int("by", p.AccountID))
	if err := s.openBanks(&st.Details); err != nil {
		return models.Staff{}, err
	}
	return st, nil
}

// Delete removes the profile; its tasks and their media go with it.
func (s *StaffService) Delete(ctx context.Context, p authz.Principal, id int) error {
	if err := authz.Require(p, authz.DeleteStaff); err != nil {
		return err
	}
	st, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return err
	}
	taskIDs, err := s.tasks.IDs(ctx, repository.TaskFilter{StaffID: &st.ID})
	if err != nil {
		return err
	}
	if err := s.staff.Delete(ctx, id); err != nil {
		return err
	}
	s.sweeper.sweep(ctx, taskIDs...)
	removeProfileDir(s.files, st.UserID)

	logger.AuditLogger.Info("Staff deleted", zap.Int("staff_id", id), zap.Int("tasks", len(taskIDs)), zap.Int("by", p.AccountID))
	return nil
}

func (s *StaffService) sealBanks(d *models.StaffDetails) error {
	for _, b := range []*models.BankAccount{&d.Bank1, &d.Bank2} {
		var err error
		if b.AccountNumber, err = s.cipher.Encrypt(b.AccountNumber); err != nil {
			return apperr.Wrap(apperr.Internal, err, "encrypt bank account")
		}
		if b.BSB, err = s.cipher.Encrypt(b.BSB); err != nil {
			return apperr.Wrap(apperr.Internal, err, "encrypt bank account")
		}
	}
	return nil
}

func (s *StaffService) openBanks(d *models.StaffDetails) error {
	for _, b := range []*models.BankAccount{&d.Bank1, &d.Bank2} {
		var err error
		if b.AccountNumber, err = s.cipher.Decrypt(b.AccountNumber); err != nil {
			return apperr.Wrap(apperr.Internal, err, "decrypt bank account")
		}
		if b.BSB, err = s.cipher.Decrypt(b.BSB); err != nil {
			return apperr.Wrap(apperr.Internal, err, "decrypt bank account")
		}
	}
	return nil
}

func (s *StaffService) openAll(staff []models.Staff) error {
	for i := range staff {
		if err := s.openBanks(&staff[i].Details); err != nil {
			return err
		}
	}
	return nil
}

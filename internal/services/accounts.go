package services

import (
	"context"
	"time"
	"unicode/utf8"

	"community-service/internal/apperr"
	"community-service/internal/auth"
	"community-service/internal/authz"
	"community-service/internal/cache"
	"community-service/internal/models"
	"community-service/internal/repository"
	"community-service/internal/storage"
	"community-service/pkg/logger"

	"go.uber.org/zap"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 64
	minPasswordLen = 6

	invalidCredentials = "Invalid credentials"
)

type RegisterInput struct {
	Username string
	Password string
	Role     models.Role
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	UserID    int         `json:"user_id"`
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type UpdateAccountInput struct {
	Username *string
	Role     *models.Role
}

type AccountService struct {
	accounts AccountStore
	staff    StaffStore
	clients  ClientStore
	tasks    TaskIDLister
	tokens   *auth.TokenService
	files    FileStore
	sweeper  *taskSweeper
}

func NewAccountService(accounts AccountStore, staff StaffStore, clients ClientStore, tasks TaskIDLister,
	tokens *auth.TokenService, files FileStore, c cache.TaskCache) *AccountService {
	return &AccountService{
		accounts: accounts,
		staff:    staff,
		clients:  clients,
		tasks:    tasks,
		tokens:   tokens,
		files:    files,
		sweeper:  &taskSweeper{files: files, cache: c},
	}
}

func validateUsername(username string) error {
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return apperr.Invalidf("Username must be between %d and %d characters", minUsernameLen, maxUsernameLen)
	}
	return nil
}

// Register creates an account. caller is nil for self-registration, which
// may only create staff or client accounts.
func (s *AccountService) Register(ctx context.Context, caller *authz.Principal, in RegisterInput) (models.Account, error) {
	if err := validateUsername(in.Username); err != nil {
		return models.Account{}, err
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		return models.Account{}, apperr.Invalidf("Password must be at least %d characters", minPasswordLen)
	}
	if !in.Role.Valid() {
		return models.Account{}, apperr.Invalidf("Role must be one of admin, staff, client")
	}
	if in.Role == models.RoleAdmin {
		if caller == nil || !authz.Allow(*caller, authz.RegisterAdmin) {
			logger.SecurityLogger.Warn("Admin registration refused", zap.String("username", in.Username))
			return models.Account{}, apperr.Forbiddenf("Only an admin can create admin accounts")
		}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.Account{}, apperr.Wrap(apperr.Internal, err, "hash password")
	}
	acc := models.Account{Username: in.Username, PasswordHash: hash, Role: in.Role}
	if err := s.accounts.Create(ctx, &acc); err != nil {
		return models.Account{}, err
	}

	logger.AuditLogger.Info("Account registered", zap.Int("user_id", acc.ID), zap.String("role", string(acc.Role)))
	return acc, nil
}

// Login answers both an unknown username and a wrong password with the
// same message.
func (s *AccountService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	acc, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			logger.SecurityLogger.Warn("Login failed: unknown user", zap.String("username", username))
			return LoginResult{}, apperr.Unauthenticatedf(invalidCredentials)
		}
		return LoginResult{}, err
	}
	if !auth.CheckPassword(acc.PasswordHash, password) {
		logger.SecurityLogger.Warn("Login failed: wrong password", zap.String("username", username))
		return LoginResult{}, apperr.Unauthenticatedf(invalidCredentials)
	}

	tok, err := s.tokens.Issue(acc)
	if err != nil {
		return LoginResult{}, apperr.Wrap(apperr.Internal, err, "issue token")
	}
	logger.AuditLogger.Info("Login successful", zap.Int("user_id", acc.ID))
	return LoginResult{
		Token:     tok.Token,
		TokenType: tok.TokenType,
		UserID:    acc.ID,
		Username:  acc.Username,
		Role:      acc.Role,
		ExpiresAt: tok.ExpiresAt,
	}, nil
}

func (s *AccountService) VerifyToken(raw string) (authz.Principal, error) {
	p, err := s.tokens.Verify(raw)
	if err != nil {
		logger.SecurityLogger.Warn("Token rejected", zap.Error(err))
	}
	return p, err
}

func (s *AccountService) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return s.accounts.UsernameExists(ctx, username)
}

func (s *AccountService) Me(ctx context.Context, p authz.Principal) (models.Account, error) {
	return s.accounts.GetByID(ctx, p.AccountID)
}

func (s *AccountService) List(ctx context.Context, p authz.Principal) ([]models.AccountSummary, error) {
	if err := authz.Require(p, authz.ListAccounts); err != nil {
		return nil, err
	}
	return s.accounts.List(ctx)
}

func (s *AccountService) Get(ctx context.Context, p authz.Principal, id int) (models.Account, error) {
	if err := authz.Require(p, authz.ReadAccount, id); err != nil {
		return models.Account{}, err
	}
	return s.accounts.GetByID(ctx, id)
}

// Update renames an account or changes its role. Only admins change roles.
func (s *AccountService) Update(ctx context.Context, p authz.Principal, id int, in UpdateAccountInput) (models.Account, error) {
	if in.Username == nil && in.Role == nil {
		return models.Account{}, apperr.Invalidf("Nothing to update")
	}
	if in.Username != nil {
		if err := authz.Require(p, authz.RenameAccount, id); err != nil {
			return models.Account{}, err
		}
		if err := validateUsername(*in.Username); err != nil {
			return models.Account{}, err
		}
	}
	if in.Role != nil {
		if err := authz.Require(p, authz.ChangeRole); err != nil {
			return models.Account{}, err
		}
		if !in.Role.Valid() {
			return models.Account{}, apperr.Invalidf("Role must be one of admin, staff, client")
		}
	}

	acc, err := s.accounts.Update(ctx, id, in.Username, in.Role)
	if err != nil {
		return models.Account{}, err
	}
	logger.AuditLogger.Info("Account updated", zap.Int("user_id", id), zap.Int("by", p.AccountID))
	return acc, nil
}

// Delete removes the account. Profiles, tasks and media rows cascade; the
// cascaded tasks' cache entries and media directories and the profile
// picture directory are cleaned up afterwards.
func (s *AccountService) Delete(ctx context.Context, p authz.Principal, id int) error {
	if err := authz.Require(p, authz.DeleteAccount); err != nil {
		return err
	}
	taskIDs, err := s.profileTaskIDs(ctx, id)
	if err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return err
	}
	s.sweeper.sweep(ctx, taskIDs...)
	if err := s.files.RemoveAll(storage.ProfileDir(id)); err != nil {
		logger.ErrorLogger.Error("Failed to remove profile directory", zap.Int("user_id", id), zap.Error(err))
	}
	logger.AuditLogger.Info("Account deleted", zap.Int("user_id", id), zap.Int("tasks", len(taskIDs)), zap.Int("by", p.AccountID))
	return nil
}

// profileTaskIDs collects the tasks of the staff or client profile owned by
// the account. An account without a profile has none.
func (s *AccountService) profileTaskIDs(ctx context.Context, userID int) ([]int, error) {
	var ids []int
	st, err := s.staff.GetByUser(ctx, userID)
	switch {
	case err == nil:
		staffIDs, err := s.tasks.IDs(ctx, repository.TaskFilter{StaffID: &st.ID})
		if err != nil {
			return nil, err
		}
		ids = append(ids, staffIDs...)
	case !apperr.Is(err, apperr.NotFound):
		return nil, err
	}

	c, err := s.clients.GetByUser(ctx, userID)
	switch {
	case err == nil:
		clientIDs, err := s.tasks.IDs(ctx, repository.TaskFilter{ClientID: &c.ID})
		if err != nil {
			return nil, err
		}
		ids = append(ids, clientIDs...)
	case !apperr.Is(err, apperr.NotFound):
		return nil, err
	}
	return ids, nil
}

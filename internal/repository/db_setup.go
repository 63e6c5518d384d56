package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"community-service/internal/apperr"
	"community-service/internal/auth"
	"community-service/internal/models"
	"community-service/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func newMigrator(databaseURL string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}
	return migrate.NewWithSourceInstance("iofs", src, databaseURL)
}

// Migrate membuat atau memperbarui semua tabel ke versi terbaru.
func Migrate(databaseURL string) error {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, _ := m.Version()
	logger.SystemLogger.Info("Migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// Rollback drops every table managed by the migrations.
func Rollback(databaseURL string) error {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	logger.SystemLogger.Info("Migrations rolled back")
	return nil
}

// CreateAdminUser memastikan akun admin ada. Password akun yang sudah ada
// tidak diubah.
func CreateAdminUser(ctx context.Context, db *sqlx.DB, username, password string) (models.Account, error) {
	accounts := NewAccountRepository(NewStore(db))

	existing, err := accounts.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.Role != models.RoleAdmin {
			return models.Account{}, fmt.Errorf("user %q exists with role %s", username, existing.Role)
		}
		return existing, nil
	case !apperr.Is(err, apperr.NotFound):
		return models.Account{}, err
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash admin password: %w", err)
	}
	acc := models.Account{Username: username, PasswordHash: hashed, Role: models.RoleAdmin}
	if err := accounts.Create(ctx, &acc); err != nil {
		return models.Account{}, err
	}
	logger.SystemLogger.Info("Admin user created", zap.String("username", username), zap.Int("id", acc.ID))
	return acc, nil
}

package repository

import (
	"context"

	"community-service/internal/models"

	"github.com/Masterminds/squirrel"
)

const _accountEntity = "user"

type AccountRepository struct {
	*Store
}

func NewAccountRepository(s *Store) *AccountRepository {
	return &AccountRepository{Store: s}
}

func (r *AccountRepository) Create(ctx context.Context, acc *models.Account) error {
	q := r.sb.Insert("users").
		Columns("username", "password_hash", "role").
		Values(acc.Username, acc.PasswordHash, acc.Role).
		Suffix("RETURNING id, created_at, updated_at")
	return r.get(ctx, _accountEntity, acc, q)
}

func (r *AccountRepository) GetByID(ctx context.Context, id int) (models.Account, error) {
	var acc models.Account
	err := r.get(ctx, _accountEntity, &acc, r.sb.Select("*").From("users").Where(squirrel.Eq{"id": id}))
	return acc, err
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (models.Account, error) {
	var acc models.Account
	err := r.get(ctx, _accountEntity, &acc, r.sb.Select("*").From("users").Where(squirrel.Eq{"username": username}))
	return acc, err
}

func (r *AccountRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	q := r.sb.Select().Column(squirrel.Expr("EXISTS (SELECT 1 FROM users WHERE username = ?)", username))
	err := r.get(ctx, _accountEntity, &exists, q)
	return exists, err
}

// List returns every account joined with its staff or client profile.
func (r *AccountRepository) List(ctx context.Context) ([]models.AccountSummary, error) {
	q := r.sb.Select(
		"u.id", "u.username", "u.role",
		"NULLIF(concat_ws(' ', COALESCE(s.given_name, c.given_name), COALESCE(s.surname, c.surname)), '') AS name",
		"COALESCE(s.home_email, c.home_email) AS email",
		"COALESCE(s.home_mobile, c.home_mobile) AS mobile",
		"co.name AS company_name",
	).
		From("users u").
		LeftJoin("staffs s ON s.user_id = u.id").
		LeftJoin("clients c ON c.user_id = u.id").
		LeftJoin("companies co ON co.id = COALESCE(s.company_id, c.company_id)").
		OrderBy("u.id")

	users := []models.AccountSummary{}
	err := r.selectAll(ctx, _accountEntity, &users, q)
	return users, err
}

// Update changes username and/or role; nil fields are left untouched.
func (r *AccountRepository) Update(ctx context.Context, id int, username *string, role *models.Role) (models.Account, error) {
	set := map[string]any{"updated_at": squirrel.Expr("CURRENT_TIMESTAMP")}
	if username != nil {
		set["username"] = *username
	}
	if role != nil {
		set["role"] = *role
	}

	var acc models.Account
	q := r.sb.Update("users").SetMap(set).Where(squirrel.Eq{"id": id}).Suffix("RETURNING *")
	err := r.get(ctx, _accountEntity, &acc, q)
	return acc, err
}

// Delete removes the account. Its profile, tasks and media follow by cascade.
func (r *AccountRepository) Delete(ctx context.Context, id int) error {
	return r.exec(ctx, _accountEntity, r.sb.Delete("users").Where(squirrel.Eq{"id": id}))
}

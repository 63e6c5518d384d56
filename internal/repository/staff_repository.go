package repository

import (
	"context"

	"community-service/internal/models"

	"github.com/Masterminds/squirrel"
)

const _staffEntity = "staff"

type StaffRepository struct {
	*Store
}

func NewStaffRepository(s *Store) *StaffRepository {
	return &StaffRepository{Store: s}
}

func staffColumns(s *models.Staff) map[string]any {
	return map[string]any{
		"user_id":        s.UserID,
		"company_id":     s.CompanyID,
		"title":          s.Title,
		"given_name":     s.GivenName,
		"surname":        s.Surname,
		"preferred_name": s.PreferredName,
		"dob":            s.DateOfBirth,
		"date_of_reg":    s.DateOfReg,
		"home_email":     s.HomeEmail,
		"home_phone":     s.HomePhone,
		"home_mobile":    s.HomeMobile,
		"image_path":     s.ImagePath,
		"details":        s.Details,
	}
}

func (r *StaffRepository) Create(ctx context.Context, s *models.Staff) error {
	q := r.sb.Insert("staffs").SetMap(staffColumns(s)).Suffix("RETURNING *")
	return r.get(ctx, _staffEntity, s, q)
}

func (r *StaffRepository) GetByID(ctx context.Context, id int) (models.Staff, error) {
	var s models.Staff
	err := r.get(ctx, _staffEntity, &s, r.sb.Select("*").From("staffs").Where(squirrel.Eq{"id": id}))
	return s, err
}

func (r *StaffRepository) GetByUser(ctx context.Context, userID int) (models.Staff, error) {
	var s models.Staff
	err := r.get(ctx, _staffEntity, &s, r.sb.Select("*").From("staffs").Where(squirrel.Eq{"user_id": userID}))
	return s, err
}

func (r *StaffRepository) List(ctx context.Context) ([]models.Staff, error) {
	staff := []models.Staff{}
	err := r.selectAll(ctx, _staffEntity, &staff, r.sb.Select("*").From("staffs").OrderBy("id"))
	return staff, err
}

func (r *StaffRepository) ListByCompany(ctx context.Context, companyID int) ([]models.Staff, error) {
	staff := []models.Staff{}
	q := r.sb.Select("*").From("staffs").Where(squirrel.Eq{"company_id": companyID}).OrderBy("id")
	err := r.selectAll(ctx, _staffEntity, &staff, q)
	return staff, err
}

// Update writes every column of s except the owning account.
func (r *StaffRepository) Update(ctx context.Context, s *models.Staff) error {
	cols := staffColumns(s)
	delete(cols, "user_id")
	cols["updated_at"] = squirrel.Expr("CURRENT_TIMESTAMP")

	q := r.sb.Update("staffs").SetMap(cols).Where(squirrel.Eq{"id": s.ID}).Suffix("RETURNING *")
	return r.get(ctx, _staffEntity, s, q)
}

// Delete removes the profile; its tasks and their media cascade.
func (r *StaffRepository) Delete(ctx context.Context, id int) error {
	return r.exec(ctx, _staffEntity, r.sb.Delete("staffs").Where(squirrel.Eq{"id": id}))
}

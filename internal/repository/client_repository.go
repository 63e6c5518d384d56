package repository

import (
	"context"

	"community-service/internal/models"

	"github.com/Masterminds/squirrel"
)

const _clientEntity = "participant"

type ClientRepository struct {
	*Store
}

func NewClientRepository(s *Store) *ClientRepository {
	return &ClientRepository{Store: s}
}

func clientColumns(c *models.Client) map[string]any {
	return map[string]any{
		"user_id":               c.UserID,
		"company_id":            c.CompanyID,
		"ndis":                  c.NDIS,
		"reference":             c.Reference,
		"given_name":            c.GivenName,
		"surname":               c.Surname,
		"preferred_name":        c.PreferredName,
		"sex":                   c.Sex,
		"date_of_birth":         c.DateOfBirth,
		"date_of_reg":           c.DateOfReg,
		"plan_start_date":       c.PlanStartDate,
		"plan_end_date":         c.PlanEndDate,
		"ndis_start_date":       c.NDISStartDate,
		"ndis_end_date":         c.NDISEndDate,
		"ndis_plan_review_date": c.NDISPlanReviewDate,
		"funding_type":          c.FundingType,
		"disability":            c.Disability,
		"home_email":            c.HomeEmail,
		"home_phone":            c.HomePhone,
		"home_mobile":           c.HomeMobile,
		"image_path":            c.ImagePath,
		"details":               c.Details,
	}
}

func (r *ClientRepository) Create(ctx context.Context, c *models.Client) error {
	q := r.sb.Insert("clients").SetMap(clientColumns(c)).Suffix("RETURNING *")
	return r.get(ctx, _clientEntity, c, q)
}

func (r *ClientRepository) GetByID(ctx context.Context, id int) (models.Client, error) {
	var c models.Client
	err := r.get(ctx, _clientEntity, &c, r.sb.Select("*").From("clients").Where(squirrel.Eq{"id": id}))
	return c, err
}

func (r *ClientRepository) GetByUser(ctx context.Context, userID int) (models.Client, error) {
	var c models.Client
	err := r.get(ctx, _clientEntity, &c, r.sb.Select("*").From("clients").Where(squirrel.Eq{"user_id": userID}))
	return c, err
}

func (r *ClientRepository) List(ctx context.Context) ([]models.Client, error) {
	clients := []models.Client{}
	err := r.selectAll(ctx, _clientEntity, &clients, r.sb.Select("*").From("clients").OrderBy("id"))
	return clients, err
}

func (r *ClientRepository) ListByCompany(ctx context.Context, companyID int) ([]models.Client, error) {
	clients := []models.Client{}
	q := r.sb.Select("*").From("clients").Where(squirrel.Eq{"company_id": companyID}).OrderBy("id")
	err := r.selectAll(ctx, _clientEntity, &clients, q)
	return clients, err
}

func (r *ClientRepository) Update(ctx context.Context, c *models.Client) error {
	cols := clientColumns(c)
	delete(cols, "user_id")
	cols["updated_at"] = squirrel.Expr("CURRENT_TIMESTAMP")

	q := r.sb.Update("clients").SetMap(cols).Where(squirrel.Eq{"id": c.ID}).Suffix("RETURNING *")
	return r.get(ctx, _clientEntity, c, q)
}

func (r *ClientRepository) Delete(ctx context.Context, id int) error {
	return r.exec(ctx, _clientEntity, r.sb.Delete("clients").Where(squirrel.Eq{"id": id}))
}

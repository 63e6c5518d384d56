package repository

import (
	"context"

	"community-service/internal/models"

	"github.com/Masterminds/squirrel"
)

const _companyEntity = "company"

type CompanyRepository struct {
	*Store
}

func NewCompanyRepository(s *Store) *CompanyRepository {
	return &CompanyRepository{Store: s}
}

func (r *CompanyRepository) Create(ctx context.Context, c *models.Company) error {
	q := r.sb.Insert("companies").
		Columns("name", "abn", "web", "phone", "email", "address", "logo").
		Values(c.Name, c.ABN, c.Web, c.Phone, c.Email, c.Address, c.Logo).
		Suffix("RETURNING *")
	return r.get(ctx, _companyEntity, c, q)
}

func (r *CompanyRepository) GetByID(ctx context.Context, id int) (models.Company, error) {
	var c models.Company
	err := r.get(ctx, _companyEntity, &c, r.sb.Select("*").From("companies").Where(squirrel.Eq{"id": id}))
	return c, err
}

func (r *CompanyRepository) List(ctx context.Context) ([]models.Company, error) {
	companies := []models.Company{}
	err := r.selectAll(ctx, _companyEntity, &companies, r.sb.Select("*").From("companies").OrderBy("name"))
	return companies, err
}

func (r *CompanyRepository) ListNames(ctx context.Context) ([]models.CompanyName, error) {
	names := []models.CompanyName{}
	err := r.selectAll(ctx, _companyEntity, &names, r.sb.Select("id", "name").From("companies").OrderBy("name"))
	return names, err
}

// Update writes every editable column of c.
func (r *CompanyRepository) Update(ctx context.Context, c *models.Company) error {
	q := r.sb.Update("companies").
		SetMap(map[string]any{
			"name":       c.Name,
			"abn":        c.ABN,
			"web":        c.Web,
			"phone":      c.Phone,
			"email":      c.Email,
			"address":    c.Address,
			"logo":       c.Logo,
			"updated_at": squirrel.Expr("CURRENT_TIMESTAMP"),
		}).
		Where(squirrel.Eq{"id": c.ID}).
		Suffix("RETURNING *")
	return r.get(ctx, _companyEntity, c, q)
}

// TaskIDs lists the tasks booked by staff or for clients of the company.
func (r *CompanyRepository) TaskIDs(ctx context.Context, companyID int) ([]int, error) {
	q := r.sb.Select("t.id").
		From("tasks t").
		Join("staffs s ON s.id = t.staff_id").
		Join("clients c ON c.id = t.client_id").
		Where(squirrel.Or{squirrel.Eq{"s.company_id": companyID}, squirrel.Eq{"c.company_id": companyID}}).
		OrderBy("t.id")
	ids := []int{}
	err := r.selectAll(ctx, "task", &ids, q)
	return ids, err
}

// Delete menghapus akun staff dan client milik company, lalu company itu
// sendiri. Profil, task dan media ikut terhapus lewat cascade.
func (r *CompanyRepository) Delete(ctx context.Context, id int) error {
	return r.Atomic(ctx, func(ctx context.Context) error {
		owners := r.sb.Delete("users").Where(squirrel.Or{
			squirrel.Expr("id IN (SELECT user_id FROM staffs WHERE company_id = ?)", id),
			squirrel.Expr("id IN (SELECT user_id FROM clients WHERE company_id = ?)", id),
		})
		query, args, err := owners.ToSql()
		if err != nil {
			return err
		}
		trace(_accountEntity, query, args)
		if _, err := r.conn(ctx).ExecContext(ctx, query, args...); err != nil {
			return translate(err, _accountEntity)
		}

		return r.exec(ctx, _companyEntity, r.sb.Delete("companies").Where(squirrel.Eq{"id": id}))
	})
}

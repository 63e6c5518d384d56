package services

import (
	"context"
	"io"
	"time"

	"community-service/internal/models"
	"community-service/internal/repository"
)

// Transactor runs fn inside one database transaction.
type Transactor interface {
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

type TaskStore interface {
	Transactor
	LockStaff(ctx context.Context, staffID int) error
	StaffTasksInDateRange(ctx context.Context, staffID int, from, to models.Date) ([]models.Task, error)
	Insert(ctx context.Context, t *models.Task) error
	Update(ctx context.Context, t *models.Task) error
	SetStatus(ctx context.Context, id int, done bool, doneTime *time.Time) (models.Task, error)
	Delete(ctx context.Context, id int) error
	Details(ctx context.Context, id int) (models.TaskDetails, error)
	ListDetails(ctx context.Context, f repository.TaskFilter) ([]models.TaskDetails, error)
	IDs(ctx context.Context, f repository.TaskFilter) ([]int, error)
}

type StaffStore interface {
	Create(ctx context.Context, s *models.Staff) error
	GetByID(ctx context.Context, id int) (models.Staff, error)
	GetByUser(ctx context.Context, userID int) (models.Staff, error)
	List(ctx context.Context) ([]models.Staff, error)
	ListByCompany(ctx context.Context, companyID int) ([]models.Staff, error)
	Update(ctx context.Context, s *models.Staff) error
	Delete(ctx context.Context, id int) error
}

type ClientStore interface {
	Create(ctx context.Context, c *models.Client) error
	GetByID(ctx context.Context, id int) (models.Client, error)
	GetByUser(ctx context.Context, userID int) (models.Client, error)
	List(ctx context.Context) ([]models.Client, error)
	ListByCompany(ctx context.Context, companyID int) ([]models.Client, error)
	Update(ctx context.Context, c *models.Client) error
	Delete(ctx context.Context, id int) error
}

type AccountStore interface {
	Create(ctx context.Context, acc *models.Account) error
	GetByID(ctx context.Context, id int) (models.Account, error)
	GetByUsername(ctx context.Context, username string) (models.Account, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	List(ctx context.Context) ([]models.AccountSummary, error)
	Update(ctx context.Context, id int, username *string, role *models.Role) (models.Account, error)
	Delete(ctx context.Context, id int) error
}

type CompanyStore interface {
	Transactor
	Create(ctx context.Context, c *models.Company) error
	GetByID(ctx context.Context, id int) (models.Company, error)
	List(ctx context.Context) ([]models.Company, error)
	ListNames(ctx context.Context) ([]models.CompanyName, error)
	Update(ctx context.Context, c *models.Company) error
	TaskIDs(ctx context.Context, companyID int) ([]int, error)
	Delete(ctx context.Context, id int) error
}

type MediaStore interface {
	Transactor
	Insert(ctx context.Context, m *models.Media) error
	Get(ctx context.Context, id int) (models.Media, error)
	ListByTask(ctx context.Context, taskID int) ([]models.Media, error)
	Delete(ctx context.Context, id int) error
}

// FileStore is implemented by storage.Local.
type FileStore interface {
	Save(dir, name string, r io.Reader) (string, error)
	Remove(rel string) error
	RemoveAll(dir string) error
}

type EventPublisher interface {
	Publish(ev models.TaskEvent)
}

// Upload is a file received from a client.
type Upload struct {
	Name   string
	Reader io.Reader
}

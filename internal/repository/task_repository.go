package repository

import (
	"context"
	"time"

	"community-service/internal/models"

	"github.com/Masterminds/squirrel"
)

const _taskEntity = "task"

type TaskRepository struct {
	*Store
}

func NewTaskRepository(s *Store) *TaskRepository {
	return &TaskRepository{Store: s}
}

// TaskFilter narrows ListDetails. Nil fields do not filter.
type TaskFilter struct {
	StaffID  *int
	ClientID *int
	From     *models.Date // on start_date, inclusive
	To       *models.Date // on start_date, inclusive
}

// LockStaff takes a row lock on the staff profile for the rest of the
// transaction, serialising bookings for that staff member.
func (r *TaskRepository) LockStaff(ctx context.Context, staffID int) error {
	var id int
	q := r.sb.Select("id").From("staffs").Where(squirrel.Eq{"id": staffID}).Suffix("FOR UPDATE")
	return r.get(ctx, _staffEntity, &id, q)
}

// StaffTasksInDateRange returns the staff member's tasks whose date span
// touches [from, to]. Times of day are compared by the caller.
func (r *TaskRepository) StaffTasksInDateRange(ctx context.Context, staffID int, from, to models.Date) ([]models.Task, error) {
	q := r.sb.Select("*").
		From("tasks").
		Where(squirrel.Eq{"staff_id": staffID}).
		Where(squirrel.LtOrEq{"start_date": to}).
		Where(squirrel.GtOrEq{"end_date": from}).
		OrderBy("start_date", "start_time")
	tasks := []models.Task{}
	err := r.selectAll(ctx, _taskEntity, &tasks, q)
	return tasks, err
}

func (r *TaskRepository) Insert(ctx context.Context, t *models.Task) error {
	q := r.sb.Insert("tasks").
		Columns("staff_id", "client_id", "start_date", "start_time", "end_date", "end_time",
			"service_type", "tasks_list", "hours").
		Values(t.StaffID, t.ClientID, t.StartDate, t.StartTime, t.EndDate, t.EndTime,
			t.ServiceType, t.TasksList, t.Hours).
		Suffix("RETURNING *")
	return r.get(ctx, _taskEntity, t, q)
}

func (r *TaskRepository) Get(ctx context.Context, id int) (models.Task, error) {
	var t models.Task
	err := r.get(ctx, _taskEntity, &t, r.sb.Select("*").From("tasks").Where(squirrel.Eq{"id": id}))
	return t, err
}

// Update writes the schedule fields of t along with its hours.
func (r *TaskRepository) Update(ctx context.Context, t *models.Task) error {
	q := r.sb.Update("tasks").
		SetMap(map[string]any{
			"start_date":   t.StartDate,
			"start_time":   t.StartTime,
			"end_date":     t.EndDate,
			"end_time":     t.EndTime,
			"service_type": t.ServiceType,
			"tasks_list":   t.TasksList,
			"hours":        t.Hours,
			"updated_at":   squirrel.Expr("CURRENT_TIMESTAMP"),
		}).
		Where(squirrel.Eq{"id": t.ID}).
		Suffix("RETURNING *")
	return r.get(ctx, _taskEntity, t, q)
}

func (r *TaskRepository) SetStatus(ctx context.Context, id int, done bool, doneTime *time.Time) (models.Task, error) {
	var t models.Task
	q := r.sb.Update("tasks").
		Set("done", done).
		Set("done_time", doneTime).
		Set("updated_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING *")
	err := r.get(ctx, _taskEntity, &t, q)
	return t, err
}

// Delete removes the task; media rows cascade.
func (r *TaskRepository) Delete(ctx context.Context, id int) error {
	return r.exec(ctx, _taskEntity, r.sb.Delete("tasks").Where(squirrel.Eq{"id": id}))
}

func (r *TaskRepository) detailsQuery() squirrel.SelectBuilder {
	return r.sb.Select(
		"t.*",
		"concat_ws(' ', s.given_name, s.surname) AS staff_name",
		"concat_ws(' ', c.given_name, c.surname) AS client_name",
		"s.user_id AS staff_user_id",
		"c.user_id AS client_user_id",
		"COALESCE(array_agg(m.file_path ORDER BY m.id) FILTER (WHERE m.id IS NOT NULL), '{}') AS media_files",
	).
		From("tasks t").
		Join("staffs s ON s.id = t.staff_id").
		Join("clients c ON c.id = t.client_id").
		LeftJoin("media m ON m.task_id = t.id").
		GroupBy("t.id", "s.id", "c.id")
}

func (r *TaskRepository) Details(ctx context.Context, id int) (models.TaskDetails, error) {
	var d models.TaskDetails
	err := r.get(ctx, _taskEntity, &d, r.detailsQuery().Where(squirrel.Eq{"t.id": id}))
	return d, err
}

func (r *TaskRepository) ListDetails(ctx context.Context, f TaskFilter) ([]models.TaskDetails, error) {
	q := r.detailsQuery()
	if f.StaffID != nil {
		q = q.Where(squirrel.Eq{"t.staff_id": *f.StaffID})
	}
	if f.ClientID != nil {
		q = q.Where(squirrel.Eq{"t.client_id": *f.ClientID})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"t.start_date": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"t.start_date": *f.To})
	}
	q = q.OrderBy("t.start_date", "t.start_time", "t.id")

	tasks := []models.TaskDetails{}
	err := r.selectAll(ctx, _taskEntity, &tasks, q)
	return tasks, err
}

// IDs returns the ids of tasks matching f, used to clean up media
// directories after a cascading delete.
func (r *TaskRepository) IDs(ctx context.Context, f TaskFilter) ([]int, error) {
	q := r.sb.Select("id").From("tasks").OrderBy("id")
	if f.StaffID != nil {
		q = q.Where(squirrel.Eq{"staff_id": *f.StaffID})
	}
	if f.ClientID != nil {
		q = q.Where(squirrel.Eq{"client_id": *f.ClientID})
	}
	ids := []int{}
	err := r.selectAll(ctx, _taskEntity, &ids, q)
	return ids, err
}

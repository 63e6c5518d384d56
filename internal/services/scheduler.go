package services

import (
	"context"
	"time"

	"community-service/internal/apperr"
	"community-service/internal/authz"
	"community-service/internal/cache"
	"community-service/internal/models"
	"community-service/internal/repository"
	"community-service/internal/scheduling"
	"community-service/internal/storage"
	"community-service/pkg/logger"

	"go.uber.org/zap"
)

type CreateTaskInput struct {
	StartDate   models.Date
	StartTime   models.Clock
	EndDate     models.Date
	EndTime     models.Clock
	ServiceType string
	TasksList   *string
}

// EditTaskInput changes only the fields that are set.
type EditTaskInput struct {
	StartDate   *models.Date
	StartTime   *models.Clock
	EndDate     *models.Date
	EndTime     *models.Clock
	ServiceType *string
	TasksList   *string
}

func (in EditTaskInput) touchesInterval() bool {
	return in.StartDate != nil || in.StartTime != nil || in.EndDate != nil || in.EndTime != nil
}

// Scheduler books, edits and reports shifts while keeping a staff member
// free of overlapping bookings.
type Scheduler struct {
	tasks   TaskStore
	staff   StaffStore
	clients ClientStore
	cache   cache.TaskCache
	events  EventPublisher
	sweeper *taskSweeper
	now     func() time.Time
}

func NewScheduler(tasks TaskStore, staff StaffStore, clients ClientStore, c cache.TaskCache, events EventPublisher, files FileStore) *Scheduler {
	return &Scheduler{
		tasks:   tasks,
		staff:   staff,
		clients: clients,
		cache:   c,
		events:  events,
		sweeper: &taskSweeper{files: files, cache: c},
		now:     time.Now,
	}
}

// WithClock replaces the time source used for week bounds and done stamps.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Create books a shift for the calling staff member with the given client.
func (s *Scheduler) Create(ctx context.Context, p authz.Principal, clientID int, in CreateTaskInput) (models.Task, error) {
	if err := authz.Require(p, authz.BookTask); err != nil {
		return models.Task{}, err
	}
	if in.ServiceType == "" {
		return models.Task{}, apperr.Invalidf("service_type is required")
	}

	staff, err := s.staff.GetByUser(ctx, p.AccountID)
	if err != nil {
		return models.Task{}, err
	}
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return models.Task{}, err
	}

	iv := scheduling.Interval{StartDate: in.StartDate, StartTime: in.StartTime, EndDate: in.EndDate, EndTime: in.EndTime}
	if err := iv.Validate(); err != nil {
		return models.Task{}, err
	}

	task := models.Task{
		StaffID:     staff.ID,
		ClientID:    client.ID,
		StartDate:   in.StartDate,
		StartTime:   in.StartTime,
		EndDate:     in.EndDate,
		EndTime:     in.EndTime,
		ServiceType: in.ServiceType,
		TasksList:   in.TasksList,
		Hours:       iv.Hours(),
	}

	// Row lock on the staff profile serialises concurrent bookings, so the
	// overlap read below cannot go stale before the insert commits.
	err = s.tasks.Atomic(ctx, func(ctx context.Context) error {
		if err := s.tasks.LockStaff(ctx, staff.ID); err != nil {
			return err
		}
		booked, err := s.tasks.StaffTasksInDateRange(ctx, staff.ID, iv.StartDate, iv.EndDate)
		if err != nil {
			return err
		}
		if clash, found := scheduling.FirstConflict(booked, iv); found {
			logger.AuditLogger.Warn("Overlapping task rejected",
				zap.Int("staff_id", staff.ID), zap.Int("conflict_task_id", clash.ID))
			return apperr.New(apperr.OverlapConflict, "Overlapping task found in the selected time!")
		}
		return s.tasks.Insert(ctx, &task)
	})
	if err != nil {
		return models.Task{}, err
	}

	logger.AuditLogger.Info("Task created",
		zap.Int("task_id", task.ID), zap.Int("staff_id", staff.ID), zap.Int("client_id", client.ID), zap.Float64("hours", task.Hours))
	s.events.Publish(models.TaskEvent{
		Type: models.TaskCreated, TaskID: task.ID, StaffID: staff.ID, ClientID: client.ID, At: s.now().UTC(),
		StaffUserID: staff.UserID, ClientUserID: client.UserID,
	})
	return task, nil
}

// Edit is reserved for the staff member who owns the task. Overlap with
// other bookings is not checked again.
func (s *Scheduler) Edit(ctx context.Context, p authz.Principal, taskID int, in EditTaskInput) (models.Task, error) {
	current, err := s.tasks.Details(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if err := authz.Require(p, authz.EditTask, current.StaffUserID); err != nil {
		return models.Task{}, err
	}

	task := current.Task
	if in.StartDate != nil {
		task.StartDate = *in.StartDate
	}
	if in.StartTime != nil {
		task.StartTime = *in.StartTime
	}
	if in.EndDate != nil {
		task.EndDate = *in.EndDate
	}
	if in.EndTime != nil {
		task.EndTime = *in.EndTime
	}
	if in.ServiceType != nil && *in.ServiceType != "" {
		task.ServiceType = *in.ServiceType
	}
	if in.TasksList != nil {
		task.TasksList = in.TasksList
	}

	if in.touchesInterval() {
		iv := scheduling.Of(task)
		if err := iv.Validate(); err != nil {
			return models.Task{}, err
		}
		task.Hours = iv.Hours()
	}

	if err := s.tasks.Update(ctx, &task); err != nil {
		return models.Task{}, err
	}
	s.cache.Invalidate(ctx, task.ID)

	logger.AuditLogger.Info("Task edited", zap.Int("task_id", task.ID), zap.Int("by", p.AccountID))
	s.events.Publish(current.Event(models.TaskEdited, s.now().UTC()))
	return task, nil
}

// Delete is allowed for admins and the owning staff member. Media rows go
// with the task; the media directory is removed after commit.
func (s *Scheduler) Delete(ctx context.Context, p authz.Principal, taskID int) error {
	current, err := s.tasks.Details(ctx, taskID)
	if err != nil {
		return err
	}
	if err := authz.Require(p, authz.DeleteTask, current.StaffUserID); err != nil {
		logger.SecurityLogger.Warn("Task delete refused", zap.Int("task_id", taskID), zap.Int("by", p.AccountID))
		return err
	}

	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return err
	}
	s.sweeper.sweep(ctx, taskID)

	logger.AuditLogger.Info("Task deleted", zap.Int("task_id", taskID), zap.Int("by", p.AccountID))
	s.events.Publish(current.Event(models.TaskDeleted, s.now().UTC()))
	return nil
}

// MarkStatus sets the done flag. Becoming done stamps the current time,
// becoming not done clears it.
func (s *Scheduler) MarkStatus(ctx context.Context, p authz.Principal, taskID int, done bool) (models.Task, error) {
	current, err := s.tasks.Details(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if err := authz.Require(p, authz.SetTaskStatus, current.StaffUserID); err != nil {
		return models.Task{}, err
	}

	var doneTime *time.Time
	if done {
		now := s.now().UTC()
		doneTime = &now
	}
	task, err := s.tasks.SetStatus(ctx, taskID, done, doneTime)
	if err != nil {
		return models.Task{}, err
	}
	s.cache.Invalidate(ctx, taskID)

	logger.AuditLogger.Info("Task status updated", zap.Int("task_id", taskID), zap.Bool("done", done))
	s.events.Publish(current.Event(models.TaskStatusChange, s.now().UTC()))
	return task, nil
}

// Get returns one task with names and media, read through the cache.
func (s *Scheduler) Get(ctx context.Context, p authz.Principal, taskID int) (models.TaskDetails, error) {
	d, hit := s.cache.Get(ctx, taskID)
	if !hit {
		var err error
		if d, err = s.tasks.Details(ctx, taskID); err != nil {
			return models.TaskDetails{}, err
		}
		s.cache.Set(ctx, d)
	}
	if err := authz.Require(p, authz.ReadTask, d.StaffUserID, d.ClientUserID); err != nil {
		return models.TaskDetails{}, err
	}
	return d, nil
}

func (s *Scheduler) All(ctx context.Context, p authz.Principal) ([]models.TaskDetails, error) {
	if err := authz.Require(p, authz.ListAllTasks); err != nil {
		return nil, err
	}
	return s.tasks.ListDetails(ctx, repository.TaskFilter{})
}

func (s *Scheduler) ByStaff(ctx context.Context, p authz.Principal, staffID int) ([]models.TaskDetails, error) {
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.ListStaffTasks, staff.UserID); err != nil {
		return nil, err
	}
	return s.tasks.ListDetails(ctx, repository.TaskFilter{StaffID: &staff.ID})
}

func (s *Scheduler) ByClient(ctx context.Context, p authz.Principal, clientID int) ([]models.TaskDetails, error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.ListClientTasks, client.UserID); err != nil {
		return nil, err
	}
	return s.tasks.ListDetails(ctx, repository.TaskFilter{ClientID: &client.ID})
}

// Mine lists the caller's own tasks, as staff or as client.
func (s *Scheduler) Mine(ctx context.Context, p authz.Principal) ([]models.TaskDetails, error) {
	if !authz.Allow(p, authz.ListOwnTasks) {
		return nil, apperr.Forbiddenf("Access forbidden!")
	}
	f, err := s.ownFilter(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.tasks.ListDetails(ctx, f)
}

// CurrentWeek lists the caller's tasks starting between this Monday and
// Sunday.
func (s *Scheduler) CurrentWeek(ctx context.Context, p authz.Principal) ([]models.TaskDetails, error) {
	if !authz.Allow(p, authz.ReadWeek) {
		return nil, apperr.Forbiddenf("Access forbidden!")
	}
	f, err := s.ownFilter(ctx, p)
	if err != nil {
		return nil, err
	}
	from, to := scheduling.WeekBounds(s.now())
	f.From, f.To = &from, &to
	return s.tasks.ListDetails(ctx, f)
}

func (s *Scheduler) ownFilter(ctx context.Context, p authz.Principal) (repository.TaskFilter, error) {
	switch p.Role {
	case models.RoleStaff:
		staff, err := s.staff.GetByUser(ctx, p.AccountID)
		if err != nil {
			return repository.TaskFilter{}, err
		}
		return repository.TaskFilter{StaffID: &staff.ID}, nil
	case models.RoleClient:
		client, err := s.clients.GetByUser(ctx, p.AccountID)
		if err != nil {
			return repository.TaskFilter{}, err
		}
		return repository.TaskFilter{ClientID: &client.ID}, nil
	default:
		return repository.TaskFilter{}, apperr.Forbiddenf("Access forbidden!")
	}
}

// taskSweeper cleans up after tasks that are gone from the database.
type taskSweeper struct {
	files FileStore
	cache cache.TaskCache
}

// forget drops cached details of tasks that still exist but whose joined
// names changed.
func (w *taskSweeper) forget(ctx context.Context, f repository.TaskFilter, lister TaskIDLister) error {
	ids, err := lister.IDs(ctx, f)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		w.cache.Invalidate(ctx, ids...)
	}
	return nil
}

func (w *taskSweeper) sweep(ctx context.Context, taskIDs ...int) {
	if len(taskIDs) == 0 {
		return
	}
	w.cache.Invalidate(ctx, taskIDs...)
	for _, id := range taskIDs {
		if err := w.files.RemoveAll(storage.MediaDir(id)); err != nil {
			logger.ErrorLogger.Error("Failed to remove task media directory", zap.Int("task_id", id), zap.Error(err))
		}
	}
}

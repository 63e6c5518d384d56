package services

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"community-service/internal/apperr"
	"community-service/internal/authz"
	"community-service/internal/cache"
	"community-service/internal/models"
	"community-service/internal/storage"
	"community-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskReader is the slice of the task store media needs for ownership.
type TaskReader interface {
	Details(ctx context.Context, id int) (models.TaskDetails, error)
}

type MediaService struct {
	media  MediaStore
	tasks  TaskReader
	files  FileStore
	cache  cache.TaskCache
	events EventPublisher
	now    func() time.Time
}

func NewMediaService(media MediaStore, tasks TaskReader, files FileStore, c cache.TaskCache, events EventPublisher) *MediaService {
	return &MediaService{media: media, tasks: tasks, files: files, cache: c, events: events, now: time.Now}
}

// Upload stores the file first and then records it. If the record cannot
// be written the file is removed again.
func (s *MediaService) Upload(ctx context.Context, p authz.Principal, taskID int, up Upload) (models.Media, error) {
	task, err := s.tasks.Details(ctx, taskID)
	if err != nil {
		return models.Media{}, err
	}
	if err := authz.Require(p, authz.UploadMedia, task.StaffUserID); err != nil {
		return models.Media{}, err
	}

	name := uuid.NewString() + "-" + storage.SanitizeName(up.Name)
	rel, err := s.files.Save(storage.MediaDir(taskID), name, up.Reader)
	if err != nil {
		return models.Media{}, apperr.Wrap(apperr.Internal, err, "save media file")
	}

	m := models.Media{TaskID: taskID, FilePath: rel}
	if err := s.media.Insert(ctx, &m); err != nil {
		if rmErr := s.files.Remove(rel); rmErr != nil {
			logger.ErrorLogger.Error("Failed to remove orphaned upload", zap.String("path", rel), zap.Error(rmErr))
		}
		return models.Media{}, err
	}
	s.cache.Invalidate(ctx, taskID)

	logger.AuditLogger.Info("Media uploaded", zap.Int("task_id", taskID), zap.Int("media_id", m.ID))
	s.events.Publish(task.Event(models.TaskMediaChange, s.now().UTC()))
	return m, nil
}

func (s *MediaService) List(ctx context.Context, p authz.Principal, taskID int) ([]models.Media, error) {
	task, err := s.tasks.Details(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.ListMedia, task.StaffUserID, task.ClientUserID); err != nil {
		return nil, err
	}
	return s.media.ListByTask(ctx, taskID)
}

// Delete removes the record and its file together. When the file cannot be
// removed, missing included, the record deletion is rolled back.
func (s *MediaService) Delete(ctx context.Context, p authz.Principal, mediaID int) error {
	m, err := s.media.Get(ctx, mediaID)
	if err != nil {
		return err
	}
	task, err := s.tasks.Details(ctx, m.TaskID)
	if err != nil {
		return err
	}
	if err := authz.Require(p, authz.DeleteMedia, task.StaffUserID); err != nil {
		return err
	}

	err = s.media.Atomic(ctx, func(ctx context.Context) error {
		if err := s.media.Delete(ctx, mediaID); err != nil {
			return err
		}
		if err := s.files.Remove(m.FilePath); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return apperr.Wrap(apperr.NotFound, err, "File not found on disk")
			}
			return apperr.Wrap(apperr.Internal, err, "Error deleting media")
		}
		return nil
	})
	if err != nil {
		logger.ErrorLogger.Error("Media delete rolled back", zap.Int("media_id", mediaID), zap.Error(err))
		return err
	}
	s.cache.Invalidate(ctx, m.TaskID)

	logger.AuditLogger.Info("Media deleted", zap.Int("media_id", mediaID), zap.Int("task_id", m.TaskID))
	s.events.Publish(task.Event(models.TaskMediaChange, s.now().UTC()))
	return nil
}

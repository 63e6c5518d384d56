package repository

import (
	"context"

	"community-service/internal/models"

	"github.com/Masterminds/squirrel"
)

const _mediaEntity = "media"

type MediaRepository struct {
	*Store
}

func NewMediaRepository(s *Store) *MediaRepository {
	return &MediaRepository{Store: s}
}

func (r *MediaRepository) Insert(ctx context.Context, m *models.Media) error {
	q := r.sb.Insert("media").
		Columns("task_id", "file_path").
		Values(m.TaskID, m.FilePath).
		Suffix("RETURNING *")
	return r.get(ctx, _mediaEntity, m, q)
}

func (r *MediaRepository) Get(ctx context.Context, id int) (models.Media, error) {
	var m models.Media
	err := r.get(ctx, _mediaEntity, &m, r.sb.Select("*").From("media").Where(squirrel.Eq{"id": id}))
	return m, err
}

func (r *MediaRepository) ListByTask(ctx context.Context, taskID int) ([]models.Media, error) {
	media := []models.Media{}
	q := r.sb.Select("*").From("media").Where(squirrel.Eq{"task_id": taskID}).OrderBy("id")
	err := r.selectAll(ctx, _mediaEntity, &media, q)
	return media, err
}

func (r *MediaRepository) Delete(ctx context.Context, id int) error {
	return r.exec(ctx, _mediaEntity, r.sb.Delete("media").Where(squirrel.Eq{"id": id}))
}

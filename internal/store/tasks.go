package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

func (s *Store) CreateTask(ctx context.Context, t *models.Task) error {
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var t models.Task
	ok, err := first(s.db.WithContext(ctx).Where("id = ?", id), &t)
	if err != nil || !ok {
		return nil, err
	}
	return &t, nil
}

func (s *Store) UpdateTask(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return s.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Updates(fields).Error
}

// ListTasksByProjects returns every task of the given projects.
func (s *Store) ListTasksByProjects(ctx context.Context, projectIDs []uuid.UUID) ([]models.Task, error) {
	rows := []models.Task{}
	if len(projectIDs) == 0 {
		return rows, nil
	}
	err := s.db.WithContext(ctx).Where("project_id IN ?", projectIDs).Order("created_at ASC").Find(&rows).Error
	return rows, err
}

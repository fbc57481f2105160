package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	return s.db.WithContext(ctx).Create(p).Error
}

// GetProject loads a project with its milestones ordered by their explicit order.
func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	q := s.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("id = ?", id)
	ok, err := first(q, &p)
	if err != nil || !ok {
		return nil, err
	}
	if p.Milestones == nil {
		p.Milestones = []models.Milestone{}
	}
	return &p, nil
}

// ListProjectsByClient returns the client's projects, newest first.
func (s *Store) ListProjectsByClient(ctx context.Context, clientID uuid.UUID) ([]models.Project, error) {
	rows := []models.Project{}
	err := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (s *Store) UpdateProject(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	fields["updated_at"] = time.Now()
	return s.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Updates(fields).Error
}

func (s *Store) CreateMilestone(ctx context.Context, m *models.Milestone) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *Store) ListMilestones(ctx context.Context, projectID uuid.UUID) ([]models.Milestone, error) {
	rows := []models.Milestone{}
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("sort_order ASC").Find(&rows).Error
	return rows, err
}

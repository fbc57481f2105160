package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *Store) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var m models.Message
	ok, err := first(s.db.WithContext(ctx).Where("id = ?", id), &m)
	if err != nil || !ok {
		return nil, err
	}
	return &m, nil
}

func (s *Store) GetMessageByCorrelation(ctx context.Context, projectID uuid.UUID, correlationID string) (*models.Message, error) {
	var m models.Message
	ok, err := first(s.db.WithContext(ctx).Where("project_id = ? AND correlation_id = ?", projectID, correlationID), &m)
	if err != nil || !ok {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns a project's conversation in creation order.
func (s *Store) ListMessages(ctx context.Context, projectID uuid.UUID) ([]models.Message, error) {
	rows := []models.Message{}
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (s *Store) MarkMessageRead(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Update("is_read", true).Error
}

package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

func (s *Store) CreateDelivery(ctx context.Context, d *models.Delivery) error {
	return s.db.WithContext(ctx).Create(d).Error
}

func (s *Store) GetDelivery(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	var d models.Delivery
	ok, err := first(s.db.WithContext(ctx).Where("id = ?", id), &d)
	if err != nil || !ok {
		return nil, err
	}
	return &d, nil
}

func (s *Store) ListDeliveries(ctx context.Context, projectID uuid.UUID) ([]models.Delivery, error) {
	rows := []models.Delivery{}
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// UpdateDelivery applies fields only while the delivery is still pending.
// It reports false when the row was not pending anymore.
func (s *Store) UpdateDelivery(ctx context.Context, id uuid.UUID, fields map[string]any) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Delivery{}).
		Where("id = ? AND status = ?", id, models.DeliveryPending).
		Updates(fields)
	return res.RowsAffected > 0, res.Error
}

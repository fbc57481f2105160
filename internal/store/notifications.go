package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *Store) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var n models.Notification
	ok, err := first(s.db.WithContext(ctx).Where("id = ?", id), &n)
	if err != nil || !ok {
		return nil, err
	}
	return &n, nil
}

// ListNotifications returns a user's notifications, oldest first (append order).
func (s *Store) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	rows := []models.Notification{}
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	err := q.Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (s *Store) MarkNotificationRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_read": true, "read_at": at}).Error
}

// MarkAllNotificationsRead returns the ids it changed so callers can publish updates.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return ids, nil
	}
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"is_read": true, "read_at": at}).Error
	return ids, err
}

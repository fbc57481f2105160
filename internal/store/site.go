package store

import (
	"context"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

func (s *Store) CreateContactMessage(ctx context.Context, m *models.ContactMessage) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *Store) ListPublishedTestimonials(ctx context.Context) ([]models.Testimonial, error) {
	rows := []models.Testimonial{}
	err := s.db.WithContext(ctx).Where("published = ?", true).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

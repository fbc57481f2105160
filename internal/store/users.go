package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	ok, err := first(s.db.WithContext(ctx).Where("id = ?", id), &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	ok, err := first(s.db.WithContext(ctx).Where("email = ?", email), &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

// GetUserByClient returns the portal login attached to a client, if any.
func (s *Store) GetUserByClient(ctx context.Context, clientID uuid.UUID) (*models.User, error) {
	var u models.User
	ok, err := first(s.db.WithContext(ctx).Where("client_id = ? AND role = ?", clientID, models.RoleClient), &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

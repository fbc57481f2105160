package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

func (s *Store) CreateClient(ctx context.Context, c *models.Client) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *Store) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var c models.Client
	ok, err := first(s.db.WithContext(ctx).Where("id = ?", id), &c)
	if err != nil || !ok {
		return nil, err
	}
	return &c, nil
}

func (s *Store) GetClientByMagicToken(ctx context.Context, token string) (*models.Client, error) {
	var c models.Client
	ok, err := first(s.db.WithContext(ctx).Where("magic_token = ?", token), &c)
	if err != nil || !ok {
		return nil, err
	}
	return &c, nil
}

// ListClients returns clients ordered by name, optionally filtered by active flag and search term.
func (s *Store) ListClients(ctx context.Context, active *bool, search string, page, size int) ([]models.Client, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Client{})
	if active != nil {
		q = q.Where("active = ?", *active)
	}
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(company) LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := make([]models.Client, 0, size)
	if err := q.Order("name ASC").Offset((page - 1) * size).Limit(size).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *Store) UpdateClient(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	fields["updated_at"] = time.Now()
	return s.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", id).Updates(fields).Error
}

// SetMagicToken stores (or clears, with token nil) the client's single-use login token.
func (s *Store) SetMagicToken(ctx context.Context, id uuid.UUID, token *string, expiresAt *time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", id).
		Updates(map[string]any{"magic_token": token, "magic_token_expires_at": expiresAt}).Error
}

// ConsumeMagicToken clears the client's magic token if it still equals token.
// It reports false when another request consumed it first.
func (s *Store) ConsumeMagicToken(ctx context.Context, id uuid.UUID, token string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Client{}).
		Where("id = ? AND magic_token = ?", id, token).
		Updates(map[string]any{"magic_token": nil, "magic_token_expires_at": nil})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AddBilled adds delta cents to the client's billed total.
func (s *Store) AddBilled(ctx context.Context, id uuid.UUID, delta int64) error {
	return s.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", id).
		UpdateColumn("total_billed", gorm.Expr("total_billed + ?", delta)).Error
}

// AddPaid adds delta cents to the client's paid total.
func (s *Store) AddPaid(ctx context.Context, id uuid.UUID, delta int64) error {
	return s.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", id).
		UpdateColumn("total_paid", gorm.Expr("total_paid + ?", delta)).Error
}

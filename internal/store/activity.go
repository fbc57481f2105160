package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

// LogActivity inserts an audit record. Errors are ignored (best-effort trail).
func (s *Store) LogActivity(
	ctx context.Context,
	entityType string,
	entityID, actorID uuid.UUID,
	action, oldS, newS, reason string,
) {
	_ = s.db.WithContext(ctx).Create(&models.ActivityLog{
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Action:     action,
		OldStatus:  oldS,
		NewStatus:  newS,
		Reason:     reason,
		CreatedAt:  time.Now(),
	}).Error
}

func (s *Store) ListActivity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.ActivityLog, error) {
	rows := []models.ActivityLog{}
	err := s.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").Find(&rows).Error
	return rows, err
}

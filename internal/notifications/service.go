package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldoetobex/freelance-portal/internal/realtime"
	"github.com/aldoetobex/freelance-portal/pkg/models"
	"github.com/aldoetobex/freelance-portal/pkg/sanitize"
)

var ErrNotFound = errors.New("notification not found")

// Repository is the slice of the data access layer notifications need.
type Repository interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID, at time.Time) ([]uuid.UUID, error)
}

// Service persists notifications and publishes them on the user's channel.
type Service struct {
	repo Repository
	hub  *realtime.Hub
	log  *zap.Logger
	now  func() time.Time
}

func NewService(repo Repository, hub *realtime.Hub, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, hub: hub, log: log, now: time.Now}
}

// Input describes a notification to send.
type Input struct {
	UserID uuid.UUID
	Title  string
	Body   string
	Type   string
	Link   string
}

// Notify stores a notification and publishes an INSERT for its user.
func (s *Service) Notify(ctx context.Context, in Input) (*models.Notification, error) {
	n := &models.Notification{
		UserID:    in.UserID,
		Title:     in.Title,
		Body:      sanitize.Summary(in.Body, 280),
		Type:      in.Type,
		Link:      in.Link,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	s.publish(realtime.Insert, *n)
	return n, nil
}

// List returns the user's notifications in arrival order.
func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	return s.repo.ListNotifications(ctx, userID, unreadOnly)
}

// MarkRead marks one of the user's notifications read. Already-read
// notifications are returned unchanged. Deleting a notification is this same
// soft mark.
func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) (*models.Notification, error) {
	n, err := s.repo.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil || n.UserID != userID {
		return nil, ErrNotFound
	}
	if n.IsRead {
		return n, nil
	}

	at := s.now()
	if err := s.repo.MarkNotificationRead(ctx, id, at); err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	n.IsRead, n.ReadAt = true, &at
	s.publish(realtime.Update, *n)
	return n, nil
}

// MarkAllRead marks every unread notification of the user and returns how many changed.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	ids, err := s.repo.MarkAllNotificationsRead(ctx, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	for _, id := range ids {
		n, err := s.repo.GetNotification(ctx, id)
		if err != nil || n == nil {
			s.log.Warn("reload notification after mark-all failed", zap.String("notification_id", id.String()), zap.Error(err))
			continue
		}
		s.publish(realtime.Update, *n)
	}
	return len(ids), nil
}

func (s *Service) publish(t realtime.EventType, n models.Notification) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(realtime.NotificationsChannel(n.UserID.String()), realtime.Event{
		Type:   t,
		Table:  "notifications",
		Record: n,
	})
}

// ID and cue helpers used by the SSE stream.
func notificationID(n models.Notification) string { return n.ID.String() }

func cue(n models.Notification) (any, error) {
	return map[string]string{"sound": "notification", "notification_id": n.ID.String()}, nil
}

// Package messages is the per-project conversation between the studio and a
// client. Sends are idempotent per correlation id and every stored message is
// published on the project's realtime channel.
package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldoetobex/freelance-portal/internal/notifications"
	"github.com/aldoetobex/freelance-portal/internal/realtime"
	"github.com/aldoetobex/freelance-portal/pkg/dedup"
	"github.com/aldoetobex/freelance-portal/pkg/models"
	"github.com/aldoetobex/freelance-portal/pkg/sanitize"
)

var (
	ErrEmptyContent = errors.New("message content is empty")
	ErrNotFound     = errors.New("message not found")
	ErrNoProject    = errors.New("project not found")
	// ErrCorrelationTaken is returned when another sender already used the
	// correlation id in the same project.
	ErrCorrelationTaken = errors.New("correlation id already used by another sender")
)

const previewLen = 80

type Repository interface {
	CreateMessage(ctx context.Context, m *models.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	GetMessageByCorrelation(ctx context.Context, projectID uuid.UUID, correlationID string) (*models.Message, error)
	ListMessages(ctx context.Context, projectID uuid.UUID) ([]models.Message, error)
	MarkMessageRead(ctx context.Context, id uuid.UUID) error
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	GetUserByClient(ctx context.Context, clientID uuid.UUID) (*models.User, error)
}

// Notifier delivers a notification to a portal user.
type Notifier interface {
	Notify(ctx context.Context, in notifications.Input) (*models.Notification, error)
}

type Service struct {
	repo     Repository
	claims   dedup.Claimer
	notifier Notifier
	hub      *realtime.Hub
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, claims dedup.Claimer, notifier Notifier, hub *realtime.Hub, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if claims == nil {
		claims = dedup.NewMemory(10 * time.Minute)
	}
	return &Service{repo: repo, claims: claims, notifier: notifier, hub: hub, log: log, now: time.Now}
}

type SendInput struct {
	ProjectID     uuid.UUID
	SenderID      uuid.UUID
	SenderType    models.SenderType
	Content       string
	CorrelationID string
}

// Project returns the project, or ErrNoProject.
func (s *Service) Project(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNoProject
	}
	return p, nil
}

// Send stores a message once per (project, correlation id). A retried send by
// the same sender returns the stored message with created=false and publishes
// nothing.
func (s *Service) Send(ctx context.Context, in SendInput) (msg *models.Message, created bool, err error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, false, ErrEmptyContent
	}
	project, err := s.Project(ctx, in.ProjectID)
	if err != nil {
		return nil, false, err
	}

	corr := strings.TrimSpace(in.CorrelationID)
	if corr == "" {
		corr = uuid.NewString()
	}

	if !s.claims.Claim(ctx, "message", project.ID.String()+":"+corr) {
		existing, err := s.repo.GetMessageByCorrelation(ctx, project.ID, corr)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return s.duplicate(existing, in)
		}
	}

	m := &models.Message{
		ProjectID:     project.ID,
		SenderID:      in.SenderID,
		SenderType:    in.SenderType,
		Content:       content,
		CorrelationID: &corr,
		CreatedAt:     s.now(),
	}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		// The unique (project_id, correlation_id) index is the last line
		// against a concurrent duplicate.
		if existing, lerr := s.repo.GetMessageByCorrelation(ctx, project.ID, corr); lerr == nil && existing != nil {
			return s.duplicate(existing, in)
		}
		return nil, false, fmt.Errorf("create message: %w", err)
	}

	s.publish(realtime.Insert, *m)
	if in.SenderType == models.SenderAdmin {
		s.notifyClient(ctx, project, m)
	}
	return m, true, nil
}

// duplicate answers a retried send. Only the original sender gets the stored
// message back.
func (s *Service) duplicate(existing *models.Message, in SendInput) (*models.Message, bool, error) {
	if existing.SenderID != in.SenderID || existing.SenderType != in.SenderType {
		return nil, false, ErrCorrelationTaken
	}
	duplicateSends.Inc()
	return existing, false, nil
}

func (s *Service) notifyClient(ctx context.Context, project *models.Project, m *models.Message) {
	if s.notifier == nil {
		return
	}
	u, err := s.repo.GetUserByClient(ctx, project.ClientID)
	if err != nil || u == nil {
		if err != nil {
			s.log.Warn("message notify lookup failed", zap.String("project_id", project.ID.String()), zap.Error(err))
		}
		return
	}
	_, err = s.notifier.Notify(ctx, notifications.Input{
		UserID: u.ID,
		Title:  "Nova mensagem em " + project.Name,
		Body:   sanitize.Summary(m.Content, previewLen),
		Type:   "message",
		Link:   "/portal/projects/" + project.ID.String() + "/messages",
	})
	if err != nil {
		s.log.Warn("message notify failed", zap.String("message_id", m.ID.String()), zap.Error(err))
	}
}

// List returns the project's messages oldest first.
func (s *Service) List(ctx context.Context, projectID uuid.UUID) ([]models.Message, error) {
	return s.repo.ListMessages(ctx, projectID)
}

// MarkRead marks a message read when it belongs to the given project scope
// check. Already-read messages are returned unchanged.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID, allowed func(projectID uuid.UUID) bool) (*models.Message, error) {
	m, err := s.repo.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil || (allowed != nil && !allowed(m.ProjectID)) {
		return nil, ErrNotFound
	}
	if m.IsRead {
		return m, nil
	}
	if err := s.repo.MarkMessageRead(ctx, id); err != nil {
		return nil, fmt.Errorf("mark message read: %w", err)
	}
	m.IsRead = true
	s.publish(realtime.Update, *m)
	return m, nil
}

func (s *Service) publish(t realtime.EventType, m models.Message) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(realtime.MessagesChannel(m.ProjectID.String()), realtime.Event{
		Type:   t,
		Table:  "messages",
		Record: m,
	})
}

func messageID(m models.Message) string { return m.ID.String() }

func correlationID(m models.Message) string {
	if m.CorrelationID == nil {
		return ""
	}
	return *m.CorrelationID
}

package deliveries

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldoetobex/freelance-portal/internal/notifications"
	"github.com/aldoetobex/freelance-portal/internal/storage"
	"github.com/aldoetobex/freelance-portal/pkg/models"
)

var (
	ErrInvalidAction    = errors.New("invalid review action")
	ErrFeedbackRequired = errors.New("feedback is required for this action")
	ErrNotFound         = errors.New("delivery not found")
	ErrAlreadyReviewed  = errors.New("delivery already reviewed")
	ErrNoFile           = errors.New("delivery has no file")
)

// Review actions accepted from the portal.
const (
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionRevision = "revision"
)

// DownloadTTL is how long a signed download link stays valid.
const DownloadTTL = 60 * time.Second

type Repository interface {
	CreateDelivery(ctx context.Context, d *models.Delivery) error
	GetDelivery(ctx context.Context, id uuid.UUID) (*models.Delivery, error)
	ListDeliveries(ctx context.Context, projectID uuid.UUID) ([]models.Delivery, error)
	UpdateDelivery(ctx context.Context, id uuid.UUID, fields map[string]any) (bool, error)
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	GetUserByClient(ctx context.Context, clientID uuid.UUID) (*models.User, error)
	LogActivity(ctx context.Context, entityType string, entityID, actorID uuid.UUID, action, oldS, newS, reason string)
}

// Files is the object storage used for delivery files.
type Files interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Notifier interface {
	Notify(ctx context.Context, in notifications.Input) (*models.Notification, error)
}

type Service struct {
	repo     Repository
	files    Files
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, files Files, notifier Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, files: files, notifier: notifier, log: log, now: time.Now}
}

type ReviewInput struct {
	DeliveryID uuid.UUID
	ClientID   uuid.UUID
	ActorID    uuid.UUID
	Action     string
	Feedback   string
}

// statusFor maps a review action to its terminal status.
func statusFor(action string) (models.DeliveryStatus, bool) {
	switch action {
	case ActionApprove:
		return models.DeliveryApproved, true
	case ActionReject:
		return models.DeliveryRejected, true
	case ActionRevision, "request_revision":
		return models.DeliveryRevisionRequested, true
	}
	return "", false
}

// CheckReview validates a review without touching storage. Reject and
// revision need non-blank feedback.
func CheckReview(action, feedback string) (models.DeliveryStatus, string, error) {
	status, ok := statusFor(strings.ToLower(strings.TrimSpace(action)))
	if !ok {
		return "", "", ErrInvalidAction
	}
	feedback = strings.TrimSpace(feedback)
	if status != models.DeliveryApproved && feedback == "" {
		return "", "", ErrFeedbackRequired
	}
	return status, feedback, nil
}

// Review moves a pending delivery of the client's project to its reviewed
// status. The transition happens once; later reviews get ErrAlreadyReviewed.
func (s *Service) Review(ctx context.Context, in ReviewInput) (*models.Delivery, error) {
	status, feedback, err := CheckReview(in.Action, in.Feedback)
	if err != nil {
		return nil, err
	}

	d, err := s.owned(ctx, in.DeliveryID, in.ClientID)
	if err != nil {
		return nil, err
	}
	if d.Status != models.DeliveryPending {
		return nil, ErrAlreadyReviewed
	}

	at := s.now()
	fields := map[string]any{"status": status, "reviewed_at": at}
	var fb *string
	if feedback != "" {
		fb = &feedback
		fields["client_feedback"] = feedback
	}
	ok, err := s.repo.UpdateDelivery(ctx, d.ID, fields)
	if err != nil {
		return nil, fmt.Errorf("update delivery: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyReviewed
	}
	s.repo.LogActivity(ctx, "delivery", d.ID, in.ActorID, "reviewed", string(d.Status), string(status), feedback)

	d.Status, d.ReviewedAt, d.ClientFeedback = status, &at, fb
	return d, nil
}

// owned loads a delivery and checks that its project belongs to clientID.
func (s *Service) owned(ctx context.Context, deliveryID, clientID uuid.UUID) (*models.Delivery, error) {
	d, err := s.repo.GetDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNotFound
	}
	p, err := s.repo.GetProject(ctx, d.ProjectID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.ClientID != clientID {
		return nil, ErrNotFound
	}
	return d, nil
}

// ListForClient returns the project's deliveries when the project is the client's.
func (s *Service) ListForClient(ctx context.Context, projectID, clientID uuid.UUID) ([]models.Delivery, error) {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.ClientID != clientID {
		return nil, ErrNotFound
	}
	return s.repo.ListDeliveries(ctx, projectID)
}

// DownloadURL signs a short-lived link to the delivery file.
func (s *Service) DownloadURL(ctx context.Context, deliveryID, clientID uuid.UUID) (string, error) {
	d, err := s.owned(ctx, deliveryID, clientID)
	if err != nil {
		return "", err
	}
	if d.FileKey == "" {
		return "", ErrNoFile
	}
	return s.files.SignedURL(ctx, d.FileKey, DownloadTTL)
}

type CreateInput struct {
	ProjectID   uuid.UUID
	Title       string
	Description string
	// Optional file.
	FileName    string
	ContentType string
	File        io.Reader
}

// Create stores a new pending delivery, uploading its file first when one is
// given, and notifies the client.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Delivery, error) {
	p, err := s.repo.GetProject(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}

	d := &models.Delivery{
		ProjectID:   p.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Status:      models.DeliveryPending,
		CreatedAt:   s.now(),
	}
	if in.File != nil {
		key := storage.DeliveryKey(p.ID, in.FileName)
		if err := s.files.Upload(ctx, key, in.File, in.ContentType); err != nil {
			return nil, fmt.Errorf("upload delivery file: %w", err)
		}
		d.FileKey = key
	}
	if err := s.repo.CreateDelivery(ctx, d); err != nil {
		if d.FileKey != "" {
			// No row points at the object; remove it so it does not linger.
			if derr := s.files.Delete(ctx, d.FileKey); derr != nil {
				s.log.Warn("orphaned delivery file", zap.String("key", d.FileKey), zap.Error(derr))
			}
		}
		return nil, fmt.Errorf("create delivery: %w", err)
	}
	s.repo.LogActivity(ctx, "delivery", d.ID, uuid.Nil, "created", "", string(d.Status), "")

	if s.notifier != nil {
		if u, err := s.repo.GetUserByClient(ctx, p.ClientID); err == nil && u != nil {
			if _, err := s.notifier.Notify(ctx, notifications.Input{
				UserID: u.ID,
				Title:  "Nova entrega: " + d.Title,
				Body:   "Uma nova entrega está aguardando sua revisão em " + p.Name + ".",
				Type:   "delivery",
				Link:   "/portal/projects/" + p.ID.String() + "/deliveries",
			}); err != nil {
				s.log.Warn("delivery notify failed", zap.String("delivery_id", d.ID.String()), zap.Error(err))
			}
		}
	}
	return d, nil
}

package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

type Repository interface {
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
	ListProjectsByClient(ctx context.Context, clientID uuid.UUID) ([]models.Project, error)
	ListTasksByProjects(ctx context.Context, projectIDs []uuid.UUID) ([]models.Task, error)
	ListInvoicesByClient(ctx context.Context, clientID uuid.UUID) ([]models.Invoice, error)
}

type Service struct {
	repo Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log, now: time.Now}
}

// ForClient loads the client's collections and computes the summary. Any
// load failure yields a zeroed summary with the error.
func (s *Service) ForClient(ctx context.Context, clientID uuid.UUID) (Stats, error) {
	client, err := s.repo.GetClient(ctx, clientID)
	if err != nil {
		return Zero(), err
	}
	if client == nil {
		return Compute(nil, nil, nil, nil, s.now())
	}

	var (
		projects []models.Project
		tasks    []models.Task
		invoices []models.Invoice
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if projects, err = s.repo.ListProjectsByClient(gctx, clientID); err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(projects))
		for _, p := range projects {
			ids = append(ids, p.ID)
		}
		tasks, err = s.repo.ListTasksByProjects(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		invoices, err = s.repo.ListInvoicesByClient(gctx, clientID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("dashboard load failed", zap.String("client_id", clientID.String()), zap.Error(err))
		return Zero(), err
	}
	return Compute(client, projects, tasks, invoices, s.now())
}

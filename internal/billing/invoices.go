package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldoetobex/freelance-portal/internal/notifications"
	"github.com/aldoetobex/freelance-portal/internal/store"
	"github.com/aldoetobex/freelance-portal/pkg/models"
)

// ItemInput bounds keep Total far from int64 overflow: at most
// 200 items × 10 000 units × R$ 1 bi.
type ItemInput struct {
	Description    string `json:"description" validate:"required,notblank,max=300"`
	Quantity       int    `json:"quantity" validate:"required,min=1,max=10000"`
	UnitPriceCents int64  `json:"unit_price" validate:"required,min=1,max=100000000000"`
}

type InvoiceInput struct {
	ClientID  uuid.UUID
	ProjectID *uuid.UUID
	DueDate   time.Time
	Items     []ItemInput
	ActorID   uuid.UUID
}

// Total sums quantity × unit price over the items.
func Total(items []ItemInput) int64 {
	var total int64
	for _, it := range items {
		total += int64(it.Quantity) * it.UnitPriceCents
	}
	return total
}

func invoiceNumber(now time.Time) string {
	return "FAT-" + now.Format("200601") + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// CreateInvoice stores a pending invoice with its items and adds its total to
// the client's billed amount.
func (s *Service) CreateInvoice(ctx context.Context, in InvoiceInput) (*models.Invoice, error) {
	cl, err := s.st.GetClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if cl == nil {
		return nil, ErrNotFound
	}

	inv := &models.Invoice{
		ClientID:   cl.ID,
		ProjectID:  in.ProjectID,
		Number:     invoiceNumber(s.now()),
		TotalCents: Total(in.Items),
		Status:     models.InvoicePending,
		DueDate:    in.DueDate,
	}
	for _, it := range in.Items {
		inv.Items = append(inv.Items, models.InvoiceItem{
			Description:    strings.TrimSpace(it.Description),
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}
	if inv.TotalCents <= 0 {
		return nil, ErrInvalidAmount
	}

	err = s.st.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.CreateInvoice(ctx, inv); err != nil {
			return err
		}
		return tx.AddBilled(ctx, cl.ID, inv.TotalCents)
	})
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	s.st.LogActivity(ctx, "invoice", inv.ID, in.ActorID, "created", "", string(inv.Status), "")
	s.notifyClient(ctx, cl.ID, notifications.Input{
		Title: "Nova fatura " + inv.Number,
		Body:  fmt.Sprintf("Valor %s com vencimento em %s.", FormatBRL(inv.TotalCents), inv.DueDate.Format("02/01/2006")),
		Type:  "invoice",
		Link:  "/portal/invoices",
	})
	return inv, nil
}

// ListForClient returns the client's invoices, latest due date first.
func (s *Service) ListForClient(ctx context.Context, clientID uuid.UUID) ([]models.Invoice, error) {
	return s.st.ListInvoicesByClient(ctx, clientID)
}

// MarkOverdue flips unpaid invoices past their due date.
func (s *Service) MarkOverdue(ctx context.Context) (int64, error) {
	return s.st.MarkOverdue(ctx, s.now())
}

// RunOverdueSweeper marks overdue invoices every interval until ctx ends.
func (s *Service) RunOverdueSweeper(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		n, err := s.MarkOverdue(ctx)
		if err != nil {
			s.log.Error("overdue sweep failed", zap.Error(err))
		} else if n > 0 {
			s.log.Info("invoices marked overdue", zap.Int64("count", n))
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

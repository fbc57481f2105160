package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

// CreateInvoice inserts the invoice together with its items.
func (s *Store) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	return s.db.WithContext(ctx).Create(inv).Error
}

func (s *Store) GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	q := s.db.WithContext(ctx).Preload("Items").Preload("Payments").Where("id = ?", id)
	ok, err := first(q, &inv)
	if err != nil || !ok {
		return nil, err
	}
	return &inv, nil
}

// LockInvoice loads an invoice FOR UPDATE; only meaningful inside WithTx.
func (s *Store) LockInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	q := s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id)
	ok, err := first(q, &inv)
	if err != nil || !ok {
		return nil, err
	}
	return &inv, nil
}

// ListInvoicesByClient returns invoices with items and payments, newest due date first.
func (s *Store) ListInvoicesByClient(ctx context.Context, clientID uuid.UUID) ([]models.Invoice, error) {
	rows := []models.Invoice{}
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("client_id = ?", clientID).
		Order("due_date DESC").
		Find(&rows).Error
	return rows, err
}

// ListInvoices returns all invoices in a creation window (zero times are open bounds).
func (s *Store) ListInvoices(ctx context.Context, from, to time.Time) ([]models.Invoice, error) {
	rows := []models.Invoice{}
	q := s.db.WithContext(ctx).Model(&models.Invoice{})
	if !from.IsZero() {
		q = q.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("created_at < ?", to)
	}
	err := q.Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (s *Store) UpdateInvoice(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	fields["updated_at"] = time.Now()
	return s.db.WithContext(ctx).Model(&models.Invoice{}).Where("id = ?", id).Updates(fields).Error
}

// MarkOverdue flips pending/partial invoices whose due date has passed.
func (s *Store) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("status IN ? AND due_date < ?", []models.InvoiceStatus{models.InvoicePending, models.InvoicePartial}, now).
		Updates(map[string]any{"status": models.InvoiceOverdue, "updated_at": now})
	return res.RowsAffected, res.Error
}

func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *Store) GetPaymentByTransaction(ctx context.Context, txID string) (*models.Payment, error) {
	var p models.Payment
	ok, err := first(s.db.WithContext(ctx).Where("transaction_id = ?", txID), &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdatePayment(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	fields["updated_at"] = time.Now()
	return s.db.WithContext(ctx).Model(&models.Payment{}).Where("id = ?", id).Updates(fields).Error
}

package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldoetobex/freelance-portal/internal/notifications"
	"github.com/aldoetobex/freelance-portal/internal/store"
	"github.com/aldoetobex/freelance-portal/pkg/models"
)

type Notifier interface {
	Notify(ctx context.Context, in notifications.Input) (*models.Notification, error)
}

type Service struct {
	st       *store.Store
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewService(st *store.Store, notifier Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{st: st, notifier: notifier, log: log, now: time.Now}
}

type PaymentInput struct {
	InvoiceID     uuid.UUID
	AmountCents   int64
	Method        string
	Provider      string
	TransactionID string
	ActorID       uuid.UUID
}

// Receipt is the invoice and payment after a recorded payment.
type Receipt struct {
	Invoice *models.Invoice `json:"invoice"`
	Payment *models.Payment `json:"payment"`
}

// RecordPayment applies an approved payment to its invoice in one
// transaction: the invoice row is locked, the amount is checked against the
// outstanding balance, and the invoice, payment and client totals are updated
// together. A pending payment with the same transaction id is approved in
// place instead of duplicated.
func (s *Service) RecordPayment(ctx context.Context, in PaymentInput) (*Receipt, error) {
	if in.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	var (
		rc        Receipt
		oldStatus models.InvoiceStatus
	)
	err := s.st.WithTx(ctx, func(tx *store.Store) error {
		inv, err := tx.LockInvoice(ctx, in.InvoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return ErrNotFound
		}
		oldStatus = inv.Status

		var pay *models.Payment
		if in.TransactionID != "" {
			if pay, err = tx.GetPaymentByTransaction(ctx, in.TransactionID); err != nil {
				return err
			}
			if pay != nil && pay.InvoiceID != inv.ID {
				return ErrPaymentNotFound
			}
			if pay != nil && pay.Status == models.PayApproved {
				return ErrAlreadyRecorded
			}
		}

		paid, status, err := Settle(*inv, in.AmountCents)
		if err != nil {
			return err
		}

		at := s.now()
		if pay == nil {
			pay = &models.Payment{
				InvoiceID:   inv.ID,
				AmountCents: in.AmountCents,
				Method:      in.Method,
				Provider:    in.Provider,
				Status:      models.PayApproved,
				PaidAt:      &at,
			}
			if in.TransactionID != "" {
				txID := in.TransactionID
				pay.TransactionID = &txID
			}
			if err := tx.CreatePayment(ctx, pay); err != nil {
				return err
			}
		} else {
			if err := tx.UpdatePayment(ctx, pay.ID, map[string]any{"status": models.PayApproved, "paid_at": at}); err != nil {
				return err
			}
			pay.Status, pay.PaidAt = models.PayApproved, &at
		}

		if err := tx.UpdateInvoice(ctx, inv.ID, map[string]any{"paid_amount_cents": paid, "status": status}); err != nil {
			return err
		}
		if err := tx.AddPaid(ctx, inv.ClientID, in.AmountCents); err != nil {
			return err
		}
		inv.PaidAmountCents, inv.Status = paid, status
		rc = Receipt{Invoice: inv, Payment: pay}
		return nil
	})
	if err != nil {
		return nil, err
	}

	inv := rc.Invoice
	s.st.LogActivity(ctx, "invoice", inv.ID, in.ActorID, "payment_recorded",
		string(oldStatus), string(inv.Status), FormatBRL(in.AmountCents))
	s.notifyClient(ctx, inv.ClientID, notifications.Input{
		Title: "Pagamento confirmado",
		Body:  fmt.Sprintf("Recebemos %s referente à fatura %s.", FormatBRL(in.AmountCents), inv.Number),
		Type:  "payment",
		Link:  "/portal/invoices",
	})
	return &rc, nil
}

// Confirm approves the pending payment a provider reported as paid. Already
// approved payments are returned as is.
func (s *Service) Confirm(ctx context.Context, transactionID string) (*models.Payment, error) {
	pay, err := s.st.GetPaymentByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if pay == nil {
		return nil, ErrPaymentNotFound
	}
	if pay.Status == models.PayApproved {
		return pay, nil
	}
	rc, err := s.RecordPayment(ctx, PaymentInput{
		InvoiceID:     pay.InvoiceID,
		AmountCents:   pay.AmountCents,
		Method:        pay.Method,
		Provider:      pay.Provider,
		TransactionID: transactionID,
	})
	if errors.Is(err, ErrAlreadyRecorded) {
		return s.st.GetPaymentByTransaction(ctx, transactionID)
	}
	if err != nil {
		return nil, err
	}
	return rc.Payment, nil
}

// Reject marks a pending provider payment as rejected.
func (s *Service) Reject(ctx context.Context, transactionID string) (*models.Payment, error) {
	pay, err := s.st.GetPaymentByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if pay == nil {
		return nil, ErrPaymentNotFound
	}
	if pay.Status != models.PayPending {
		return pay, nil
	}
	if err := s.st.UpdatePayment(ctx, pay.ID, map[string]any{"status": models.PayRejected}); err != nil {
		return nil, err
	}
	pay.Status = models.PayRejected
	return pay, nil
}

// Payable checks that the client may pay amount on the invoice and returns
// the invoice with the amount to charge. A non-positive amount means the whole
// outstanding balance.
func (s *Service) Payable(ctx context.Context, clientID, invoiceID uuid.UUID, amount int64) (*models.Invoice, int64, error) {
	inv, err := s.st.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, 0, err
	}
	if inv == nil || inv.ClientID != clientID {
		return nil, 0, ErrNotFound
	}
	if amount <= 0 {
		amount = inv.Balance()
	}
	if _, _, err := Settle(*inv, amount); err != nil {
		return nil, 0, err
	}
	return inv, amount, nil
}

// OpenPayment stores a pending provider payment. It is approved later by
// Confirm once the provider reports it paid.
func (s *Service) OpenPayment(ctx context.Context, p *models.Payment) error {
	p.Status = models.PayPending
	if err := s.st.CreatePayment(ctx, p); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// PaymentStatus returns the stored payment for a transaction id of the client.
func (s *Service) PaymentStatus(ctx context.Context, clientID uuid.UUID, transactionID string) (*models.Payment, error) {
	pay, err := s.st.GetPaymentByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if pay == nil {
		return nil, ErrPaymentNotFound
	}
	inv, err := s.st.GetInvoice(ctx, pay.InvoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil || inv.ClientID != clientID {
		return nil, ErrPaymentNotFound
	}
	return pay, nil
}

func (s *Service) notifyClient(ctx context.Context, clientID uuid.UUID, in notifications.Input) {
	if s.notifier == nil {
		return
	}
	u, err := s.st.GetUserByClient(ctx, clientID)
	if err != nil || u == nil {
		return
	}
	in.UserID = u.ID
	if _, err := s.notifier.Notify(ctx, in); err != nil {
		s.log.Warn("billing notify failed", zap.String("client_id", clientID.String()), zap.Error(err))
	}
}

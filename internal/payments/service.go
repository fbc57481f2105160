package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldoetobex/freelance-portal/internal/billing"
	"github.com/aldoetobex/freelance-portal/pkg/models"
)

var ErrUnknownProvider = errors.New("unknown payment provider")

// Ledger is the invoice side of a payment, implemented by billing.Service.
type Ledger interface {
	Payable(ctx context.Context, clientID, invoiceID uuid.UUID, amount int64) (*models.Invoice, int64, error)
	OpenPayment(ctx context.Context, p *models.Payment) error
	PaymentStatus(ctx context.Context, clientID uuid.UUID, transactionID string) (*models.Payment, error)
	Confirm(ctx context.Context, transactionID string) (*models.Payment, error)
	Reject(ctx context.Context, transactionID string) (*models.Payment, error)
}

// Clients resolves the payer e-mail handed to providers.
type Clients interface {
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

type Service struct {
	ledger    Ledger
	clients   Clients
	providers map[string]Provider
	log       *zap.Logger
}

func NewService(ledger Ledger, clients Clients, log *zap.Logger, providers ...Provider) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{ledger: ledger, clients: clients, providers: map[string]Provider{}, log: log}
	for _, p := range providers {
		s.providers[p.Name()] = p
	}
	return s
}

// InitiateInput asks for a checkout of Amount cents on an invoice; zero
// means the whole outstanding balance.
type InitiateInput struct {
	ClientID  uuid.UUID
	InvoiceID uuid.UUID
	Amount    int64
}

// Initiate makes one provider call and stores the resulting transaction as a
// pending payment. Provider failures are returned as is; nothing is retried.
func (s *Service) Initiate(ctx context.Context, provider string, in InitiateInput) (*Checkout, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}
	inv, amount, err := s.ledger.Payable(ctx, in.ClientID, in.InvoiceID, in.Amount)
	if err != nil {
		return nil, err
	}

	ch := Charge{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.Number,
		AmountCents:   amount,
		Reference:     uuid.NewString(),
	}
	if s.clients != nil {
		if cl, err := s.clients.GetClient(ctx, in.ClientID); err == nil && cl != nil {
			ch.PayerEmail = cl.Email
		}
	}

	co, err := p.Create(ctx, ch)
	if err != nil {
		s.log.Warn("payment provider call failed",
			zap.String("provider", provider),
			zap.String("invoice_id", inv.ID.String()),
			zap.Error(err))
		return nil, err
	}

	tx := co.TransactionID
	if err := s.ledger.OpenPayment(ctx, &models.Payment{
		InvoiceID:     inv.ID,
		AmountCents:   amount,
		Method:        p.Method(),
		Provider:      p.Name(),
		TransactionID: &tx,
	}); err != nil {
		return nil, fmt.Errorf("open payment: %w", err)
	}
	return co, nil
}

// Status returns the payment state of a transaction of the client. While the
// stored payment is pending the provider is asked once, and a final answer is
// written back to the ledger.
func (s *Service) Status(ctx context.Context, clientID uuid.UUID, transactionID string) (*models.Payment, error) {
	pay, err := s.ledger.PaymentStatus(ctx, clientID, transactionID)
	if err != nil {
		return nil, err
	}
	if pay.Status != models.PayPending {
		return pay, nil
	}
	p, ok := s.providers[pay.Provider]
	if !ok {
		return pay, nil
	}

	st, err := p.Status(ctx, transactionID)
	if err != nil {
		s.log.Warn("payment status poll failed",
			zap.String("provider", pay.Provider),
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		return pay, nil
	}
	var settled *models.Payment
	switch st {
	case models.PayApproved:
		settled, err = s.ledger.Confirm(ctx, transactionID)
	case models.PayRejected:
		settled, err = s.ledger.Reject(ctx, transactionID)
	default:
		return pay, nil
	}
	if err != nil {
		// The provider's answer stands; the payment stays pending here and
		// the caller gets the stored row instead of an error.
		s.settleFailed(pay, st, err)
		return pay, nil
	}
	return settled, nil
}

// settleFailed reports a provider outcome the ledger could not apply. An
// approval that no longer fits the invoice (paid meanwhile by another
// transaction) is money taken that needs manual reconciliation.
func (s *Service) settleFailed(pay *models.Payment, st models.PayStatus, err error) {
	fields := []zap.Field{
		zap.String("provider", pay.Provider),
		zap.String("transaction_id", derefString(pay.TransactionID)),
		zap.String("invoice_id", pay.InvoiceID.String()),
		zap.Int64("amount_cents", pay.AmountCents),
		zap.String("provider_status", string(st)),
		zap.Error(err),
	}
	if st == models.PayApproved && (errors.Is(err, billing.ErrAlreadyPaid) || errors.Is(err, billing.ErrExceedsBalance)) {
		unappliedPayments.WithLabelValues(pay.Provider).Inc()
		s.log.Error("approved payment does not fit the invoice; reconcile manually", fields...)
		return
	}
	s.log.Warn("payment settle failed", fields...)
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Complete approves a pending transaction without asking its provider. Only
// the dev mock endpoint calls it.
func (s *Service) Complete(ctx context.Context, transactionID string) (*models.Payment, error) {
	return s.ledger.Confirm(ctx, transactionID)
}

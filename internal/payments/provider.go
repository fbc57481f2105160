// Package payments starts provider checkouts for invoices and polls their
// status. Each provider call is a single request/response round trip.
package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

// Provider names, as used in routes and stored on payments.
const (
	ProviderStripe      = "stripe"
	ProviderMercadoPago = "mercadopago"
	ProviderPix         = "pix"
)

var ErrProviderUnavailable = errors.New("payment provider is not configured")

// Charge is what the portal asks a provider to collect.
type Charge struct {
	InvoiceID     uuid.UUID
	InvoiceNumber string
	AmountCents   int64
	PayerEmail    string
	// Reference is our own id for the charge; providers that accept an
	// external reference carry it back.
	Reference string
}

// Checkout is the provider's answer: a redirect target or a QR code.
type Checkout struct {
	Provider      string     `json:"provider"`
	TransactionID string     `json:"transaction_id"`
	RedirectURL   string     `json:"redirect_url,omitempty"`
	QRCode        string     `json:"qr_code,omitempty"`
	QRCodeBase64  string     `json:"qr_code_base64,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

type Provider interface {
	Name() string
	// Method is the payment method stored on the ledger entry.
	Method() string
	Create(ctx context.Context, ch Charge) (*Checkout, error)
	// Status maps the provider state onto pending, approved or rejected.
	Status(ctx context.Context, transactionID string) (models.PayStatus, error)
}

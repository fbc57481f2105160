package payments

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

// StripeProvider opens Stripe Checkout sessions in BRL.
type StripeProvider struct {
	api     *client.API
	baseURL string
}

func NewStripe(secretKey, publicBaseURL string) *StripeProvider {
	backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: 20 * time.Second},
		MaxNetworkRetries: stripe.Int64(0),
	})
	return &StripeProvider{api: client.New(secretKey, backends), baseURL: publicBaseURL}
}

func (p *StripeProvider) Name() string   { return ProviderStripe }
func (p *StripeProvider) Method() string { return "card" }

func checkoutParams(ch Charge, baseURL string) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(ch.InvoiceID.String()),
		SuccessURL:        stripe.String(baseURL + "/portal/invoices?payment=success&session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(baseURL + "/portal/invoices?payment=cancelled"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("brl"),
				UnitAmount: stripe.Int64(ch.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Fatura " + ch.InvoiceNumber),
				},
			},
		}},
	}
	if ch.PayerEmail != "" {
		params.CustomerEmail = stripe.String(ch.PayerEmail)
	}
	params.AddMetadata("invoice_id", ch.InvoiceID.String())
	params.AddMetadata("reference", ch.Reference)
	return params
}

func (p *StripeProvider) Create(ctx context.Context, ch Charge) (*Checkout, error) {
	params := checkoutParams(ch, p.baseURL)
	params.Context = ctx
	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout: %w", err)
	}
	out := &Checkout{Provider: ProviderStripe, TransactionID: s.ID, RedirectURL: s.URL}
	if s.ExpiresAt > 0 {
		exp := time.Unix(s.ExpiresAt, 0).UTC()
		out.ExpiresAt = &exp
	}
	return out, nil
}

func (p *StripeProvider) Status(ctx context.Context, transactionID string) (models.PayStatus, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := p.api.CheckoutSessions.Get(transactionID, params)
	if err != nil {
		return "", fmt.Errorf("stripe session: %w", err)
	}
	return stripeStatus(s), nil
}

func stripeStatus(s *stripe.CheckoutSession) models.PayStatus {
	switch {
	case s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		s.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return models.PayApproved
	case s.Status == stripe.CheckoutSessionStatusExpired:
		return models.PayRejected
	}
	return models.PayPending
}

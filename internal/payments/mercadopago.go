package payments

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

// MercadoPagoProvider creates Checkout Pro preferences. The preference
// carries our reference as external_reference, which is also the
// transaction id used for status polling.
type MercadoPagoProvider struct {
	preferences preference.Client
	payments    payment.Client
	baseURL     string
}

// NewMercadoPago builds the provider on the official SDK. apiBaseURL
// overrides the SDK's API host when it differs from the production one.
// Without an access token every call fails with ErrProviderUnavailable.
func NewMercadoPago(apiBaseURL, accessToken, publicBaseURL string) *MercadoPagoProvider {
	p := &MercadoPagoProvider{baseURL: publicBaseURL}
	if accessToken == "" {
		return p
	}
	opts := []config.Option{}
	if u, err := url.Parse(apiBaseURL); err == nil && u.Host != "" && u.Host != "api.mercadopago.com" {
		opts = append(opts, config.WithHTTPClient(hostRequester{target: u, http: &http.Client{Timeout: 20 * time.Second}}))
	}
	cfg, err := config.New(accessToken, opts...)
	if err != nil {
		return p
	}
	p.preferences = preference.NewClient(cfg)
	p.payments = payment.NewClient(cfg)
	return p
}

func (p *MercadoPagoProvider) Name() string   { return ProviderMercadoPago }
func (p *MercadoPagoProvider) Method() string { return "mercadopago" }

func preferenceRequest(ch Charge, baseURL string) preference.Request {
	req := preference.Request{
		Items: []preference.ItemRequest{{
			Title:      "Fatura " + ch.InvoiceNumber,
			Quantity:   1,
			UnitPrice:  float64(ch.AmountCents) / 100,
			CurrencyID: "BRL",
		}},
		ExternalReference: ch.Reference,
		BackURLs: &preference.BackURLsRequest{
			Success: baseURL + "/portal/invoices?payment=success",
			Failure: baseURL + "/portal/invoices?payment=failure",
			Pending: baseURL + "/portal/invoices?payment=pending",
		},
		AutoReturn: "approved",
	}
	if ch.PayerEmail != "" {
		req.Payer = &preference.PayerRequest{Email: ch.PayerEmail}
	}
	return req
}

func (p *MercadoPagoProvider) Create(ctx context.Context, ch Charge) (*Checkout, error) {
	if p.preferences == nil {
		return nil, ErrProviderUnavailable
	}
	res, err := p.preferences.Create(ctx, preferenceRequest(ch, p.baseURL))
	if err != nil {
		return nil, fmt.Errorf("mercadopago preference: %w", err)
	}
	return &Checkout{Provider: ProviderMercadoPago, TransactionID: ch.Reference, RedirectURL: res.InitPoint}, nil
}

func (p *MercadoPagoProvider) Status(ctx context.Context, transactionID string) (models.PayStatus, error) {
	if p.payments == nil {
		return "", ErrProviderUnavailable
	}
	res, err := p.payments.Search(ctx, payment.SearchRequest{
		Filters: map[string]string{
			"sort":               "date_created",
			"criteria":           "desc",
			"external_reference": transactionID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("mercadopago search: %w", err)
	}
	if len(res.Results) == 0 {
		return models.PayPending, nil
	}
	return mercadoPagoStatus(res.Results[0].Status), nil
}

func mercadoPagoStatus(s string) models.PayStatus {
	switch s {
	case "approved", "authorized":
		return models.PayApproved
	case "rejected", "cancelled", "refunded", "charged_back":
		return models.PayRejected
	}
	return models.PayPending
}

// hostRequester sends SDK requests to another host, e.g. a sandbox or test server.
type hostRequester struct {
	target *url.URL
	http   *http.Client
}

func (h hostRequester) Do(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = h.target.Scheme
	req.URL.Host = h.target.Host
	req.Host = h.target.Host
	return h.http.Do(req)
}

package payments

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

func testCharge() Charge {
	return Charge{
		InvoiceID:     uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		InvoiceNumber: "FAT-202610-ABC123",
		AmountCents:   12345,
		PayerEmail:    "ana@example.com",
		Reference:     "0b7c6c1e-7d4e-4c53-9a0e-6b1f1f2f3a4b",
	}
}

func TestCheckoutParams(t *testing.T) {
	p := checkoutParams(testCharge(), "https://portal.test")
	if *p.Mode != "payment" {
		t.Fatalf("want payment mode, got %s", *p.Mode)
	}
	if len(p.LineItems) != 1 {
		t.Fatalf("want one line item, got %d", len(p.LineItems))
	}
	pd := p.LineItems[0].PriceData
	if *pd.Currency != "brl" || *pd.UnitAmount != 12345 {
		t.Fatalf("unexpected price data %s %d", *pd.Currency, *pd.UnitAmount)
	}
	if *pd.ProductData.Name != "Fatura FAT-202610-ABC123" {
		t.Fatalf("unexpected product name %s", *pd.ProductData.Name)
	}
	if *p.CustomerEmail != "ana@example.com" {
		t.Fatalf("payer email not forwarded")
	}
	if p.Metadata["invoice_id"] != "22222222-2222-2222-2222-222222222222" {
		t.Fatalf("invoice id missing from metadata: %v", p.Metadata)
	}
	if !strings.HasPrefix(*p.SuccessURL, "https://portal.test/portal/invoices") {
		t.Fatalf("unexpected success url %s", *p.SuccessURL)
	}
}

func TestStripeStatus(t *testing.T) {
	cases := []struct {
		s    stripe.CheckoutSession
		want models.PayStatus
	}{
		{stripe.CheckoutSession{PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid}, models.PayApproved},
		{stripe.CheckoutSession{PaymentStatus: stripe.CheckoutSessionPaymentStatusNoPaymentRequired}, models.PayApproved},
		{stripe.CheckoutSession{Status: stripe.CheckoutSessionStatusExpired, PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid}, models.PayRejected},
		{stripe.CheckoutSession{Status: stripe.CheckoutSessionStatusOpen, PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid}, models.PayPending},
	}
	for i, tc := range cases {
		if got := stripeStatus(&tc.s); got != tc.want {
			t.Fatalf("case %d: want %s, got %s", i, tc.want, got)
		}
	}
}

func TestMercadoPagoCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/checkout/preferences" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token")
		}
		var body struct {
			Items []struct {
				UnitPrice  float64 `json:"unit_price"`
				CurrencyID string  `json:"currency_id"`
			} `json:"items"`
			ExternalReference string `json:"external_reference"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Items) != 1 || body.Items[0].UnitPrice != 123.45 || body.Items[0].CurrencyID != "BRL" {
			t.Errorf("unexpected items %+v", body.Items)
		}
		if body.ExternalReference != testCharge().Reference {
			t.Errorf("reference not forwarded: %s", body.ExternalReference)
		}
		_, _ = io.WriteString(w, `{"id":"pref-1","init_point":"https://mp.test/checkout?pref=pref-1"}`)
	}))
	defer srv.Close()

	p := NewMercadoPago(srv.URL, "tok", "https://portal.test")
	co, err := p.Create(context.Background(), testCharge())
	if err != nil {
		t.Fatal(err)
	}
	if co.TransactionID != testCharge().Reference {
		t.Fatalf("transaction id should be our reference, got %s", co.TransactionID)
	}
	if co.RedirectURL != "https://mp.test/checkout?pref=pref-1" {
		t.Fatalf("unexpected redirect %s", co.RedirectURL)
	}
}

func TestMercadoPagoStatus(t *testing.T) {
	answer := `{"results":[]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/search" || r.URL.Query().Get("external_reference") != "ref-1" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, answer)
	}))
	defer srv.Close()

	p := NewMercadoPago(srv.URL, "tok", "")
	for _, tc := range []struct {
		body string
		want models.PayStatus
	}{
		{`{"results":[]}`, models.PayPending},
		{`{"results":[{"status":"approved"}]}`, models.PayApproved},
		{`{"results":[{"status":"rejected"}]}`, models.PayRejected},
		{`{"results":[{"status":"in_process"}]}`, models.PayPending},
	} {
		answer = tc.body
		got, err := p.Status(context.Background(), "ref-1")
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.want {
			t.Fatalf("%s: want %s, got %s", tc.body, tc.want, got)
		}
	}
}

func TestMercadoPagoWithoutTokenIsUnavailable(t *testing.T) {
	p := NewMercadoPago("https://api.mercadopago.com", "", "")
	if _, err := p.Create(context.Background(), testCharge()); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("want ErrProviderUnavailable, got %v", err)
	}
	if _, err := p.Status(context.Background(), "ref-1"); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("want ErrProviderUnavailable, got %v", err)
	}
}

func TestMercadoPagoStatusMapping(t *testing.T) {
	for in, want := range map[string]models.PayStatus{
		"approved":     models.PayApproved,
		"authorized":   models.PayApproved,
		"charged_back": models.PayRejected,
		"cancelled":    models.PayRejected,
		"in_mediation": models.PayPending,
		"":             models.PayPending,
	} {
		if got := mercadoPagoStatus(in); got != want {
			t.Fatalf("%q: want %s, got %s", in, want, got)
		}
	}
}

func TestPixCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/charges" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["amount"] != "123.45" {
			t.Errorf("unexpected amount %v", body["amount"])
		}
		if body["txid"] != "0b7c6c1e7d4e4c539a0e6b1f1f2f3a4b" {
			t.Errorf("unexpected txid %v", body["txid"])
		}
		_, _ = io.WriteString(w, `{"txid":"0b7c6c1e7d4e4c539a0e6b1f1f2f3a4b","qr_code":"000201...","qr_code_base64":"iVBOR","expires_at":"2026-10-18T12:30:00Z"}`)
	}))
	defer srv.Close()

	p := NewPix(srv.URL, "key")
	co, err := p.Create(context.Background(), testCharge())
	if err != nil {
		t.Fatal(err)
	}
	if co.QRCode != "000201..." || co.QRCodeBase64 != "iVBOR" {
		t.Fatalf("qr code not returned: %+v", co)
	}
	if co.ExpiresAt == nil || co.ExpiresAt.Minute() != 30 {
		t.Fatalf("unexpected expiry %v", co.ExpiresAt)
	}
}

func TestPixStatus(t *testing.T) {
	if pixStatus("CONCLUIDA") != models.PayApproved || pixStatus("completed") != models.PayApproved {
		t.Fatal("completed charge should be approved")
	}
	if pixStatus("REMOVIDA_PELO_PSP") != models.PayRejected || pixStatus("EXPIRED") != models.PayRejected {
		t.Fatal("removed charge should be rejected")
	}
	if pixStatus("ATIVA") != models.PayPending {
		t.Fatal("active charge should be pending")
	}
}

func TestRESTProviderErrorAndUnconfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"invalid token"}`)
	}))
	defer srv.Close()

	if _, err := NewPix(srv.URL, "bad").Create(context.Background(), testCharge()); err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("want 401 error, got %v", err)
	}
	if _, err := NewPix("", "").Create(context.Background(), testCharge()); err == nil || !strings.Contains(err.Error(), ErrProviderUnavailable.Error()) {
		t.Fatalf("want unavailable error, got %v", err)
	}
}

package payments

import (
	"context"

	"github.com/google/uuid"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

// MockProvider stands in for a real provider in development. Its payments
// stay pending until completed through the dev-only mock endpoint.
type MockProvider struct {
	name    string
	method  string
	baseURL string
}

func NewMock(name, method, publicBaseURL string) *MockProvider {
	return &MockProvider{name: name, method: method, baseURL: publicBaseURL}
}

func (p *MockProvider) Name() string   { return p.name }
func (p *MockProvider) Method() string { return p.method }

func (p *MockProvider) Create(_ context.Context, ch Charge) (*Checkout, error) {
	tx := "mock_" + uuid.NewString()
	co := &Checkout{Provider: p.name, TransactionID: tx, RedirectURL: p.baseURL + "/portal/invoices?payment=mock&tx=" + tx}
	if p.method == "pix" {
		co.RedirectURL = ""
		co.QRCode = "00020126MOCK" + tx
	}
	return co, nil
}

func (p *MockProvider) Status(context.Context, string) (models.PayStatus, error) {
	return models.PayPending, nil
}

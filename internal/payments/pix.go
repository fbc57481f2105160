package payments

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

// PixExpiry is how long a generated QR code stays payable.
const PixExpiry = 30 * time.Minute

// PixProvider generates dynamic PIX charges on a PSP REST API:
// POST /charges and GET /charges/{txid}.
type PixProvider struct {
	rc restClient
}

func NewPix(baseURL, apiKey string) *PixProvider {
	return &PixProvider{rc: newRESTClient(baseURL, apiKey)}
}

func (p *PixProvider) Name() string   { return ProviderPix }
func (p *PixProvider) Method() string { return "pix" }

// pixTxID derives a txid from our reference: PIX txids are 26–35 alphanumerics.
func pixTxID(reference string) string {
	id := strings.ReplaceAll(reference, "-", "")
	if len(id) > 35 {
		id = id[:35]
	}
	return id
}

func (p *PixProvider) Create(ctx context.Context, ch Charge) (*Checkout, error) {
	body := map[string]any{
		"txid":        pixTxID(ch.Reference),
		"amount":      fmt.Sprintf("%d.%02d", ch.AmountCents/100, ch.AmountCents%100),
		"description": "Fatura " + ch.InvoiceNumber,
		"expires_in":  int(PixExpiry.Seconds()),
	}
	var out struct {
		TxID         string    `json:"txid"`
		QRCode       string    `json:"qr_code"`
		QRCodeBase64 string    `json:"qr_code_base64"`
		ExpiresAt    time.Time `json:"expires_at"`
	}
	if err := p.rc.do(ctx, http.MethodPost, "/charges", body, &out); err != nil {
		return nil, fmt.Errorf("pix charge: %w", err)
	}
	co := &Checkout{Provider: ProviderPix, TransactionID: out.TxID, QRCode: out.QRCode, QRCodeBase64: out.QRCodeBase64}
	if co.TransactionID == "" {
		co.TransactionID = pixTxID(ch.Reference)
	}
	if !out.ExpiresAt.IsZero() {
		co.ExpiresAt = &out.ExpiresAt
	}
	return co, nil
}

func (p *PixProvider) Status(ctx context.Context, transactionID string) (models.PayStatus, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := p.rc.do(ctx, http.MethodGet, "/charges/"+url.PathEscape(transactionID), nil, &out); err != nil {
		return "", fmt.Errorf("pix status: %w", err)
	}
	return pixStatus(out.Status), nil
}

func pixStatus(s string) models.PayStatus {
	switch strings.ToUpper(s) {
	case "COMPLETED", "CONCLUIDA", "PAID":
		return models.PayApproved
	case "EXPIRED", "REMOVED_BY_PSP", "REMOVED_BY_USER", "REMOVIDA_PELO_PSP", "REMOVIDA_PELO_USUARIO_RECEBEDOR":
		return models.PayRejected
	}
	return models.PayPending
}

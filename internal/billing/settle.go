// Package billing owns invoices and the payment ledger: invoice creation,
// recording payments against the outstanding balance, overdue marking and
// the admin spreadsheet export.
package billing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

var (
	ErrNotFound        = errors.New("invoice not found")
	ErrInvalidAmount   = errors.New("payment amount must be positive")
	ErrExceedsBalance  = errors.New("payment amount exceeds the outstanding balance")
	ErrAlreadyPaid     = errors.New("invoice already paid")
	ErrAlreadyRecorded = errors.New("payment already recorded")
	ErrPaymentNotFound = errors.New("payment not found")
)

// Settle applies amount to the invoice's outstanding balance and returns the
// new paid amount and status. The invoice is paid once the balance reaches
// zero, partial before that.
func Settle(inv models.Invoice, amount int64) (int64, models.InvoiceStatus, error) {
	if amount <= 0 {
		return 0, "", ErrInvalidAmount
	}
	if inv.Status == models.InvoicePaid || inv.Balance() <= 0 {
		return 0, "", ErrAlreadyPaid
	}
	if amount > inv.Balance() {
		return 0, "", ErrExceedsBalance
	}
	paid := inv.PaidAmountCents + amount
	if paid == inv.TotalCents {
		return paid, models.InvoicePaid, nil
	}
	return paid, models.InvoicePartial, nil
}

// FormatBRL renders cents as Brazilian reais, e.g. "R$ 1.234,56".
func FormatBRL(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	whole := fmt.Sprintf("%d", cents/100)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, b.String(), cents%100)
}

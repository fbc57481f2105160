package billing

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/aldoetobex/freelance-portal/pkg/models"
	"github.com/aldoetobex/freelance-portal/pkg/validation"
)

func Test_Settle(t *testing.T) {
	inv := models.Invoice{TotalCents: 1000, PaidAmountCents: 400, Status: models.InvoicePartial}

	cases := []struct {
		name       string
		inv        models.Invoice
		amount     int64
		wantPaid   int64
		wantStatus models.InvoiceStatus
		wantErr    error
	}{
		{"partial", inv, 100, 500, models.InvoicePartial, nil},
		{"exact balance pays off", inv, 600, 1000, models.InvoicePaid, nil},
		{"above balance", inv, 601, 0, "", ErrExceedsBalance},
		{"zero", inv, 0, 0, "", ErrInvalidAmount},
		{"negative", inv, -5, 0, "", ErrInvalidAmount},
		{"already paid", models.Invoice{TotalCents: 1000, PaidAmountCents: 1000, Status: models.InvoicePaid}, 1, 0, "", ErrAlreadyPaid},
		{"overdue partial payment", models.Invoice{TotalCents: 1000, Status: models.InvoiceOverdue}, 300, 300, models.InvoicePartial, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			paid, status, err := Settle(tc.inv, tc.amount)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want err %v, got %v", tc.wantErr, err)
			}
			if paid != tc.wantPaid || status != tc.wantStatus {
				t.Fatalf("want %d/%s, got %d/%s", tc.wantPaid, tc.wantStatus, paid, status)
			}
		})
	}
}

func Test_FormatBRL(t *testing.T) {
	cases := map[int64]string{
		0:         "R$ 0,00",
		5:         "R$ 0,05",
		123456:    "R$ 1.234,56",
		100000000: "R$ 1.000.000,00",
		-2550:     "-R$ 25,50",
	}
	for in, want := range cases {
		if got := FormatBRL(in); got != want {
			t.Fatalf("FormatBRL(%d) = %q, want %q", in, got, want)
		}
	}
}

func Test_Total(t *testing.T) {
	got := Total([]ItemInput{{Quantity: 2, UnitPriceCents: 1500}, {Quantity: 1, UnitPriceCents: 999}})
	if got != 3999 {
		t.Fatalf("want 3999, got %d", got)
	}
}

func Test_CreateInvoiceRequest_ItemBounds(t *testing.T) {
	valid := func() CreateInvoiceRequest {
		return CreateInvoiceRequest{
			ClientID: uuid.NewString(),
			DueDate:  "2026-12-01",
			Items:    []ItemInput{{Description: "Logo", Quantity: 10000, UnitPriceCents: 100000000000}},
		}
	}
	if errs, err := validation.Validate(valid()); errs != nil || err != nil {
		t.Fatalf("largest allowed item should pass, got %v %v", errs, err)
	}

	cases := map[string]func(*CreateInvoiceRequest){
		"quantity":   func(r *CreateInvoiceRequest) { r.Items[0].Quantity = 10001 },
		"unit price": func(r *CreateInvoiceRequest) { r.Items[0].UnitPriceCents = 100000000001 },
		"overflow":   func(r *CreateInvoiceRequest) { r.Items[0].UnitPriceCents = math.MaxInt64 / 2 },
		"item count": func(r *CreateInvoiceRequest) {
			for len(r.Items) <= 200 {
				r.Items = append(r.Items, r.Items[0])
			}
		},
	}
	for name, mutate := range cases {
		r := valid()
		mutate(&r)
		if errs, _ := validation.Validate(r); errs == nil {
			t.Fatalf("%s: want validation errors", name)
		}
	}

	// the bounds keep the worst case total positive
	items := make([]ItemInput, 200)
	for i := range items {
		items[i] = ItemInput{Quantity: 10000, UnitPriceCents: 100000000000}
	}
	if Total(items) <= 0 {
		t.Fatal("total overflowed")
	}
}

func Test_BuildWorkbook(t *testing.T) {
	client := uuid.New()
	due := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	invoices := []models.Invoice{
		{Number: "FAT-1", ClientID: client, Status: models.InvoicePartial, TotalCents: 100000, PaidAmountCents: 40000, DueDate: due},
		{Number: "FAT-2", ClientID: client, Status: models.InvoicePending, TotalCents: 25050, DueDate: due},
	}

	f, err := BuildWorkbook(invoices, map[uuid.UUID]string{client: "Ana Design"})
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	rd, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatal(err)
	}
	defer rd.Close()

	rows, err := rd.GetRows("Faturas")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("want header + 2 rows + totals, got %d rows", len(rows))
	}
	if rows[1][0] != "FAT-1" || rows[1][1] != "Ana Design" || rows[1][6] != "30/06/2024" {
		t.Fatalf("unexpected first row %v", rows[1])
	}
	if rows[3][0] != "Total" || rows[3][1] != "2 faturas" {
		t.Fatalf("unexpected totals row %v", rows[3])
	}
	balance, _ := rd.GetCellValue("Faturas", "F4", excelize.Options{RawCellValue: true})
	if balance != "850.5" {
		t.Fatalf("want balance 850.5, got %s", balance)
	}
}

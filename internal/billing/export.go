package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

var exportHeaders = []string{
	"Número", "Cliente", "Status", "Total (R$)", "Pago (R$)", "Saldo (R$)", "Vencimento", "Emitida em",
}

// BuildWorkbook lays out invoices as one sheet with a totals row. names maps
// client ids to display names.
func BuildWorkbook(invoices []models.Invoice, names map[uuid.UUID]string) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Faturas"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	bold, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	money, _ := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00

	for i, h := range exportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, bold)
	}

	var total, paid int64
	for i, inv := range invoices {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), inv.Number)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), names[inv.ClientID])
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), string(inv.Status))
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), reais(inv.TotalCents))
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), reais(inv.PaidAmountCents))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), reais(inv.Balance()))
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), inv.DueDate.Format("02/01/2006"))
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), inv.CreatedAt.Format("02/01/2006"))
		total += inv.TotalCents
		paid += inv.PaidAmountCents
	}

	sum := len(invoices) + 2
	f.SetCellValue(sheet, fmt.Sprintf("A%d", sum), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", sum), fmt.Sprintf("%d faturas", len(invoices)))
	f.SetCellValue(sheet, fmt.Sprintf("D%d", sum), reais(total))
	f.SetCellValue(sheet, fmt.Sprintf("E%d", sum), reais(paid))
	f.SetCellValue(sheet, fmt.Sprintf("F%d", sum), reais(total-paid))
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", sum), fmt.Sprintf("H%d", sum), bold)
	f.SetCellStyle(sheet, "D2", fmt.Sprintf("F%d", sum), money)

	for i, w := range []float64{20, 28, 10, 14, 14, 14, 12, 12} {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
	return f, nil
}

func reais(cents int64) float64 { return float64(cents) / 100 }

// ExportInvoices builds the workbook for invoices issued in [from, to).
// Zero bounds are open.
func (s *Service) ExportInvoices(ctx context.Context, from, to time.Time) (*excelize.File, string, error) {
	invoices, err := s.st.ListInvoices(ctx, from, to)
	if err != nil {
		return nil, "", fmt.Errorf("list invoices: %w", err)
	}

	names := map[uuid.UUID]string{}
	for _, inv := range invoices {
		if _, ok := names[inv.ClientID]; ok {
			continue
		}
		names[inv.ClientID] = ""
		if cl, err := s.st.GetClient(ctx, inv.ClientID); err == nil && cl != nil {
			names[inv.ClientID] = cl.Name
		}
	}

	f, err := BuildWorkbook(invoices, names)
	if err != nil {
		return nil, "", err
	}
	return f, "faturas_" + s.now().Format("20060102") + ".xlsx", nil
}

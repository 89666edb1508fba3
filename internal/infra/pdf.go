package infra

// pdf.go — payment receipt generation using go-pdf/fpdf. Produces a small
// receipt-style document with the event name, the payment summary and one
// line per inscription allocation. The output file is saved to
// storagePath/receipt_{paymentID}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"eventpay/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateReceiptPDF renders the receipt for an approved payment and returns
// the absolute path of the generated file.
func GenerateReceiptPDF(p *model.Payment, eventName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("receipt_%s.pdf", p.ID)
	filePath := filepath.Join(storagePath, fileName)

	// 74mm × 140mm — receipt paper, taller than A7 to fit allocation rows
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 140},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, "EventPay", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Payment receipt", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, eventName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, fmt.Sprintf("Payment %s", p.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, p.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, fmt.Sprintf("Method: %s", p.Method), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	col1 := contentW * 0.64
	col2 := contentW * 0.36

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Inscription", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Amount", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, a := range p.Allocations {
		short := a.InscriptionID.String()[:8]
		pdf.CellFormat(col1, 5, short, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, a.Value.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(1)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "TOTAL", "", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, p.TotalValue.StringFixed(2), "", 1, "R", false, 0, "")

	if !p.TotalReceived.Equal(p.TotalValue) && p.TotalReceived.IsPositive() {
		pdf.SetFont("Helvetica", "", 7)
		pdf.CellFormat(col1, 4, "Net received", "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 4, p.TotalReceived.StringFixed(2), "", 1, "R", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write receipt: %w", err)
	}
	return filePath, nil
}

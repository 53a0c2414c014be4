package export

import (
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/domain"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/estimate"
	"github.com/shelfwise/shelfwise-backend/pkg/errors"
)

// WritePDF renders a printable stock register: one row per batch, grouped
// under its product, with expiry flags.
func WritePDF(w io.Writer, products []*domain.Product, now time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Stock Register")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, "Generated "+now.Format("2006-01-02 15:04"))
	pdf.Ln(10)

	for _, p := range products {
		pdf.SetFont("Helvetica", "B", 11)
		title := p.Name
		if p.PLU != "" {
			title += "  (PLU " + p.PLU + ")"
		}
		pdf.Cell(0, 7, title)
		pdf.Ln(7)

		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(45, 6, "Store", "1", 0, "L", true, 0, "")
		pdf.CellFormat(45, 6, "Manufacturer", "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 6, "Expiry", "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 6, "Stock ("+p.Unit+")", "1", 0, "R", true, 0, "")
		pdf.CellFormat(30, 6, "Value", "1", 1, "R", true, 0, "")

		pdf.SetFont("Helvetica", "", 8)
		for i := range p.Batches {
			b := p.Batches[i]
			expiry := "-"
			if b.ExpirationDate != nil {
				expiry = b.ExpirationDate.Format("2006-01-02")
				if estimate.DaysUntilExpiration(b.ExpirationDate, now) < 0 {
					expiry += " !"
				}
			}
			value := b.CurrentStock.Mul(b.PriceNoVAT)
			pdf.CellFormat(45, 6, b.Store, "1", 0, "L", false, 0, "")
			pdf.CellFormat(45, 6, b.Manufacturer, "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, expiry, "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, b.CurrentStock.String(), "1", 0, "R", false, 0, "")
			pdf.CellFormat(30, 6, value.StringFixed(2), "1", 1, "R", false, 0, "")
		}

		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(120, 6, "Total", "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, estimate.TotalStock(p).String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, estimate.TotalValue(p).StringFixed(2), "1", 1, "R", false, 0, "")
		pdf.Ln(4)
	}

	if err := pdf.Output(w); err != nil {
		return errors.InternalWrap("failed to render pdf", err)
	}
	return nil
}

// Package export renders inventory data into interchange formats: a CSV
// stock summary, a JSON backup file and a PDF stock register.
package export

import (
	"encoding/csv"
	"io"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/domain"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/estimate"
	"github.com/shelfwise/shelfwise-backend/pkg/errors"
)

var csvHeader = []string{"Name", "PLU", "TotalStock", "Unit", "TotalValue"}

// WriteCSV renders one row per product with its aggregate stock and value.
// Batches are not broken out; the CSV is a stock summary, not a register.
func WriteCSV(w io.Writer, products []*domain.Product) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return errors.InternalWrap("failed to write csv header", err)
	}

	for _, p := range products {
		row := []string{
			p.Name,
			p.PLU,
			estimate.TotalStock(p).String(),
			p.Unit,
			estimate.TotalValue(p).StringFixed(2),
		}
		if err := cw.Write(row); err != nil {
			return errors.InternalWrap("failed to write csv row", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.InternalWrap("failed to flush csv", err)
	}
	return nil
}

package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"CoinScope/internal/model"
)

// ExportExcel writes one sheet per asset with the raw daily series,
// creating the parent directory if needed.
func ExportExcel(series []model.QuoteSeries, path string) error {
	if len(series) == 0 {
		return fmt.Errorf("export excel: no series")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range series {
		sheet := titleCase(s.Asset)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("new sheet %s: %w", sheet, err)
		}

		header := []interface{}{"Date", "Price", "Volume", "Market Cap"}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for ri, q := range s.Quotes {
			cell, err := excelize.CoordinatesToCellName(1, ri+2)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			row := []interface{}{q.Date.Format("2006-01-02"), q.Price, q.Volume, q.MarketCap}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("write row %d: %w", ri, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save excel: %w", err)
	}
	return nil
}

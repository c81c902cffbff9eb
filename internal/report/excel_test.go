package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"CoinScope/internal/model"
)

func TestExportExcel(t *testing.T) {
	series := []model.QuoteSeries{
		{
			Asset: "bitcoin",
			Quotes: []model.DailyQuote{
				{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Price: 100.5, Volume: 10, MarketCap: 900},
				{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Price: 101.5, Volume: 11, MarketCap: 910},
			},
		},
		{
			Asset: "ethereum",
			Quotes: []model.DailyQuote{
				{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Price: 50, Volume: 5, MarketCap: 400},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "crypto_data.xlsx")
	if err := ExportExcel(series, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open exported file: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Bitcoin" || sheets[1] != "Ethereum" {
		t.Fatalf("unexpected sheets: %v", sheets)
	}

	head, err := f.GetCellValue("Bitcoin", "A1")
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if head != "Date" {
		t.Errorf("header: got %q, want Date", head)
	}
	date, _ := f.GetCellValue("Bitcoin", "A2")
	if date != "2024-01-01" {
		t.Errorf("date cell: got %q", date)
	}
	price, _ := f.GetCellValue("Bitcoin", "B2")
	if price != "100.5" {
		t.Errorf("price cell: got %q", price)
	}
}

func TestExportExcel_Empty(t *testing.T) {
	if err := ExportExcel(nil, filepath.Join(t.TempDir(), "x.xlsx")); err == nil {
		t.Fatal("expected error for empty input")
	}
}

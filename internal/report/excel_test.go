package report

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"taxidiario/internal/aggregate"
	"taxidiario/internal/core"
)

func sampleReport() aggregate.MonthlyReport {
	return aggregate.MonthlyReport{
		Year:         2025,
		Month:        1,
		TotalIncome:  core.Money{Cents: 8750},
		TotalExpense: core.Money{Cents: 4000},
		CategoryBreakdown: map[string]core.Money{
			"FUEL":    {Cents: 3400},
			"PARKING": {Cents: 600},
		},
		Statistics: map[string]string{
			"Carreras": "3",
			"Propinas": "4.50",
		},
		PerDay: map[int]aggregate.DayReportRow{
			15: {
				Income:        core.Money{Cents: 3750},
				Expense:       core.Money{Cents: 4000},
				Balance:       core.Money{Cents: -250},
				FareCount:     2,
				Tips:          core.Money{Cents: 450},
				TipPercentage: 12.0,
			},
			20: {
				Income:    core.Money{Cents: 5000},
				Balance:   core.Money{Cents: 5000},
				FareCount: 1,
			},
		},
	}
}

func TestExcelWriterWrite(t *testing.T) {
	dir := t.TempDir()
	w := NewExcelWriter(dir)

	path, err := w.Write(sampleReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "informe_202501.xlsx" {
		t.Fatalf("unexpected file name: %s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheet := "Enero 2025"
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		t.Fatalf("sheet %q missing (idx %d, err %v)", sheet, idx, err)
	}

	got, err := f.GetCellValue(sheet, "A1")
	if err != nil || got != "Dia" {
		t.Fatalf("A1 = %q (%v), want Dia", got, err)
	}

	// Days are sorted ascending, so day 15 lands on row 2.
	if got, _ := f.GetCellValue(sheet, "A2"); got != "15" {
		t.Fatalf("A2 = %q, want 15", got)
	}
	if got, _ := f.GetCellValue(sheet, "B2"); got != "37.5" {
		t.Fatalf("B2 = %q, want 37.5", got)
	}
	if got, _ := f.GetCellValue(sheet, "A3"); got != "20" {
		t.Fatalf("A3 = %q, want 20", got)
	}

	// Totals follow after a blank row.
	if got, _ := f.GetCellValue(sheet, "A5"); got != "TOTAL" {
		t.Fatalf("A5 = %q, want TOTAL", got)
	}
	if got, _ := f.GetCellValue(sheet, "B5"); got != "87.5" {
		t.Fatalf("B5 = %q, want 87.5", got)
	}
}

// Package report renders monthly reports to Excel workbooks.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"taxidiario/internal/aggregate"
)

// ExcelWriter writes monthly report workbooks into a directory.
type ExcelWriter struct {
	dir string
}

func NewExcelWriter(dir string) *ExcelWriter {
	return &ExcelWriter{dir: dir}
}

// Write renders the report and returns the path of the saved workbook.
func (w *ExcelWriter) Write(report aggregate.MonthlyReport) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := fmt.Sprintf("%s %d", aggregate.MonthName(report.Month), report.Year)
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headers := []string{"Dia", "Ingresos", "Gastos", "Balance", "Carreras", "Propinas", "% Propina"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	days := make([]int, 0, len(report.PerDay))
	for day := range report.PerDay {
		days = append(days, day)
	}
	sort.Ints(days)

	rowIndex := 2
	for _, day := range days {
		row := report.PerDay[day]
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowIndex), day)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowIndex), row.Income.Euros())
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowIndex), row.Expense.Euros())
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", rowIndex), row.Balance.Euros())
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", rowIndex), row.FareCount)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", rowIndex), row.Tips.Euros())
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", rowIndex), fmt.Sprintf("%.1f%%", row.TipPercentage))
		rowIndex++
	}

	rowIndex++
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowIndex), "TOTAL")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowIndex), report.TotalIncome.Euros())
	f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowIndex), report.TotalExpense.Euros())

	// Expense breakdown by category, alphabetical for stable output.
	rowIndex += 2
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowIndex), "Gastos por categoria")
	categories := make([]string, 0, len(report.CategoryBreakdown))
	for c := range report.CategoryBreakdown {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		rowIndex++
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowIndex), c)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowIndex), report.CategoryBreakdown[c].Euros())
	}

	rowIndex += 2
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowIndex), "Estadisticas")
	stats := make([]string, 0, len(report.Statistics))
	for s := range report.Statistics {
		stats = append(stats, s)
	}
	sort.Strings(stats)
	for _, s := range stats {
		rowIndex++
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowIndex), s)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowIndex), report.Statistics[s])
	}

	path := filepath.Join(w.dir, fmt.Sprintf("informe_%04d%02d.xlsx", report.Year, report.Month))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"taxidiario/internal/core"
)

// DayReportRow is one calendar day inside a monthly report.
type DayReportRow struct {
	Income        core.Money
	Expense       core.Money
	Balance       core.Money
	FareCount     int
	Tips          core.Money
	TipPercentage float64 // tips as a percentage of fare income
}

// MonthlyReport is the data handed to report generators (PDF/Excel).
// It is a plain in-process structure, not a wire format.
type MonthlyReport struct {
	Year              int
	Month             int // 1-12
	TotalIncome       core.Money
	TotalExpense      core.Money
	CategoryBreakdown map[string]core.Money
	Statistics        map[string]string
	PerDay            map[int]DayReportRow
}

// MonthlyReport assembles the report input for one month: the rollup
// totals, a per-day row for each active day, the expense breakdown by
// category, and display-ready statistics.
func (e *Engine) MonthlyReport(ctx context.Context, year, month int) (MonthlyReport, error) {
	summary, err := e.MonthSummary(ctx, year, month)
	if err != nil {
		return MonthlyReport{}, err
	}

	report := MonthlyReport{
		Year:              year,
		Month:             month,
		TotalIncome:       summary.TotalIncome,
		TotalExpense:      summary.TotalExpense,
		CategoryBreakdown: make(map[string]core.Money),
		Statistics:        make(map[string]string),
		PerDay:            make(map[int]DayReportRow, len(summary.Days)),
	}

	for _, d := range summary.Days {
		row := DayReportRow{
			Income:    d.TotalIncome,
			Expense:   d.ExpenseTotal,
			Balance:   d.Margin,
			FareCount: d.FareCount,
			Tips:      d.Tips,
		}
		if d.FareIncome.Cents > 0 {
			row.TipPercentage = float64(d.Tips.Cents) / float64(d.FareIncome.Cents) * 100
		}
		report.PerDay[d.Date.Day()] = row
	}

	e.categoryBreakdown(ctx, year, month, report.CategoryBreakdown)

	report.Statistics["Carreras"] = strconv.Itoa(summary.FareCount)
	report.Statistics["Propinas"] = summary.TotalTips.String()
	report.Statistics["Kilometros"] = strconv.FormatInt(summary.OdometerKm, 10)
	report.Statistics["Horas"] = formatHours(summary.WorkedMinutes)
	report.Statistics["Margen"] = summary.TotalMargin.String()
	if summary.WorkedMinutes > 0 {
		perHour := float64(summary.FareCount) / (float64(summary.WorkedMinutes) / 60)
		report.Statistics["Ocupacion"] = fmt.Sprintf("%.1f carreras/hora", perHour)
	}

	return report, nil
}

// categoryBreakdown sums the month's expenses per category. A failed
// day read only loses that day's breakdown entry, mirroring the
// rollup's containment policy; cancellation stops the walk outright.
func (e *Engine) categoryBreakdown(ctx context.Context, year, month int, out map[string]core.Money) {
	first, last := core.MonthBounds(year, month)
	for day := first; !last.Before(day); day = day.AddDays(1) {
		if ctx.Err() != nil {
			return
		}
		expenses, err := e.store.ExpensesByDate(ctx, day)
		if err != nil {
			slog.WarnContext(ctx, "Skipping day in category breakdown",
				"date", day.Display(),
				"error", err)
			continue
		}
		for _, exp := range expenses {
			category := exp.Category
			if category == "" {
				category = "OTHER"
			}
			out[category] = out[category].Add(exp.Total)
		}
	}
}

func formatHours(minutes int) string {
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}

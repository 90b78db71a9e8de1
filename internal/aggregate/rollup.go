package aggregate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"taxidiario/internal/core"
)

// dayConcurrency bounds the parallel per-day store reads inside a
// month rollup. Days are computed independently and folded in date
// order afterwards, so the output does not depend on scheduling.
const dayConcurrency = 4

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the Spanish month name for 1-12.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// MonthSummary aggregates every day of a month. Inactive days (no
// income and no expense) are excluded from the emitted day list but
// still fold their zero values into the totals, so listing and totals
// always reconcile. A failing day contributes zeros (see dailyOrZero);
// context cancellation and a failed shift range read abort the rollup.
func (e *Engine) MonthSummary(ctx context.Context, year, month int) (core.MonthSummary, error) {
	if month < 1 || month > 12 {
		return core.MonthSummary{}, fmt.Errorf("month out of range: %d", month)
	}

	days, err := e.monthDays(ctx, year, month)
	if err != nil {
		return core.MonthSummary{}, err
	}

	summary := core.MonthSummary{Year: year, Month: month}
	for _, d := range days { // ascending date order
		summary.TotalIncome = summary.TotalIncome.Add(d.TotalIncome)
		summary.TotalExpense = summary.TotalExpense.Add(d.ExpenseTotal)
		summary.TotalMargin = summary.TotalMargin.Add(d.Margin)
		summary.TotalTips = summary.TotalTips.Add(d.Tips)
		summary.FareCount += d.FareCount
		summary.OdometerKm += d.OdometerKm
		summary.WorkedMinutes += d.WorkedMinutes
	}

	// Most recent day first for the monthly list view.
	for i := len(days) - 1; i >= 0; i-- {
		if days[i].Active() {
			summary.Days = append(summary.Days, days[i])
		}
	}

	return summary, nil
}

// YearSummary runs the month rollup for all twelve months. The year
// totals are the sums of the month rows, never recomputed through a
// second path, so they reconcile exactly.
func (e *Engine) YearSummary(ctx context.Context, year int) (core.YearSummary, error) {
	summary := core.YearSummary{Year: year, Months: make([]core.MonthRow, 0, 12)}

	for month := 1; month <= 12; month++ {
		ms, err := e.MonthSummary(ctx, year, month)
		if err != nil {
			return core.YearSummary{}, fmt.Errorf("month %d: %w", month, err)
		}
		row := core.MonthRow{
			Month:   month,
			Name:    MonthName(month),
			Income:  ms.TotalIncome,
			Expense: ms.TotalExpense,
			Margin:  ms.TotalIncome.Sub(ms.TotalExpense),
		}
		summary.Months = append(summary.Months, row)
		summary.TotalIncome = summary.TotalIncome.Add(row.Income)
		summary.TotalExpense = summary.TotalExpense.Add(row.Expense)
		summary.TotalMargin = summary.TotalMargin.Add(row.Margin)
	}

	return summary, nil
}

// monthDays computes DailyTotals for every day of the month, ascending.
// Shifts are fetched in one range read and grouped per day; the other
// entity kinds are read per day, in parallel, each result landing in
// its own slot so the fold stays deterministic.
func (e *Engine) monthDays(ctx context.Context, year, month int) ([]core.DailyTotals, error) {
	first, last := core.MonthBounds(year, month)
	n := last.Day()

	shifts, err := e.store.ShiftsByDateRange(ctx, first, last)
	if err != nil {
		return nil, fmt.Errorf("read shifts for %d-%02d: %w", year, month, err)
	}
	shiftsByDay := make(map[string][]core.Shift, len(shifts))
	for _, sh := range shifts {
		key := sh.Date.IDSuffix()
		shiftsByDay[key] = append(shiftsByDay[key], sh)
	}

	days := make([]core.DailyTotals, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dayConcurrency)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			day := first.AddDays(i)
			totals, err := e.dailyOrZero(gctx, day, shiftsByDay[day.IDSuffix()])
			if err != nil {
				return err
			}
			days[i] = totals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("rollup %d-%02d: %w", year, month, err)
	}
	return days, nil
}

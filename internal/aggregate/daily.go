// Package aggregate derives the daily, monthly, and annual financial
// summaries from the record store. The whole package is read-only: it
// holds no locks, performs no writes, and recomputing against an
// unmodified store yields identical results.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"taxidiario/internal/core"
)

// Store is the record-store contract the engine reads through.
// Fares, expenses and other income are looked up one day at a time;
// shifts additionally support a range read, which the rollups use to
// cover a whole period in one query.
type Store interface {
	ShiftsByDate(ctx context.Context, day core.Date) ([]core.Shift, error)
	ShiftsByDateRange(ctx context.Context, start, end core.Date) ([]core.Shift, error)
	FaresByDate(ctx context.Context, day core.Date) ([]core.Fare, error)
	ExpensesByDate(ctx context.Context, day core.Date) ([]core.Expense, error)
	OtherIncomeByDate(ctx context.Context, day core.Date) ([]core.OtherIncome, error)
}

// Rates are the per-fare commission amounts, in cents. Both default
// to zero but stay configurable; the computation structure must not
// assume they are.
type Rates struct {
	CardCommissionCents     int64 // charged per card-paid fare
	DispatchCommissionCents int64 // charged per radio-dispatched fare
}

// Engine computes summaries over an immutable snapshot of the store.
// Safe for concurrent use; independent requests share nothing mutable.
type Engine struct {
	store Store
	rates Rates
}

func NewEngine(store Store, rates Rates) *Engine {
	return &Engine{store: store, rates: rates}
}

// DailyTotals aggregates one calendar day. A day with no shift rows
// still aggregates its fares, expenses and other income; odometer and
// hours just stay zero. Missing data is never an error, only failed
// store reads are.
func (e *Engine) DailyTotals(ctx context.Context, day core.Date) (core.DailyTotals, error) {
	shifts, err := e.store.ShiftsByDate(ctx, day)
	if err != nil {
		return core.DailyTotals{Date: day}, fmt.Errorf("read shifts for %s: %w", day.Display(), err)
	}
	return e.dayTotals(ctx, day, shifts)
}

// dayTotals aggregates the per-day entity kinds against shift rows the
// caller already holds. The rollups fetch a period's shifts in one
// range read and call this once per day.
func (e *Engine) dayTotals(ctx context.Context, day core.Date, shifts []core.Shift) (core.DailyTotals, error) {
	fares, err := e.store.FaresByDate(ctx, day)
	if err != nil {
		return core.DailyTotals{Date: day}, fmt.Errorf("read fares for %s: %w", day.Display(), err)
	}
	expenses, err := e.store.ExpensesByDate(ctx, day)
	if err != nil {
		return core.DailyTotals{Date: day}, fmt.Errorf("read expenses for %s: %w", day.Display(), err)
	}
	incomes, err := e.store.OtherIncomeByDate(ctx, day)
	if err != nil {
		return core.DailyTotals{Date: day}, fmt.Errorf("read other income for %s: %w", day.Display(), err)
	}

	return e.combine(day, shifts, fares, expenses, incomes), nil
}

// combine folds one day's records into DailyTotals. Pure arithmetic,
// no I/O.
func (e *Engine) combine(day core.Date, shifts []core.Shift, fares []core.Fare, expenses []core.Expense, incomes []core.OtherIncome) core.DailyTotals {
	t := core.DailyTotals{Date: day}

	for _, f := range fares {
		t.FareIncome = t.FareIncome.Add(f.Total())
		t.Tips = t.Tips.Add(f.Tip())
		t.FareCount++
		switch f.Payment {
		case core.PaymentCard:
			t.CardCount++
		case core.PaymentBizum:
			t.BizumCount++
		case core.PaymentVoucher:
			t.VoucherCount++
		default:
			t.CashCount++
		}
		if f.Dispatch {
			t.DispatchCount++
		}
		if f.Airport {
			t.AirportCount++
		}
	}

	for _, inc := range incomes {
		t.OtherIncome = t.OtherIncome.Add(inc.Amount)
	}
	t.TotalIncome = t.FareIncome.Add(t.OtherIncome)

	t.CardCommission = core.Money{Cents: int64(t.CardCount) * e.rates.CardCommissionCents}
	t.DispatchCommission = core.Money{Cents: int64(t.DispatchCount) * e.rates.DispatchCommissionCents}

	for _, exp := range expenses {
		t.ExpenseTotal = t.ExpenseTotal.Add(exp.Total)
	}
	t.ExpenseTotal = t.ExpenseTotal.Add(t.CardCommission).Add(t.DispatchCommission)

	t.Margin = t.TotalIncome.Sub(t.ExpenseTotal)

	for _, s := range shifts {
		t.ShiftCount++
		t.OdometerKm += s.OdometerKm()
		t.WorkedMinutes += s.WorkedMinutes()
	}

	return t
}

// dailyOrZero is the contained form used by the rollups: a failed day
// degrades to zero-valued totals instead of blanking out the period.
// Only genuine store faults qualify; a cancelled or expired context
// propagates, so an aborted request never yields a partially-zeroed
// summary.
func (e *Engine) dailyOrZero(ctx context.Context, day core.Date, shifts []core.Shift) (core.DailyTotals, error) {
	totals, err := e.dayTotals(ctx, day, shifts)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return core.DailyTotals{}, err
		}
		slog.WarnContext(ctx, "Day aggregation degraded to zero totals",
			"date", day.Display(),
			"error", err)
		return core.DailyTotals{Date: day}, nil
	}
	return totals, nil
}

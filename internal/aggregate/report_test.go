package aggregate

import (
	"context"
	"testing"

	"taxidiario/internal/core"
)

func TestMonthlyReport(t *testing.T) {
	store := newFakeStore()
	seedJanuary(store)
	store.addExpense(core.Expense{Date: core.NewDate(2025, 1, 20), Supplier: "Parking Sol", Category: "PARKING", Total: core.Money{Cents: 600}})

	engine := NewEngine(store, Rates{})
	report, err := engine.MonthlyReport(context.Background(), 2025, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Year != 2025 || report.Month != 1 {
		t.Fatalf("unexpected period: %d-%d", report.Year, report.Month)
	}
	if report.CategoryBreakdown["FUEL"].Cents != 4000 {
		t.Fatalf("expected FUEL 4000, got %d", report.CategoryBreakdown["FUEL"].Cents)
	}
	if report.CategoryBreakdown["PARKING"].Cents != 600 {
		t.Fatalf("expected PARKING 600, got %d", report.CategoryBreakdown["PARKING"].Cents)
	}

	row15, ok := report.PerDay[15]
	if !ok {
		t.Fatalf("missing per-day row for the 15th")
	}
	if row15.Income.Cents != 3750 || row15.Expense.Cents != 4000 {
		t.Fatalf("unexpected row for the 15th: %+v", row15)
	}
	if row15.Balance.Cents != 3750-4000 {
		t.Fatalf("balance must be income-expense, got %d", row15.Balance.Cents)
	}
	if row15.FareCount != 2 || row15.Tips.Cents != 250 {
		t.Fatalf("unexpected fare stats: %+v", row15)
	}

	if _, ok := report.PerDay[3]; ok {
		t.Fatalf("inactive day must not produce a per-day row")
	}

	if report.Statistics["Carreras"] != "3" {
		t.Fatalf("expected 3 fares, got %q", report.Statistics["Carreras"])
	}
	if report.Statistics["Horas"] != "8h00m" {
		t.Fatalf("expected 8h00m, got %q", report.Statistics["Horas"])
	}
}

func TestTipPercentage(t *testing.T) {
	store := newFakeStore()
	day := core.NewDate(2025, 2, 1)
	store.addFare(cashFare(day, 2000, 2200)) // income 24.00, tip 2.00

	engine := NewEngine(store, Rates{})
	report, err := engine.MonthlyReport(context.Background(), 2025, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := report.PerDay[1]
	want := float64(200) / float64(2400) * 100
	if row.TipPercentage != want {
		t.Fatalf("expected tip percentage %.4f, got %.4f", want, row.TipPercentage)
	}
}

package core

// DailyTotals is the derived financial summary for one calendar day.
// It is recomputed on demand and never persisted.
type DailyTotals struct {
	Date Date

	FareIncome  Money
	OtherIncome Money
	TotalIncome Money

	ExpenseTotal       Money
	CardCommission     Money
	DispatchCommission Money

	Margin Money
	Tips   Money

	FareCount     int
	CashCount     int
	CardCount     int
	BizumCount    int
	VoucherCount  int
	DispatchCount int
	AirportCount  int

	ShiftCount    int
	OdometerKm    int64
	WorkedMinutes int
}

// Active reports whether the day had any financial movement. Inactive
// days are excluded from period rollup listings but still contribute
// their (zero) values to period totals.
func (t DailyTotals) Active() bool {
	return t.TotalIncome.Cents != 0 || t.ExpenseTotal.Cents != 0
}

// MonthSummary is the rollup of one calendar month. Days holds the
// active days only, most recent first (the monthly list view sorts
// descending by date).
type MonthSummary struct {
	Year  int
	Month int // 1-12

	Days []DailyTotals

	TotalIncome  Money
	TotalExpense Money
	TotalMargin  Money
	TotalTips    Money

	FareCount     int
	OdometerKm    int64
	WorkedMinutes int
}

// MonthRow is one month's line inside an annual breakdown.
type MonthRow struct {
	Month   int // 1-12
	Name    string
	Income  Money
	Expense Money
	Margin  Money
}

// YearSummary is the rollup of a full year: twelve month rows,
// ascending, plus totals. The year totals are the exact sums of the
// month rows; there is no independent recomputation path.
type YearSummary struct {
	Year   int
	Months []MonthRow

	TotalIncome  Money
	TotalExpense Money
	TotalMargin  Money
}

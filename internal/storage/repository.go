package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"taxidiario/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the record store: shifts, fares, expenses and
// other income in a single local database file. Writes are serialized
// by SQLite's own transaction discipline; reads are safe to run
// concurrently.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- reads (aggregate.Store) ---

func (r *SQLiteRepository) ShiftsByDate(ctx context.Context, day core.Date) ([]core.Shift, error) {
	rows, err := r.queries.GetShiftsByDay(ctx, day.IDSuffix())
	if err != nil {
		return nil, fmt.Errorf("get shifts by day: %w", err)
	}
	return shiftsFromRows(rows)
}

func (r *SQLiteRepository) ShiftsByDateRange(ctx context.Context, start, end core.Date) ([]core.Shift, error) {
	rows, err := r.queries.GetShiftsByDayRange(ctx, start.IDSuffix(), end.IDSuffix())
	if err != nil {
		return nil, fmt.Errorf("get shifts by day range: %w", err)
	}
	return shiftsFromRows(rows)
}

func (r *SQLiteRepository) FaresByDate(ctx context.Context, day core.Date) ([]core.Fare, error) {
	rows, err := r.queries.GetFaresByDay(ctx, day.IDSuffix())
	if err != nil {
		return nil, fmt.Errorf("get fares by day: %w", err)
	}
	fares := make([]core.Fare, 0, len(rows))
	for _, row := range rows {
		f, err := fareFromRow(row)
		if err != nil {
			return nil, err
		}
		fares = append(fares, f)
	}
	return fares, nil
}

func (r *SQLiteRepository) ExpensesByDate(ctx context.Context, day core.Date) ([]core.Expense, error) {
	rows, err := r.queries.GetExpensesByDay(ctx, day.IDSuffix())
	if err != nil {
		return nil, fmt.Errorf("get expenses by day: %w", err)
	}
	expenses := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := expenseFromRow(row)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

func (r *SQLiteRepository) OtherIncomeByDate(ctx context.Context, day core.Date) ([]core.OtherIncome, error) {
	rows, err := r.queries.GetOtherIncomeByDay(ctx, day.IDSuffix())
	if err != nil {
		return nil, fmt.Errorf("get other income by day: %w", err)
	}
	incomes := make([]core.OtherIncome, 0, len(rows))
	for _, row := range rows {
		o, err := otherIncomeFromRow(row)
		if err != nil {
			return nil, err
		}
		incomes = append(incomes, o)
	}
	return incomes, nil
}

// --- shift operations ---

func (r *SQLiteRepository) GetShift(ctx context.Context, id string) (*core.Shift, error) {
	row, err := r.queries.GetShift(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrShiftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shift: %w", err)
	}
	s, err := shiftFromRow(row)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ActiveShift returns the currently open shift, or nil when none is.
func (r *SQLiteRepository) ActiveShift(ctx context.Context) (*core.Shift, error) {
	rows, err := r.queries.GetActiveShifts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active shifts: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if len(rows) > 1 {
		// Data-integrity signal for the operator, not repaired here.
		slog.WarnContext(ctx, "Invariant violated: multiple active shifts found", "count", len(rows))
	}
	s, err := shiftFromRow(rows[0])
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ActiveShiftCount is the diagnostic query behind the single-active-
// shift invariant; anything above 1 is a data-integrity fault.
func (r *SQLiteRepository) ActiveShiftCount(ctx context.Context) (int64, error) {
	n, err := r.queries.CountActiveShifts(ctx)
	if err != nil {
		return 0, fmt.Errorf("count active shifts: %w", err)
	}
	return n, nil
}

// NextSequence returns the next free sequence number for a day.
func (r *SQLiteRepository) NextSequence(ctx context.Context, day core.Date) (int, error) {
	maxSeq, err := r.queries.MaxSequenceForDay(ctx, day.IDSuffix())
	if err != nil {
		return 0, fmt.Errorf("max sequence for day: %w", err)
	}
	return int(maxSeq) + 1, nil
}

func (r *SQLiteRepository) InsertShift(ctx context.Context, s core.Shift) error {
	if err := r.queries.CreateShift(ctx, shiftToRow(s)); err != nil {
		return fmt.Errorf("create shift: %w", err)
	}
	slog.InfoContext(ctx, "Shift saved",
		"id", s.ID,
		"date", s.Date.Display(),
		"sequence", s.Sequence,
		"active", s.Active)
	return nil
}

func (r *SQLiteRepository) UpdateShift(ctx context.Context, s core.Shift) error {
	if err := r.queries.UpdateShift(ctx, shiftToRow(s)); err != nil {
		return fmt.Errorf("update shift: %w", err)
	}
	return nil
}

// DeleteShift removes a shift and cascades to its fares under both
// reference encodings.
func (r *SQLiteRepository) DeleteShift(ctx context.Context, s core.Shift) error {
	legacyRef := fmt.Sprintf("Turno %d", s.Sequence)
	if err := r.queries.DeleteShiftCascade(ctx, s.ID, legacyRef, s.Date.IDSuffix()); err != nil {
		return fmt.Errorf("delete shift cascade: %w", err)
	}
	slog.InfoContext(ctx, "Shift deleted with fare cascade", "id", s.ID)
	return nil
}

// --- fare operations ---

func (r *SQLiteRepository) GetFare(ctx context.Context, id int64) (*core.Fare, error) {
	row, err := r.queries.GetFare(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fare %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get fare: %w", err)
	}
	f, err := fareFromRow(row)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *SQLiteRepository) InsertFare(ctx context.Context, f core.Fare) (int64, error) {
	id, err := r.queries.CreateFare(ctx, fareToRow(f))
	if err != nil {
		return 0, fmt.Errorf("create fare: %w", err)
	}
	slog.InfoContext(ctx, "Fare saved",
		"id", id,
		"date", f.Date.Display(),
		"actual_cents", f.Actual.Cents,
		"payment", string(f.Payment),
		"shift_ref", f.ShiftRef)
	return id, nil
}

func (r *SQLiteRepository) UpdateFare(ctx context.Context, f core.Fare) error {
	if err := r.queries.UpdateFare(ctx, fareToRow(f)); err != nil {
		return fmt.Errorf("update fare: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteFare(ctx context.Context, id int64) error {
	if err := r.queries.DeleteFare(ctx, id); err != nil {
		return fmt.Errorf("delete fare: %w", err)
	}
	return nil
}

// --- expense / other income operations ---

func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) (int64, error) {
	id, err := r.queries.CreateExpense(ctx, expenseToRow(e))
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"date", e.Date.Display(),
		"supplier", e.Supplier,
		"total_cents", e.Total.Cents,
		"category", e.Category)
	return id, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	if err := r.queries.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) InsertOtherIncome(ctx context.Context, o core.OtherIncome) (int64, error) {
	id, err := r.queries.CreateOtherIncome(ctx, otherIncomeToRow(o))
	if err != nil {
		return 0, fmt.Errorf("create other income: %w", err)
	}
	slog.InfoContext(ctx, "Other income saved",
		"id", id,
		"date", o.Date.Display(),
		"concept", o.Concept,
		"amount_cents", o.Amount.Cents)
	return id, nil
}

func (r *SQLiteRepository) DeleteOtherIncome(ctx context.Context, id int64) error {
	if err := r.queries.DeleteOtherIncome(ctx, id); err != nil {
		return fmt.Errorf("delete other income: %w", err)
	}
	return nil
}

// --- row conversions ---

func shiftFromRow(row shiftRow) (core.Shift, error) {
	day, err := core.ParseIDSuffix(row.Day)
	if err != nil {
		return core.Shift{}, fmt.Errorf("shift %s: bad stored day %q", row.ID, row.Day)
	}
	return core.Shift{
		ID:            row.ID,
		Date:          day,
		StartTime:     row.StartTime,
		EndTime:       row.EndTime,
		OdometerStart: row.OdometerStart,
		OdometerEnd:   row.OdometerEnd,
		Sequence:      int(row.Sequence),
		Active:        row.Active,
	}, nil
}

func shiftsFromRows(rows []shiftRow) ([]core.Shift, error) {
	shifts := make([]core.Shift, 0, len(rows))
	for _, row := range rows {
		s, err := shiftFromRow(row)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, s)
	}
	return shifts, nil
}

func shiftToRow(s core.Shift) shiftRow {
	return shiftRow{
		ID:            s.ID,
		Day:           s.Date.IDSuffix(),
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		OdometerStart: s.OdometerStart,
		OdometerEnd:   s.OdometerEnd,
		Sequence:      int64(s.Sequence),
		Active:        s.Active,
	}
}

func fareFromRow(row fareRow) (core.Fare, error) {
	day, err := core.ParseIDSuffix(row.Day)
	if err != nil {
		return core.Fare{}, fmt.Errorf("fare %d: bad stored day %q", row.ID, row.Day)
	}
	return core.Fare{
		ID:       row.ID,
		Date:     day,
		Time:     row.Time,
		Metered:  core.Money{Cents: row.MeteredCents},
		Actual:   core.Money{Cents: row.ActualCents},
		Payment:  core.PaymentMethod(row.Payment),
		Dispatch: row.Dispatch,
		Airport:  row.Airport,
		ShiftRef: row.ShiftRef,
	}, nil
}

func fareToRow(f core.Fare) fareRow {
	return fareRow{
		ID:           f.ID,
		Day:          f.Date.IDSuffix(),
		Time:         f.Time,
		MeteredCents: f.Metered.Cents,
		ActualCents:  f.Actual.Cents,
		Payment:      string(f.Payment),
		Dispatch:     f.Dispatch,
		Airport:      f.Airport,
		ShiftRef:     f.ShiftRef,
	}
}

func expenseFromRow(row expenseRow) (core.Expense, error) {
	day, err := core.ParseIDSuffix(row.Day)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: bad stored day %q", row.ID, row.Day)
	}
	return core.Expense{
		ID:          row.ID,
		Invoice:     row.Invoice,
		Supplier:    row.Supplier,
		Date:        day,
		Total:       core.Money{Cents: row.TotalCents},
		VAT:         core.Money{Cents: row.VATCents},
		Odometer:    row.Odometer,
		Category:    row.Category,
		Subcategory: row.Subcategory,
		Description: row.Description,
	}, nil
}

func expenseToRow(e core.Expense) expenseRow {
	return expenseRow{
		ID:          e.ID,
		Invoice:     e.Invoice,
		Supplier:    e.Supplier,
		Day:         e.Date.IDSuffix(),
		TotalCents:  e.Total.Cents,
		VATCents:    e.VAT.Cents,
		Odometer:    e.Odometer,
		Category:    e.Category,
		Subcategory: e.Subcategory,
		Description: e.Description,
	}
}

func otherIncomeFromRow(row otherIncomeRow) (core.OtherIncome, error) {
	day, err := core.ParseIDSuffix(row.Day)
	if err != nil {
		return core.OtherIncome{}, fmt.Errorf("other income %d: bad stored day %q", row.ID, row.Day)
	}
	return core.OtherIncome{
		ID:          row.ID,
		Concept:     row.Concept,
		Date:        day,
		Amount:      core.Money{Cents: row.AmountCents},
		Description: row.Description,
		Notes:       row.Notes,
	}, nil
}

func otherIncomeToRow(o core.OtherIncome) otherIncomeRow {
	return otherIncomeRow{
		ID:          o.ID,
		Concept:     o.Concept,
		Day:         o.Date.IDSuffix(),
		AmountCents: o.Amount.Cents,
		Description: o.Description,
		Notes:       o.Notes,
	}
}
